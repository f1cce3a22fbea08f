// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation (X-API-Key header) for every non-skipped path.
//   - rayid: assigns each request a ray id, stored in the context locals and echoed in
//     the X-Ray-ID response header, so request and mapper logs can be correlated.
package middleware
