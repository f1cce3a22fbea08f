// Package integrity checks that the infrastructure the library depends on is in shape.
//
// # Checks Provided
//
//   - Structure: the bucket exists and holds the catalog and export folders.
//   - Schema: every table of the library models, join tables included, has the
//     columns gorm expects.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/structure : Runs structure check (supports ?fix=true).
//   - GET /integrity/schema : Runs schema check.
package integrity
