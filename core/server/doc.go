// Package server holds the HTTP server configuration.
//
// The start command owns the server lifecycle; this package turns the loaded settings
// (port, API key, body limit, read timeout) into a fiber.Config.
package server
