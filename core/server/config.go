package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API. Empty disables the check.
	ApiKey string `mapstructure:"api_key" default:""`
	// BodyLimitMB caps request bodies, which bounds the size of a mapped graph.
	BodyLimitMB int `mapstructure:"body_limit_mb" default:"4"`
	// ReadTimeoutSeconds bounds reading a request.
	ReadTimeoutSeconds int `mapstructure:"read_timeout_seconds" default:"30"`
}

// Fiber returns the Fiber settings derived from the configuration.
func (c Config) Fiber() fiber.Config {
	cfg := fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             fiber.DefaultBodyLimit,
	}
	if c.BodyLimitMB > 0 {
		cfg.BodyLimit = c.BodyLimitMB * 1024 * 1024
	}
	if c.ReadTimeoutSeconds > 0 {
		cfg.ReadTimeout = time.Duration(c.ReadTimeoutSeconds) * time.Second
	}
	return cfg
}

// Secured reports whether requests must carry the API key.
func (c Config) Secured() bool {
	return c.ApiKey != ""
}
