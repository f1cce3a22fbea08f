package server_test

import (
	"testing"
	"time"

	"entity-mapper/core/server"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestConfig_Fiber(t *testing.T) {
	tests := []struct {
		name        string
		cfg         server.Config
		bodyLimit   int
		readTimeout time.Duration
	}{
		{"Defaults", server.Config{}, fiber.DefaultBodyLimit, 0},
		{"Custom", server.Config{BodyLimitMB: 2, ReadTimeoutSeconds: 5}, 2 * 1024 * 1024, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg.Fiber()
			assert.True(t, cfg.DisableStartupMessage)
			assert.Equal(t, tt.bodyLimit, cfg.BodyLimit)
			assert.Equal(t, tt.readTimeout, cfg.ReadTimeout)
		})
	}
}

func TestConfig_Secured(t *testing.T) {
	assert.False(t, server.Config{}.Secured())
	assert.True(t, server.Config{ApiKey: "secret"}.Secured())
}
