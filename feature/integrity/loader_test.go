package integrity

import (
	"testing"

	"entity-mapper/core/storage"
	"entity-mapper/core/storage/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLoader(t *testing.T) {
	// the database is only touched by the checks themselves
	feature := NewFeature(new(mocks.Client), storage.Config{Bucket: "library"}, nil, nil, zap.NewNop())

	assert.Equal(t, "integrity", feature.Name())
	assert.True(t, feature.IsEnabled())
	assert.NoError(t, feature.Load(fiber.New()))
}
