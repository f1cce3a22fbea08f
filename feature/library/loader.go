package library

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	enabled bool
	handler *Handler
}

// NewFeature creates the library feature. It is disabled without a database.
func NewFeature(service *Service, importer *Importer, db *gorm.DB, logger *zap.Logger) *Feature {
	return &Feature{
		enabled: db != nil,
		handler: NewHandler(service, importer, logger),
	}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "library"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.enabled
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
