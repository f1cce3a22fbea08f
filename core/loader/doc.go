// Package loader provides the plugin-like feature loading system.
//
// Each feature implements the Feature interface, which names the feature, reports
// whether it is enabled and registers its routes.
//
// # Feature Interface
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// # Manager
//
// The Manager keeps features in registration order. LoadAll loads the enabled ones
// and logs the features it loads or skips.
package loader
