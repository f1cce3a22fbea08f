package cmd

import (
	"fmt"

	"entity-mapper/core/config"
	"entity-mapper/core/database"
	"entity-mapper/core/logger"
	"entity-mapper/core/storage"
	"entity-mapper/feature/library"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// application holds the dependencies every command builds the same way.
type application struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	storage storage.Client
	library *library.Service
}

// bootstrap loads the configuration and connects to the database and the bucket.
// When requireDB is false a failed database connection only disables the library.
func bootstrap(requireDB bool) (*application, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	app := &application{cfg: cfg, logger: logg}

	app.storage, err = storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		if requireDB {
			return nil, fmt.Errorf("database connection required: %w", err)
		}
		logg.Warn("Database connection failed, library disabled", zap.Error(err))
		return app, nil
	}
	app.db = db

	if cfg.Database.Migrate {
		if err := library.Migrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
		logg.Info("Library tables migrated")
	}

	m, err := library.NewMapper(cfg.Mapping, logg.Named("mapper"))
	if err != nil {
		return nil, fmt.Errorf("failed to build mapper: %w", err)
	}
	app.library = library.NewService(db, m, logg)
	return app, nil
}

func (a *application) importer() *library.Importer {
	return library.NewImporter(a.library, a.storage, a.cfg.Storage, a.logger)
}
