package integrity

import (
	"context"

	"entity-mapper/core/storage"
	"entity-mapper/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service handles integrity checks.
type Service struct {
	client  storage.Client
	bucket  string
	folders []string
	db      *gorm.DB
	models  []any
	logger  *zap.Logger
}

// NewService creates a new integrity service. models are the gorm models whose tables
// the schema check inspects.
func NewService(client storage.Client, cfg storage.Config, db *gorm.DB, models []any, logger *zap.Logger) *Service {
	return &Service{
		client:  client,
		bucket:  cfg.Bucket,
		folders: checks.RequiredFolders(cfg),
		db:      db,
		models:  models,
		logger:  logger,
	}
}

// CheckStructure returns the catalog folders missing from the bucket.
func (s *Service) CheckStructure(ctx context.Context) ([]string, error) {
	return checks.CheckStructure(ctx, s.client, s.bucket, s.folders)
}

// FixStructure creates the missing folders.
func (s *Service) FixStructure(ctx context.Context, missing []string) error {
	return checks.FixStructure(ctx, s.client, s.bucket, s.logger, missing)
}

// CheckSchema compares the database with the models.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	return checks.CheckSchema(s.db, s.models)
}
