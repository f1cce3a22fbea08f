package library

import (
	"context"
	"fmt"
	"path"
	"time"

	"entity-mapper/core/storage"

	"go.uber.org/zap"
)

// ImportReport describes one imported catalog object.
type ImportReport struct {
	Object string `json:"object"`
	Books  int    `json:"books"`
	Plan   *Plan  `json:"plan,omitempty"`
}

// Importer moves catalogs between the bucket and the database.
type Importer struct {
	service    *Service
	client     storage.Client
	bucket     string
	catalogDir string
	exportDir  string
	logger     *zap.Logger
}

// NewImporter creates an importer reading catalogs under cfg.CatalogPrefix and writing
// exports under cfg.ExportPrefix.
func NewImporter(service *Service, client storage.Client, cfg storage.Config, logger *zap.Logger) *Importer {
	return &Importer{
		service:    service,
		client:     client,
		bucket:     cfg.Bucket,
		catalogDir: cfg.CatalogPrefix,
		exportDir:  cfg.ExportPrefix,
		logger:     logger,
	}
}

// Catalogs lists the catalog objects waiting in the bucket.
func (i *Importer) Catalogs(ctx context.Context) ([]string, error) {
	return storage.ListKeys(ctx, i.client, i.bucket, i.catalogDir)
}

// Import saves the books of one catalog object. With dryRun the changes are only planned.
func (i *Importer) Import(ctx context.Context, object string, dryRun bool) (*ImportReport, error) {
	var catalog Catalog
	if err := storage.ReadJSON(ctx, i.client, i.bucket, object, &catalog); err != nil {
		return nil, err
	}

	report := &ImportReport{Object: object, Books: len(catalog.Books)}
	if dryRun {
		plan, err := i.service.PlanBooks(ctx, catalog.Books)
		if err != nil {
			return nil, fmt.Errorf("failed to plan %s: %w", object, err)
		}
		report.Plan = plan
		return report, nil
	}

	if _, err := i.service.SaveBooks(ctx, catalog.Books); err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", object, err)
	}
	i.logger.Info("Catalog imported", zap.String("object", object), zap.Int("books", report.Books))
	return report, nil
}

// ImportAll imports every catalog object and stops at the first failure.
func (i *Importer) ImportAll(ctx context.Context, dryRun bool) ([]*ImportReport, error) {
	objects, err := i.Catalogs(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]*ImportReport, 0, len(objects))
	for _, object := range objects {
		report, err := i.Import(ctx, object, dryRun)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Export writes every book to a timestamped catalog object and returns its name.
func (i *Importer) Export(ctx context.Context, now time.Time) (string, error) {
	books, err := i.service.ListBooks(ctx)
	if err != nil {
		return "", err
	}

	object := path.Join(i.exportDir, fmt.Sprintf("catalog-%s.json", now.UTC().Format("20060102T150405Z")))
	if err := storage.WriteJSON(ctx, i.client, i.bucket, object, Catalog{Books: books}); err != nil {
		return "", err
	}
	i.logger.Info("Catalog exported", zap.String("object", object), zap.Int("books", len(books)))
	return object, nil
}
