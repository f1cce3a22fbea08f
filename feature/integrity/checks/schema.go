package checks

import (
	"fmt"

	"entity-mapper/core/database"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// SchemaReport is the result of a schema check.
type SchemaReport struct {
	Matched bool                   `json:"matched"`
	Tables  []database.TableReport `json:"tables"`
}

// CheckSchema compares the database tables with the columns gorm expects for models.
func CheckSchema(db *gorm.DB, models []any) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	report := &SchemaReport{Matched: true, Tables: []database.TableReport{}}
	for _, model := range models {
		tables, err := database.CompareModel(db, model)
		if err != nil {
			return nil, err
		}
		report.Tables = append(report.Tables, tables...)
	}

	// A join table is reported once per owning model.
	report.Tables = lo.UniqBy(report.Tables, func(t database.TableReport) string { return t.Table })
	report.Matched = lo.EveryBy(report.Tables, func(t database.TableReport) bool { return t.Status == "ok" })
	return report, nil
}
