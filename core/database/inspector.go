package database

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// ColumnInfo matches the output of SHOW COLUMNS.
type ColumnInfo struct {
	Field   string
	Type    string
	Null    string
	Key     string
	Default *string
	Extra   string
}

// TableReport lists the columns a model expects but the table lacks.
type TableReport struct {
	Table          string   `json:"table"`
	MissingColumns []string `json:"missing_columns"`
	Status         string   `json:"status"` // "ok", "missing", "error"
}

// GetTableColumns retrieves the column definitions for a given table.
func GetTableColumns(db *gorm.DB, tableName string) ([]ColumnInfo, error) {
	var columns []ColumnInfo
	if db.Dialector.Name() == DriverSQLite {
		type sqliteColumn struct {
			Cid        int
			Name       string
			Type       string
			Notnull    int
			DefaultVal *string
			Pk         int
		}
		var sqliteCols []sqliteColumn
		if err := db.Raw(fmt.Sprintf("PRAGMA table_info('%s')", tableName)).Scan(&sqliteCols).Error; err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
		}
		return lo.Map(sqliteCols, func(col sqliteColumn, _ int) ColumnInfo {
			return ColumnInfo{Field: strings.ToLower(col.Name), Type: strings.ToLower(col.Type)}
		}), nil
	}

	if err := db.Raw(fmt.Sprintf("SHOW COLUMNS FROM `%s`", tableName)).Scan(&columns).Error; err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
	}
	for i := range columns {
		columns[i].Type = strings.ToLower(columns[i].Type)
		columns[i].Field = strings.ToLower(columns[i].Field)
	}
	return columns, nil
}

// CompareModel checks the table of model, and the join tables of its many-to-many
// associations, against the columns gorm expects.
func CompareModel(db *gorm.DB, model any) ([]TableReport, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("failed to parse model %T: %w", model, err)
	}

	expected := map[string][]string{stmt.Schema.Table: stmt.Schema.DBNames}
	order := []string{stmt.Schema.Table}
	for _, rel := range stmt.Schema.Relationships.Many2Many {
		if rel.JoinTable == nil {
			continue
		}
		expected[rel.JoinTable.Table] = rel.JoinTable.DBNames
		order = append(order, rel.JoinTable.Table)
	}

	reports := make([]TableReport, 0, len(order))
	for _, table := range lo.Uniq(order) {
		report := TableReport{Table: table, MissingColumns: []string{}, Status: "ok"}

		cols, err := GetTableColumns(db, table)
		if err != nil {
			report.Status = "error"
			reports = append(reports, report)
			continue
		}
		actual := lo.SliceToMap(cols, func(c ColumnInfo) (string, bool) { return c.Field, true })
		report.MissingColumns = lo.Filter(expected[table], func(name string, _ int) bool {
			return !actual[strings.ToLower(name)]
		})
		if len(report.MissingColumns) > 0 {
			report.Status = "missing"
		}
		reports = append(reports, report)
	}
	return reports, nil
}
