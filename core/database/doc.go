// Package database opens the gorm connection used by the store layer and inspects
// the resulting schema.
//
// # Connect
//
// Connect supports two drivers: mysql for deployments and sqlite for local runs and
// tests. A sqlite database named ":memory:" is pinned to a single connection so every
// query sees the same in-memory database.
//
// # Schema Inspection
//
// GetTableColumns returns the live columns of a table. CompareModel checks them against
// the columns gorm derives from a model, which is what the integrity feature reports.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	report, err := database.CompareModel(db, &library.Book{})
package database
