package database

import (
	"fmt"

	"github.com/tradefolio/journal-api/internal/auth"
	"github.com/tradefolio/journal-api/internal/database/migrations"
	"github.com/tradefolio/journal-api/internal/importer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase initializes and returns a new GORM DB connection
func NewDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := migrations.AddJournalTables(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := migrations.AddImportPipeline(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Auto-migrate other schemas
	err = db.AutoMigrate(
		&auth.APICredential{},
		&importer.Upload{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
