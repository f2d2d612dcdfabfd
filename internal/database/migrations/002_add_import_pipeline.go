package migrations

import (
	"github.com/tradefolio/journal-api/internal/importer"
	"gorm.io/gorm"
)

// AddImportPipeline creates the import job table and its status index
func AddImportPipeline(db *gorm.DB) error {
	if err := db.AutoMigrate(&importer.ImportJob{}); err != nil {
		return err
	}

	indexes := []string{
		// The processor polls pending jobs on every tick
		`CREATE INDEX IF NOT EXISTS idx_import_jobs_status
		 ON import_jobs(status)`,

		// Upload status lookups join through the job
		`CREATE INDEX IF NOT EXISTS idx_import_jobs_upload
		 ON import_jobs(upload_id)`,
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
