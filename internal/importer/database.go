package importer

import (
	"errors"
	"time"

	"github.com/tradefolio/journal-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateUpload(upload *Upload) error {
	return d.db.Create(upload).Error
}

func (d *Database) GetUploadByIDAndClientID(uploadID, clientID string) (*Upload, error) {
	var upload Upload
	if err := d.db.Where("upload_id = ? AND client_id = ?", uploadID, clientID).First(&upload).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &upload, nil
}

func (d *Database) GetJobByUploadID(uploadID string) (*ImportJob, error) {
	var job ImportJob
	if err := d.db.Where("upload_id = ?", uploadID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (d *Database) GetPendingJobs() ([]ImportJob, error) {
	var jobs []ImportJob
	if err := d.db.Where("status = ?", JobStatusPending).Order("id asc").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (d *Database) UpdateJob(job *ImportJob) error {
	return d.db.Save(job).Error
}

func (d *Database) GetTradeRecordsByUpload(uploadID string) ([]types.TradeRecord, error) {
	var records []types.TradeRecord
	if err := d.db.Where("upload_id = ?", uploadID).Order("row_index asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// CommitUpload persists the normalized trade records, creates the import
// job and flips the upload status in a single transaction. A row failure
// upstream means this is never called, so the batch stays all-or-nothing.
func (d *Database) CommitUpload(upload *Upload, records []types.TradeRecord, job *ImportJob) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for i := range records {
		if err := tx.Create(&records[i]).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Create(job).Error; err != nil {
		tx.Rollback()
		return err
	}

	upload.Status = UploadStatusCommitted
	upload.RowCount = len(records)
	upload.UpdatedAt = time.Now()
	if err := tx.Save(upload).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// CompleteJob stores the matcher output and marks the job completed in a
// single transaction so a crash never leaves half a result set behind.
func (d *Database) CompleteJob(job *ImportJob, matched []types.MatchedTrade, open []types.OpenPosition) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for i := range matched {
		if err := tx.Create(&matched[i]).Error; err != nil {
			tx.Rollback()
			return err
		}
	}
	for i := range open {
		if err := tx.Create(&open[i]).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	job.Status = JobStatusCompleted
	job.UpdatedAt = time.Now()
	if err := tx.Save(job).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
