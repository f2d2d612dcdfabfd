package auth

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// APICredential stores an API key with its bcrypt-hashed secret.
type APICredential struct {
	gorm.Model `json:"-"`
	APIKey     string `gorm:"uniqueIndex" json:"api_key"`
	SecretHash string `json:"-"`
}

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) GetCredentialByAPIKey(apiKey string) (*APICredential, error) {
	var credential APICredential
	if err := d.db.Where("api_key = ?", apiKey).First(&credential).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &credential, nil
}

func (d *Database) UpsertCredential(credential *APICredential) error {
	return d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "api_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"secret_hash"}),
	}).Create(credential).Error
}
