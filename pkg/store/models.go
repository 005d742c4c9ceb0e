package store

import (
	"time"

	"gorm.io/datatypes"
)

// JobModel is the GORM row for an analysis job.
type JobModel struct {
	ID              string `gorm:"primaryKey"`
	Status          string `gorm:"not null;index"`
	PersonName      string `gorm:"not null"`
	Language        string `gorm:"not null"`
	PublicKey       string `gorm:"not null"`
	EncryptedResult datatypes.JSON
	ResultKey       string
	ErrorMessage    string
	CreatedAt       time.Time `gorm:"not null;index"`
	UpdatedAt       time.Time `gorm:"not null"`
	CompletedAt     *time.Time
}

func (JobModel) TableName() string { return "analysis_jobs" }
