package store

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"mirrormind/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&JobModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// CreateJob inserts a new job row.
func (s *GormStore) CreateJob(job domain.Job) error {
	model := jobToModel(job)
	return s.db.Create(&model).Error
}

// GetJob retrieves a job by ID.
func (s *GormStore) GetJob(id string) (domain.Job, bool, error) {
	var model JobModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Job{}, false, nil
		}
		return domain.Job{}, false, err
	}
	return jobFromModel(model), true, nil
}

// MarkCompleted stores the sealed result and flips the job to completed. The
// status guard makes the transition atomic and write-once.
func (s *GormStore) MarkCompleted(id string, encryptedResult []byte, resultKey string) error {
	now := time.Now().UTC()
	return s.terminalUpdate(id, map[string]any{
		"status":           string(domain.StatusCompleted),
		"encrypted_result": datatypes.JSON(encryptedResult),
		"result_key":       resultKey,
		"updated_at":       now,
		"completed_at":     &now,
	})
}

// MarkError flips the job to error with a message.
func (s *GormStore) MarkError(id string, message string) error {
	now := time.Now().UTC()
	return s.terminalUpdate(id, map[string]any{
		"status":        string(domain.StatusError),
		"error_message": message,
		"updated_at":    now,
		"completed_at":  &now,
	})
}

func (s *GormStore) terminalUpdate(id string, values map[string]any) error {
	res := s.db.Model(&JobModel{}).
		Where("id = ? AND status = ?", id, string(domain.StatusProcessing)).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.Model(&JobModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrJobNotFound
		}
		return ErrJobTerminal
	}
	return nil
}

// ListJobs returns jobs newest first, at most limit (0 means all).
func (s *GormStore) ListJobs(limit int) ([]domain.Job, error) {
	var models []JobModel
	tx := s.db.Order("created_at DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Job, 0, len(models))
	for _, m := range models {
		res = append(res, jobFromModel(m))
	}
	return res, nil
}

func jobToModel(j domain.Job) JobModel {
	return JobModel{
		ID:              j.ID,
		Status:          string(j.Status),
		PersonName:      j.PersonName,
		Language:        j.Language,
		PublicKey:       j.PublicKey,
		EncryptedResult: datatypes.JSON(j.EncryptedResult),
		ResultKey:       j.ResultKey,
		ErrorMessage:    j.ErrorMessage,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
		CompletedAt:     j.CompletedAt,
	}
}

func jobFromModel(m JobModel) domain.Job {
	return domain.Job{
		ID:              m.ID,
		Status:          domain.JobStatus(m.Status),
		PersonName:      m.PersonName,
		Language:        m.Language,
		PublicKey:       m.PublicKey,
		EncryptedResult: []byte(m.EncryptedResult),
		ResultKey:       m.ResultKey,
		ErrorMessage:    m.ErrorMessage,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		CompletedAt:     m.CompletedAt,
	}
}
