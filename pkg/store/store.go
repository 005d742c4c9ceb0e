package store

import (
	"errors"

	"mirrormind/pkg/domain"
)

// ErrJobTerminal is returned when a completion or error write targets a job
// that already reached a terminal status. Terminal results are write-once.
var ErrJobTerminal = errors.New("job already in terminal status")

// ErrJobNotFound is returned when a status write targets an unknown job.
var ErrJobNotFound = errors.New("job not found")

// Store defines persistence for analysis jobs. Only metadata and the sealed
// result bundle are stored; plaintext chat content never reaches a Store.
type Store interface {
	CreateJob(job domain.Job) error
	GetJob(id string) (domain.Job, bool, error)
	// MarkCompleted transitions a processing job to completed with its
	// sealed result. Either encryptedResult or resultKey is set depending
	// on whether the bundle was offloaded to object storage.
	MarkCompleted(id string, encryptedResult []byte, resultKey string) error
	// MarkError transitions a processing job to error with a sanitized
	// message.
	MarkError(id string, message string) error
	// ListJobs returns jobs newest first, at most limit (0 means all).
	ListJobs(limit int) ([]domain.Job, error)
}
