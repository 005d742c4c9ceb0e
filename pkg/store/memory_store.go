package store

import (
	"sync"
	"time"

	"mirrormind/pkg/domain"
)

// MemoryStore keeps the job ledger in-process. It backs single-node
// deployments and tests; the interface matches GormStore so the two swap
// freely.
type MemoryStore struct {
	mu    sync.RWMutex
	jobs  map[string]domain.Job
	order []string
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]domain.Job)}
}

// CreateJob stores a new job record and tracks insertion order.
func (m *MemoryStore) CreateJob(job domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.jobs[job.ID]; !exists {
		m.order = append(m.order, job.ID)
	}
	m.jobs[job.ID] = job
	return nil
}

// GetJob retrieves a job by ID.
func (m *MemoryStore) GetJob(id string) (domain.Job, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	return job, ok, nil
}

// MarkCompleted stores the sealed result and flips the job to completed.
func (m *MemoryStore) MarkCompleted(id string, encryptedResult []byte, resultKey string) error {
	return m.terminalUpdate(id, func(job *domain.Job) {
		job.Status = domain.StatusCompleted
		job.EncryptedResult = encryptedResult
		job.ResultKey = resultKey
	})
}

// MarkError flips the job to error with a message.
func (m *MemoryStore) MarkError(id string, message string) error {
	return m.terminalUpdate(id, func(job *domain.Job) {
		job.Status = domain.StatusError
		job.ErrorMessage = message
	})
}

func (m *MemoryStore) terminalUpdate(id string, apply func(*domain.Job)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if job.Status.Terminal() {
		return ErrJobTerminal
	}
	now := time.Now().UTC()
	apply(&job)
	job.UpdatedAt = now
	job.CompletedAt = &now
	m.jobs[id] = job
	return nil
}

// ListJobs returns jobs newest first, at most limit (0 means all).
func (m *MemoryStore) ListJobs(limit int) ([]domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Job, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		if job, ok := m.jobs[m.order[i]]; ok {
			res = append(res, job)
		}
		if limit > 0 && len(res) == limit {
			break
		}
	}
	return res, nil
}
