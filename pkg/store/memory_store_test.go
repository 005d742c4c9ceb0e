package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"mirrormind/pkg/domain"
)

func newJob(id string) domain.Job {
	now := time.Now().UTC()
	return domain.Job{
		ID:         id,
		Status:     domain.StatusProcessing,
		PersonName: "Ann",
		Language:   "ru",
		PublicKey:  "pk",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestMemoryStoreLifecycle(t *testing.T) {
	s := NewMemoryStore()
	if err := s.CreateJob(newJob("j1")); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	job, ok, err := s.GetJob("j1")
	if err != nil || !ok {
		t.Fatalf("GetJob = %v, %v", ok, err)
	}
	if job.Status != domain.StatusProcessing {
		t.Fatalf("status = %q", job.Status)
	}

	if err := s.MarkCompleted("j1", []byte(`{"alg":"x"}`), "results/j1.json"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	job, _, _ = s.GetJob("j1")
	if job.Status != domain.StatusCompleted {
		t.Errorf("status = %q", job.Status)
	}
	if string(job.EncryptedResult) != `{"alg":"x"}` {
		t.Errorf("encrypted result = %q", job.EncryptedResult)
	}
	if job.ResultKey != "results/j1.json" {
		t.Errorf("result key = %q", job.ResultKey)
	}
	if job.CompletedAt == nil {
		t.Error("completed_at not set")
	}
}

func TestMemoryStoreTerminalWriteOnce(t *testing.T) {
	s := NewMemoryStore()
	if err := s.CreateJob(newJob("j1")); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := s.MarkError("j1", "model unavailable"); err != nil {
		t.Fatalf("MarkError: %v", err)
	}

	if err := s.MarkCompleted("j1", []byte("{}"), ""); !errors.Is(err, ErrJobTerminal) {
		t.Fatalf("MarkCompleted on terminal job: err = %v", err)
	}
	if err := s.MarkError("j1", "second message"); !errors.Is(err, ErrJobTerminal) {
		t.Fatalf("MarkError on terminal job: err = %v", err)
	}

	job, _, _ := s.GetJob("j1")
	if job.Status != domain.StatusError || job.ErrorMessage != "model unavailable" {
		t.Fatalf("terminal state mutated: %q %q", job.Status, job.ErrorMessage)
	}
}

func TestMemoryStoreUnknownJob(t *testing.T) {
	s := NewMemoryStore()
	if _, ok, err := s.GetJob("missing"); ok || err != nil {
		t.Fatalf("GetJob(missing) = %v, %v", ok, err)
	}
	if err := s.MarkError("missing", "x"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("MarkError(missing): err = %v", err)
	}
	if err := s.MarkCompleted("missing", nil, ""); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("MarkCompleted(missing): err = %v", err)
	}
}

func TestMemoryStoreListJobs(t *testing.T) {
	s := NewMemoryStore()
	for i := 0; i < 5; i++ {
		if err := s.CreateJob(newJob(fmt.Sprintf("j%d", i))); err != nil {
			t.Fatalf("CreateJob: %v", err)
		}
	}

	all, err := s.ListJobs(0)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("got %d jobs, want 5", len(all))
	}
	if all[0].ID != "j4" || all[4].ID != "j0" {
		t.Errorf("order: first %q, last %q", all[0].ID, all[4].ID)
	}

	limited, err := s.ListJobs(2)
	if err != nil {
		t.Fatalf("ListJobs(2): %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "j4" || limited[1].ID != "j3" {
		t.Errorf("limited = %v", limited)
	}
}
