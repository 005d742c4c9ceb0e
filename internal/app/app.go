package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mirrormind/internal/analysis"
	"mirrormind/internal/util"
	"mirrormind/pkg/crypto"
	"mirrormind/pkg/domain"
	"mirrormind/pkg/notify"
	"mirrormind/pkg/queue"
	"mirrormind/pkg/storage"
	"mirrormind/pkg/store"
)

// Config holds runtime dependencies for the core application.
type Config struct {
	Store store.Store
	Model analysis.ModelClient
	Queue queue.Queue
	// Objects, when set, offloads sealed bundles to object storage and the
	// ledger keeps only the key.
	Objects storage.ObjectStore
	// Notifier, when set, receives best-effort job lifecycle events.
	Notifier notify.Notifier

	// LargeFileThreshold is the message count above which a chat gets the
	// timeline treatment instead of a single pass.
	LargeFileThreshold int
	DefaultLanguage    string
}

// App orchestrates the analysis pipeline: accept a submission, queue it, run
// the model stages, seal the result to the requester's key, and record the
// outcome. Plaintext chat lives only in process memory between submission
// and completion.
type App struct {
	store     store.Store
	model     analysis.ModelClient
	queue     queue.Queue
	objects   storage.ObjectStore
	notifier  notify.Notifier
	threshold int
	language  string

	mu       sync.Mutex
	payloads map[string][]domain.Message
}

// Submission is one analysis request.
type Submission struct {
	PersonName string
	Language   string
	PublicKey  string
	Messages   []domain.Message
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("store required")
	}
	if cfg.Model == nil {
		return nil, errors.New("model client required")
	}
	if cfg.Queue == nil {
		return nil, errors.New("queue required")
	}
	threshold := cfg.LargeFileThreshold
	if threshold <= 0 {
		threshold = 25000
	}
	language := strings.TrimSpace(cfg.DefaultLanguage)
	if language == "" {
		language = analysis.DefaultLanguage
	}
	return &App{
		store:     cfg.Store,
		model:     cfg.Model,
		queue:     cfg.Queue,
		objects:   cfg.Objects,
		notifier:  cfg.Notifier,
		threshold: threshold,
		language:  language,
		payloads:  make(map[string][]domain.Message),
	}, nil
}

// Start launches the queue workers.
func (a *App) Start(ctx context.Context, workers int) {
	a.queue.Start(ctx, workers, a.runJob)
}

// SubmitAnalysis validates a submission, records the job, and queues it.
func (a *App) SubmitAnalysis(ctx context.Context, sub Submission) (domain.Job, error) {
	if strings.TrimSpace(sub.PublicKey) == "" {
		return domain.Job{}, ErrPublicKeyRequired
	}
	if len(sub.Messages) == 0 {
		return domain.Job{}, ErrNoMessages
	}
	personName := strings.TrimSpace(sub.PersonName)
	if personName == "" {
		personName = "User"
	}
	now := time.Now().UTC()
	job := domain.Job{
		ID:         uuid.NewString(),
		Status:     domain.StatusProcessing,
		PersonName: personName,
		Language:   a.normalizeLanguage(sub.Language),
		PublicKey:  strings.TrimSpace(sub.PublicKey),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := a.store.CreateJob(job); err != nil {
		return domain.Job{}, fmt.Errorf("create job: %w", err)
	}
	a.stashPayload(job.ID, sub.Messages)
	if err := a.queue.Enqueue(ctx, queue.Task{JobID: job.ID}); err != nil {
		a.takePayload(job.ID)
		_ = a.store.MarkError(job.ID, "could not queue analysis")
		return domain.Job{}, fmt.Errorf("enqueue job: %w", err)
	}
	util.LoggerFromContext(ctx).Info("analysis accepted",
		"job_id", job.ID,
		"language", job.Language,
		"messages", len(sub.Messages),
	)
	a.notifyStatus(ctx, job.ID, string(domain.StatusProcessing), "")
	return job, nil
}

// GetJob returns the ledger record for a job.
func (a *App) GetJob(id string) (domain.Job, bool, error) {
	return a.store.GetJob(id)
}

// ListJobs returns jobs newest first, at most limit (0 means all).
func (a *App) ListJobs(limit int) ([]domain.Job, error) {
	return a.store.ListJobs(limit)
}

// GetResult returns the sealed bundle for a completed job, fetching it from
// object storage when it was offloaded.
func (a *App) GetResult(ctx context.Context, job domain.Job) ([]byte, error) {
	if len(job.EncryptedResult) > 0 {
		return job.EncryptedResult, nil
	}
	if job.ResultKey != "" {
		if a.objects == nil {
			return nil, errors.New("result offloaded but object storage not configured")
		}
		return a.objects.GetResult(ctx, job.ResultKey)
	}
	return nil, errors.New("no result stored")
}

// runJob is the queue handler: it runs the full pipeline for one job and
// records a terminal status. The returned error only reports the outcome to
// the queue; a failed job is never retried.
func (a *App) runJob(ctx context.Context, task queue.Task) error {
	logger := util.LoggerFromContext(ctx).With("job_id", task.JobID)

	job, ok, err := a.store.GetJob(task.JobID)
	if err != nil {
		logger.Error("load job", "error", err)
		return err
	}
	if !ok {
		logger.Warn("job not found, dropping task")
		return nil
	}
	if job.Status.Terminal() {
		logger.Warn("job already terminal, dropping task", "status", job.Status)
		return nil
	}
	messages, ok := a.takePayload(task.JobID)
	if !ok {
		return a.fail(ctx, logger, job.ID, "submission payload no longer available")
	}

	result, err := a.process(ctx, logger, job, messages)
	if err != nil {
		logger.Error("analysis failed", "error", err)
		return a.fail(ctx, logger, job.ID, err.Error())
	}

	logger.Info("analysis stage", "stage", "encrypting")
	plaintext, err := json.Marshal(result)
	if err != nil {
		return a.fail(ctx, logger, job.ID, fmt.Sprintf("encode result: %v", err))
	}
	bundle, err := crypto.Seal(plaintext, job.PublicKey, []byte(job.ID))
	if err != nil {
		return a.fail(ctx, logger, job.ID, fmt.Sprintf("seal result: %v", err))
	}
	sealed, err := json.Marshal(bundle)
	if err != nil {
		return a.fail(ctx, logger, job.ID, fmt.Sprintf("encode bundle: %v", err))
	}

	resultKey := ""
	inline := sealed
	if a.objects != nil {
		key := "results/" + job.ID + ".json"
		if err := a.objects.PutResult(ctx, key, sealed); err != nil {
			logger.Warn("result offload failed, storing inline", "error", err)
		} else {
			resultKey = key
			inline = nil
		}
	}
	if err := a.store.MarkCompleted(job.ID, inline, resultKey); err != nil {
		logger.Error("mark completed", "error", err)
		return err
	}
	logger.Info("analysis stage", "stage", "completed")
	a.notifyStatus(ctx, job.ID, string(domain.StatusCompleted), "")
	return nil
}

// process runs the model stages and returns the plaintext result document.
func (a *App) process(ctx context.Context, logger *slog.Logger, job domain.Job, messages []domain.Message) (any, error) {
	if len(messages) > a.threshold {
		periods := analysis.Segment(messages, job.Language, time.Now().UTC())
		if len(periods) > 0 {
			return a.processTimeline(ctx, logger, job, messages, periods)
		}
		logger.Warn("no dated messages, falling back to single pass")
	}
	logger.Info("analysis stage", "stage", "single_pass", "messages", len(messages))
	return analysis.AnalyzeProfile(ctx, a.model, analysis.ProfileRequest{
		PersonName: job.PersonName,
		Language:   job.Language,
		Messages:   messages,
	})
}

func (a *App) processTimeline(ctx context.Context, logger *slog.Logger, job domain.Job, messages []domain.Message, periods []analysis.Period) (any, error) {
	logger.Info("analysis stage", "stage", "timeline", "periods", len(periods), "messages", len(messages))

	outcome := analysis.NamePeriods(ctx, a.model, job.PersonName, job.Language, periods)
	if outcome.Fallback {
		logger.Warn("period naming fell back", "reason", outcome.Reason)
	}
	analysis.ApplyNaming(periods, outcome)

	periodResults := make([]analysis.PeriodInsights, 0, len(periods))
	for i, period := range periods {
		insights, err := analysis.AnalyzePeriod(ctx, a.model, analysis.PeriodRequest{
			PersonName: job.PersonName,
			Language:   job.Language,
			Period:     period,
		})
		if err != nil {
			return nil, fmt.Errorf("analyze period %d: %w", i+1, err)
		}
		periodResults = append(periodResults, insights)
	}

	timeline, err := analysis.SynthesizeTimeline(ctx, a.model, job.PersonName, job.Language, periodResults)
	if err != nil {
		return nil, err
	}
	return analysis.TimelineResult{
		TimelineInsights: timeline,
		ProcessingType:   analysis.ProcessingTypeTimeline,
		TotalMessages:    len(messages),
		NumberOfPeriods:  len(periods),
		PeriodAnalyses:   periodResults,
	}, nil
}

func (a *App) fail(ctx context.Context, logger *slog.Logger, jobID, message string) error {
	if err := a.store.MarkError(jobID, message); err != nil {
		logger.Error("mark error", "error", err)
		return err
	}
	logger.Info("analysis stage", "stage", "error", "message", message)
	a.notifyStatus(ctx, jobID, string(domain.StatusError), message)
	return nil
}

func (a *App) notifyStatus(ctx context.Context, jobID, status, message string) {
	if a.notifier == nil {
		return
	}
	event := notify.Event{JobID: jobID, Status: status, Message: message, At: time.Now().UTC()}
	if err := a.notifier.Publish(ctx, event); err != nil {
		util.LoggerFromContext(ctx).Warn("publish notification", "job_id", jobID, "error", err)
	}
}

func (a *App) normalizeLanguage(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case analysis.LangEnglish:
		return analysis.LangEnglish
	case analysis.LangRussian:
		return analysis.LangRussian
	default:
		return a.language
	}
}

func (a *App) stashPayload(jobID string, messages []domain.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.payloads[jobID] = messages
}

func (a *App) takePayload(jobID string) ([]domain.Message, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	messages, ok := a.payloads[jobID]
	delete(a.payloads, jobID)
	return messages, ok
}
