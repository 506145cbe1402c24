package imagegen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/auravoice/aura/internal/storage"
)

// JobType is the queue type for image generation jobs.
const JobType = "image_generation"

// JobStore abstracts the job queue operations.
type JobStore interface {
	EnqueueJob(job storage.Job) error
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id string, errMsg string) error
}

type jobPayload struct {
	Prompt string `json:"prompt"`
}

// Enqueue queues one image generation request and returns the job id.
func Enqueue(store JobStore, prompt string) (string, error) {
	payload, err := json.Marshal(jobPayload{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("encoding payload: %w", err)
	}
	id := uuid.NewString()
	if err := store.EnqueueJob(storage.Job{
		ID:          id,
		Type:        JobType,
		PayloadJSON: string(payload),
	}); err != nil {
		return "", fmt.Errorf("enqueueing image job: %w", err)
	}
	return id, nil
}

// Notifier receives the saved image paths when a job finishes. Used to speak
// a completion line and update the display.
type Notifier interface {
	ImagesReady(prompt string, paths []string)
}

// Worker processes image generation jobs from the SQLite job queue.
type Worker struct {
	store     JobStore
	generator *Generator
	notifier  Notifier
	poll      time.Duration
	logger    *slog.Logger
}

// NewWorker creates a Worker. notifier may be nil. If pollInterval is <= 0,
// it defaults to 500ms.
func NewWorker(store JobStore, generator *Generator, notifier Notifier, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Worker{
		store:     store,
		generator: generator,
		notifier:  notifier,
		poll:      pollInterval,
		logger:    slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single image job.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob([]string{JobType})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Warn("image job failed", "job_id", job.ID, "error", err)
		if failErr := w.store.FailJob(job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

func (w *Worker) processJob(ctx context.Context, job *storage.Job) error {
	var payload jobPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}

	paths, err := w.generator.GenerateSet(ctx, payload.Prompt)
	if err != nil {
		return fmt.Errorf("generating image set: %w", err)
	}

	w.logger.Info("image set generated", "job_id", job.ID, "count", len(paths))
	if w.notifier != nil {
		w.notifier.ImagesReady(payload.Prompt, paths)
	}
	return nil
}
