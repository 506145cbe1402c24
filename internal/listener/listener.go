// Package listener schedules utterance cycles off the microphone state. One
// cycle at a time: the poll only fires while the assistant is not busy, which
// is the mutual exclusion the status store relies on.
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/auravoice/aura/internal/router"
	"github.com/auravoice/aura/internal/status"
)

// DefaultPollInterval is how often the mic state is checked.
const DefaultPollInterval = 100 * time.Millisecond

// Transcriber captures one utterance from the microphone, blocking until the
// user stops speaking.
type Transcriber interface {
	Transcribe(ctx context.Context) (string, error)
}

// Cycler runs one full utterance cycle.
type Cycler interface {
	Cycle(ctx context.Context, utterance string) router.Outcome
}

// Listener polls the mic slot and feeds captured utterances to the cycler.
type Listener struct {
	status      *status.Store
	transcriber Transcriber
	cycler      Cycler
	interval    time.Duration
	logger      *slog.Logger
}

// New creates a Listener. interval <= 0 selects DefaultPollInterval.
func New(st *status.Store, transcriber Transcriber, cycler Cycler, interval time.Duration) *Listener {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Listener{
		status:      st,
		transcriber: transcriber,
		cycler:      cycler,
		interval:    interval,
		logger:      slog.Default(),
	}
}

// Run polls until ctx is cancelled or an exit directive has been routed.
func (l *Listener) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if l.status.ExitRequested() {
			l.logger.Info("exit requested, listener stopping")
			return
		}
		if !l.status.MicOn() || l.status.Busy() {
			continue
		}

		l.runOnce(ctx)
	}
}

// runOnce captures one utterance and runs its cycle to completion before the
// poll resumes.
func (l *Listener) runOnce(ctx context.Context) {
	l.status.SetStatus(status.Listening)
	utterance, err := l.transcriber.Transcribe(ctx)
	if err != nil {
		l.logger.Warn("transcription failed", "error", err)
		l.status.SetStatus(status.Available)
		return
	}
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		l.status.SetStatus(status.Available)
		return
	}

	l.cycler.Cycle(ctx, utterance)
}

// CommandTranscriber shells out to a speech-to-text command that records one
// utterance and prints the transcript on stdout.
type CommandTranscriber struct {
	command string
	args    []string
}

// NewCommandTranscriber creates a CommandTranscriber.
func NewCommandTranscriber(command string, args ...string) *CommandTranscriber {
	return &CommandTranscriber{command: command, args: args}
}

func (t *CommandTranscriber) Transcribe(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, t.command, t.args...).Output()
	if err != nil {
		return "", fmt.Errorf("running %s: %w", t.command, err)
	}
	return strings.TrimSpace(string(out)), nil
}
