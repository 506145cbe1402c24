// Package assistant runs the full utterance cycle: classification, directive
// parsing, routing, and the interaction record that remembers what happened.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/auravoice/aura/internal/directive"
	"github.com/auravoice/aura/internal/router"
	"github.com/auravoice/aura/internal/status"
	"github.com/auravoice/aura/internal/storage"
)

// Classifier produces raw directive strings for an utterance.
type Classifier interface {
	Classify(ctx context.Context, utterance string) []string
}

// InteractionStore persists one record per completed cycle.
type InteractionStore interface {
	SaveInteraction(i storage.Interaction) error
}

// Assistant wires the classifier and the router into one cycle entry point.
type Assistant struct {
	classifier Classifier
	router     *router.Router
	status     *status.Store
	store      InteractionStore
	logger     *slog.Logger
}

// New creates an Assistant. store may be nil to skip interaction records.
func New(classifier Classifier, r *router.Router, st *status.Store, store InteractionStore) *Assistant {
	return &Assistant{
		classifier: classifier,
		router:     r,
		status:     st,
		store:      store,
		logger:     slog.Default(),
	}
}

// Cycle processes one utterance end to end and returns the routed outcome.
// It never returns an error: every failure mode downstream resolves to a
// spoken reply.
func (a *Assistant) Cycle(ctx context.Context, utterance string) router.Outcome {
	a.status.SetStatus(status.Thinking)

	raws := a.classifier.Classify(ctx, utterance)

	var directives []directive.Directive
	for _, raw := range raws {
		if d, ok := directive.Parse(raw); ok {
			directives = append(directives, d)
		} else {
			a.logger.Debug("discarding unparseable directive", "raw", raw)
		}
	}

	outcome := a.router.Route(ctx, directives, utterance)
	a.record(utterance, raws, outcome)
	return outcome
}

func (a *Assistant) record(utterance string, raws []string, outcome router.Outcome) {
	if a.store == nil {
		return
	}
	encoded, err := json.Marshal(raws)
	if err != nil {
		encoded = []byte("[]")
	}
	rec := storage.Interaction{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Utterance:  utterance,
		Directives: string(encoded),
		Category:   outcome.Handler,
		Response:   outcome.Response,
		Status:     "completed",
	}
	if outcome.Exited {
		rec.Status = "exit"
	}
	if err := a.store.SaveInteraction(rec); err != nil {
		a.logger.Warn("saving interaction failed", "error", err)
	}
}

// ImageNotifier surfaces finished image sets on the display and out loud.
// It satisfies the image worker's notification boundary.
type ImageNotifier struct {
	status  *status.Store
	speaker router.Speaker
	logger  *slog.Logger
}

// NewImageNotifier creates an ImageNotifier. speaker may be nil.
func NewImageNotifier(st *status.Store, speaker router.Speaker) *ImageNotifier {
	return &ImageNotifier{status: st, speaker: speaker, logger: slog.Default()}
}

func (n *ImageNotifier) ImagesReady(prompt string, paths []string) {
	line := fmt.Sprintf("Your images of %s are ready, %d variants saved.", prompt, len(paths))
	n.status.ShowText(line)
	if n.speaker != nil {
		if err := n.speaker.Speak(context.Background(), line); err != nil {
			n.logger.Warn("speech output failed", "error", err)
		}
	}
}
