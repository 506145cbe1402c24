// Package api exposes the assistant over HTTP: the polled status channel for
// external renderers, mic control, a one-shot ask endpoint, and read access
// to the transcript and image jobs.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/auravoice/aura/internal/router"
	"github.com/auravoice/aura/internal/status"
	"github.com/auravoice/aura/internal/storage"
)

const maxAskBodySize = 64 << 10 // 64KB

// AskHandler runs one utterance cycle on behalf of the ask endpoint.
type AskHandler interface {
	Cycle(ctx context.Context, utterance string) router.Outcome
}

// Deps holds the API server's dependencies.
type Deps struct {
	Status    *status.Store
	Store     *storage.Store
	Assistant AskHandler
	Token     string // optional; empty disables auth
}

// NewHandler builds the HTTP route tree.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}
		r.Get("/status", handleStatus(deps))
		r.Post("/mic", handleMic(deps))
		r.Post("/ask", handleAsk(deps))
		r.Get("/history", handleHistory(deps))
		r.Get("/interactions", handleInteractions(deps))
		r.Get("/images", handleImages(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleStatus(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Status.Snapshot())
	}
}

func handleMic(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			On bool `json:"on"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		deps.Status.SetMic(req.On)
		writeJSON(w, http.StatusOK, map[string]bool{"mic": req.On})
	}
}

func handleAsk(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxAskBodySize)
		defer r.Body.Close()

		var req struct {
			Utterance string `json:"utterance"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Utterance == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "utterance is required")
			return
		}
		if deps.Status.Busy() {
			httpError(w, http.StatusConflict, "busy_error", "a cycle is already in progress")
			return
		}

		outcome := deps.Assistant.Cycle(r.Context(), req.Utterance)
		writeJSON(w, http.StatusOK, map[string]any{
			"handler":  outcome.Handler,
			"response": outcome.Response,
			"exited":   outcome.Exited,
		})
	}
}

func handleHistory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryLimit(r, 50)
		messages, err := deps.Store.RecentChatMessages(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading history: %v", err)
			return
		}

		type message struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			CreatedAt string `json:"created_at"`
		}
		out := make([]message, len(messages))
		for i, m := range messages {
			out[i] = message{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt.Format("2006-01-02T15:04:05Z07:00")}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleInteractions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryLimit(r, 20)
		interactions, err := deps.Store.GetRecentInteractions(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading interactions: %v", err)
			return
		}

		type record struct {
			ID        string `json:"id"`
			CreatedAt string `json:"created_at"`
			Utterance string `json:"utterance"`
			Category  string `json:"category"`
			Response  string `json:"response"`
			Status    string `json:"status"`
		}
		out := make([]record, len(interactions))
		for i, ix := range interactions {
			out[i] = record{
				ID:        ix.ID,
				CreatedAt: ix.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
				Utterance: ix.Utterance,
				Category:  ix.Category,
				Response:  ix.Response,
				Status:    ix.Status,
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleImages(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryLimit(r, 20)
		jobs, err := deps.Store.RecentJobs(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading image jobs: %v", err)
			return
		}

		type job struct {
			ID        string `json:"id"`
			Status    string `json:"status"`
			Payload   string `json:"payload"`
			Attempts  int    `json:"attempts"`
			LastError string `json:"last_error,omitempty"`
		}
		var out []job
		for _, j := range jobs {
			if j.Type != "image_generation" {
				continue
			}
			out = append(out, job{
				ID:        j.ID,
				Status:    j.Status,
				Payload:   j.PayloadJSON,
				Attempts:  j.Attempts,
				LastError: j.LastError,
			})
		}
		if out == nil {
			out = []job{}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > 500 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
