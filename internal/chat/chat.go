// Package chat answers general conversational queries with a persona-framed
// model call over the persistent transcript.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/auravoice/aura/internal/llm"
	"github.com/auravoice/aura/internal/storage"
)

// HistoryWindow is how many transcript turns accompany each model call.
const HistoryWindow = 20

// Apology is the speakable reply returned when the model call fails.
const Apology = "Sorry, I'm having trouble answering right now. Please try again."

// Chatter is the conversational model boundary.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []llm.Message) (string, error)
}

// Transcript is the persistent conversation log boundary.
type Transcript interface {
	AppendChatMessage(role, content string) error
	RecentChatMessages(limit int) ([]storage.ChatMessage, error)
}

// Engine produces assistant replies for general queries.
type Engine struct {
	model         Chatter
	modelName     string
	transcript    Transcript
	assistantName string
	userName      string
	now           func() time.Time
	logger        *slog.Logger
}

// New creates an Engine. assistantName and userName personalize the system
// prompt; empty values get sensible defaults.
func New(model Chatter, modelName string, transcript Transcript, assistantName, userName string) *Engine {
	if assistantName == "" {
		assistantName = "Aura"
	}
	if userName == "" {
		userName = "there"
	}
	return &Engine{
		model:         model,
		modelName:     modelName,
		transcript:    transcript,
		assistantName: assistantName,
		userName:      userName,
		now:           time.Now,
		logger:        slog.Default(),
	}
}

// questionLeads mark a query that should end with a question mark after
// normalization.
var questionLeads = []string{
	"how", "what", "who", "where", "when", "why", "which",
	"whose", "whom", "can you", "what's", "where's", "how's",
}

// NormalizeQuery tidies a transcribed utterance: trims, capitalizes the first
// letter, and terminates it with "?" or "." depending on whether it reads as
// a question.
func NormalizeQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}
	query = strings.TrimRight(query, ".?!")

	terminator := "."
	lower := strings.ToLower(query)
	for _, lead := range questionLeads {
		if strings.HasPrefix(lower, lead+" ") || lower == lead {
			terminator = "?"
			break
		}
	}

	runes := []rune(query)
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return string(runes) + terminator
}

// NormalizeAnswer strips blank lines and trailing whitespace from a model
// reply.
func NormalizeAnswer(answer string) string {
	var kept []string
	for _, line := range strings.Split(answer, "\n") {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, strings.TrimRight(line, " \t"))
		}
	}
	return strings.Join(kept, "\n")
}

// Respond answers one general query. The query and the reply are both
// persisted to the transcript. Model failures return an apology reply along
// with the error so the caller can still speak something.
func (e *Engine) Respond(ctx context.Context, query string) (string, error) {
	query = NormalizeQuery(query)

	messages := []llm.Message{
		{Role: "system", Content: e.systemPrompt()},
		{Role: "system", Content: e.clockPrompt()},
	}
	history, err := e.transcript.RecentChatMessages(HistoryWindow)
	if err != nil {
		e.logger.Warn("loading transcript failed", "error", err)
	}
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: query})

	reply, err := e.model.Chat(ctx, e.modelName, messages)
	if err != nil {
		return Apology, fmt.Errorf("chat completion: %w", err)
	}
	reply = NormalizeAnswer(reply)

	if err := e.transcript.AppendChatMessage("user", query); err != nil {
		e.logger.Warn("persisting user turn failed", "error", err)
	}
	if err := e.transcript.AppendChatMessage("assistant", reply); err != nil {
		e.logger.Warn("persisting assistant turn failed", "error", err)
	}

	return reply, nil
}

func (e *Engine) systemPrompt() string {
	return fmt.Sprintf(`Hello, I am %s. You are a very accurate and advanced AI assistant named %s which has real-time up-to-date information from the internet.
*** Do not tell time until I ask, do not talk too much, just answer the question. ***
*** Reply in only English, even if the question is in another language. ***
*** Do not provide notes in the output, just answer the question and never mention your training data. ***`, e.userName, e.assistantName)
}

// clockPrompt feeds the current wall clock to the model, the one piece of
// realtime data every query is allowed to use.
func (e *Engine) clockPrompt() string {
	t := e.now()
	return fmt.Sprintf("Please use this real-time information if needed:\nDay: %s\nDate: %02d\nMonth: %s\nYear: %d\nTime: %02d hours, %02d minutes, %02d seconds.",
		t.Weekday(), t.Day(), t.Month(), t.Year(), t.Hour(), t.Minute(), t.Second())
}
