package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/auravoice/aura/internal/chat"
	"github.com/auravoice/aura/internal/llm"
)

// HistoryWindow is how many transcript turns accompany a realtime call.
// Smaller than the chat window: the search block already eats prompt budget.
const HistoryWindow = 5

const (
	// snippetCap truncates each search snippet before it enters the prompt.
	snippetCap = 150
	// blockCap truncates the whole assembled search block.
	blockCap = 1000
)

const apology = "Sorry, I couldn't look that up right now. Please try again."

// Engine answers realtime queries by searching the web and grounding a model
// call on the results.
type Engine struct {
	searcher      Searcher
	model         chat.Chatter
	modelName     string
	transcript    chat.Transcript
	assistantName string
	userName      string
	now           func() time.Time
	logger        *slog.Logger
}

// New creates an Engine over the given search and model clients.
func New(searcher Searcher, model chat.Chatter, modelName string, transcript chat.Transcript, assistantName, userName string) *Engine {
	if assistantName == "" {
		assistantName = "Aura"
	}
	if userName == "" {
		userName = "there"
	}
	return &Engine{
		searcher:      searcher,
		model:         model,
		modelName:     modelName,
		transcript:    transcript,
		assistantName: assistantName,
		userName:      userName,
		now:           time.Now,
		logger:        slog.Default(),
	}
}

// Answer resolves one realtime query. Search failure is not fatal: the model
// still gets asked, just without grounding. Model failure returns a speakable
// apology along with the error.
func (e *Engine) Answer(ctx context.Context, query string) (string, error) {
	query = chat.NormalizeQuery(query)

	results, err := e.searcher.Search(ctx, query)
	if err != nil {
		e.logger.Warn("web search failed, answering ungrounded", "error", err)
		results = nil
	}

	messages := []llm.Message{
		{Role: "system", Content: e.systemPrompt()},
		{Role: "system", Content: searchBlock(query, results)},
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
		return apology, fmt.Errorf("realtime completion: %w", err)
	}
	reply = chat.NormalizeAnswer(reply)

	if err := e.transcript.AppendChatMessage("user", query); err != nil {
		e.logger.Warn("persisting user turn failed", "error", err)
	}
	if err := e.transcript.AppendChatMessage("assistant", reply); err != nil {
		e.logger.Warn("persisting assistant turn failed", "error", err)
	}

	return reply, nil
}

// searchBlock renders search results as a bracketed context block the model
// is told to answer from. Snippets are truncated individually and the block
// as a whole so a verbose result page cannot crowd out the conversation.
func searchBlock(query string, results []Result) string {
	var sb strings.Builder
	sb.WriteString("[start]\n")
	sb.WriteString(fmt.Sprintf("The search results for '%s' are:\n", query))
	for _, r := range results {
		snippet := truncate(r.Snippet, snippetCap)
		if r.Title != "" {
			sb.WriteString(fmt.Sprintf("Title: %s\nDescription: %s\n\n", r.Title, snippet))
		} else {
			sb.WriteString(fmt.Sprintf("Description: %s\n\n", snippet))
		}
	}
	block := truncate(sb.String(), blockCap)
	return block + "\n[end]"
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func (e *Engine) systemPrompt() string {
	return fmt.Sprintf(`Hello, I am %s. You are a very accurate and advanced AI assistant named %s which has real-time up-to-date information from the internet.
*** Provide answers in a professional way, with proper grammar and punctuation. ***
*** Answer the question using the provided search results. ***`, e.userName, e.assistantName)
}

func (e *Engine) clockPrompt() string {
	t := e.now()
	return fmt.Sprintf("Use this real-time information if needed:\nDay: %s\nDate: %02d\nMonth: %s\nYear: %d\nTime: %02d hours, %02d minutes, %02d seconds.",
		t.Weekday(), t.Day(), t.Month(), t.Year(), t.Hour(), t.Minute(), t.Second())
}
