package realtime

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/auravoice/aura/internal/llm"
	"github.com/auravoice/aura/internal/storage"
)

type mockSearcher struct {
	results []Result
	err     error
	query   string
}

func (m *mockSearcher) Search(ctx context.Context, query string) ([]Result, error) {
	m.query = query
	return m.results, m.err
}

type mockChatter struct {
	reply    string
	err      error
	messages []llm.Message
}

func (m *mockChatter) Chat(ctx context.Context, model string, messages []llm.Message) (string, error) {
	m.messages = messages
	return m.reply, m.err
}

type memTranscript struct {
	turns []storage.ChatMessage
}

func (m *memTranscript) AppendChatMessage(role, content string) error {
	m.turns = append(m.turns, storage.ChatMessage{Role: role, Content: content})
	return nil
}

func (m *memTranscript) RecentChatMessages(limit int) ([]storage.ChatMessage, error) {
	if len(m.turns) > limit {
		return m.turns[len(m.turns)-limit:], nil
	}
	return m.turns, nil
}

func TestAnswer_GroundsOnSearchResults(t *testing.T) {
	searcher := &mockSearcher{results: []Result{
		{Title: "Paris weather", Snippet: "Sunny, 24 degrees."},
	}}
	model := &mockChatter{reply: "It's sunny and 24 degrees in Paris."}
	e := New(searcher, model, "test-model", &memTranscript{}, "Aura", "Alex")

	got, err := e.Answer(context.Background(), "what is the weather in paris")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got != "It's sunny and 24 degrees in Paris." {
		t.Errorf("Answer = %q", got)
	}

	var block string
	for _, m := range model.messages {
		if strings.Contains(m.Content, "[start]") {
			block = m.Content
		}
	}
	if block == "" {
		t.Fatal("no search block in prompt")
	}
	if !strings.Contains(block, "Paris weather") || !strings.Contains(block, "Sunny, 24 degrees.") {
		t.Errorf("search block missing result content: %q", block)
	}
	if !strings.HasSuffix(block, "[end]") {
		t.Errorf("search block not terminated: %q", block)
	}
}

func TestAnswer_SearchFailureStillAnswers(t *testing.T) {
	searcher := &mockSearcher{err: errors.New("dns failure")}
	model := &mockChatter{reply: "best effort answer"}
	e := New(searcher, model, "test-model", &memTranscript{}, "", "")

	got, err := e.Answer(context.Background(), "latest news")
	if err != nil {
		t.Fatalf("Answer should tolerate search failure: %v", err)
	}
	if got != "best effort answer" {
		t.Errorf("Answer = %q", got)
	}
}

func TestAnswer_ModelFailureReturnsApology(t *testing.T) {
	searcher := &mockSearcher{}
	model := &mockChatter{err: errors.New("upstream down")}
	e := New(searcher, model, "test-model", &memTranscript{}, "", "")

	got, err := e.Answer(context.Background(), "latest news")
	if err == nil {
		t.Fatal("expected error")
	}
	if got == "" {
		t.Error("expected a speakable apology alongside the error")
	}
}

func TestAnswer_HistoryWindowIsFive(t *testing.T) {
	transcript := &memTranscript{}
	for i := 0; i < 12; i++ {
		transcript.AppendChatMessage("user", "old turn")
	}
	model := &mockChatter{reply: "ok"}
	e := New(&mockSearcher{}, model, "test-model", transcript, "", "")

	if _, err := e.Answer(context.Background(), "what changed"); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	// 3 system messages + 5 history + current query
	if len(model.messages) != 9 {
		t.Errorf("sent %d messages, want 9", len(model.messages))
	}
}

func TestSearchBlock_CapsSnippetAndBlock(t *testing.T) {
	long := strings.Repeat("x", 500)
	var results []Result
	for i := 0; i < 10; i++ {
		results = append(results, Result{Title: "t", Snippet: long})
	}

	block := searchBlock("query", results)

	if strings.Contains(block, strings.Repeat("x", snippetCap+1)) {
		t.Error("snippet not truncated")
	}
	// blockCap plus the trailing terminator line.
	if len([]rune(block)) > blockCap+len("\n[end]") {
		t.Errorf("block length = %d, want <= %d", len([]rune(block)), blockCap+len("\n[end]"))
	}
	if !strings.HasSuffix(block, "[end]") {
		t.Error("terminator lost after truncation")
	}
}
