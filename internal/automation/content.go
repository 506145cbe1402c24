package automation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/auravoice/aura/internal/chat"
	"github.com/auravoice/aura/internal/llm"
)

const drafterSystemPrompt = `You are a content writer. You write professional letters, applications, emails, essays, notes, and code on request.
Write only the requested content, without commentary before or after it.`

// Drafter writes requested content (letters, emails, code) to a file via a
// model call.
type Drafter struct {
	model     chat.Chatter
	modelName string
	dir       string
	now       func() time.Time
}

// NewDrafter creates a Drafter that saves drafts under dir.
func NewDrafter(model chat.Chatter, modelName, dir string) *Drafter {
	return &Drafter{
		model:     model,
		modelName: modelName,
		dir:       dir,
		now:       time.Now,
	}
}

// Draft generates content for the topic and returns the path of the saved
// file.
func (d *Drafter) Draft(ctx context.Context, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", fmt.Errorf("empty topic")
	}

	text, err := d.model.Chat(ctx, d.modelName, []llm.Message{
		{Role: "system", Content: drafterSystemPrompt},
		{Role: "user", Content: topic},
	})
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	text = chat.NormalizeAnswer(text)

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating content directory: %w", err)
	}
	path := filepath.Join(d.dir, d.filename(topic))
	if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("saving content: %w", err)
	}
	return path, nil
}

// filename slugs the topic and stamps it so repeated requests never clobber
// an earlier draft.
func (d *Drafter) filename(topic string) string {
	slug := strings.Join(strings.Fields(strings.ToLower(topic)), "-")
	if len(slug) > 60 {
		slug = slug[:60]
	}
	return fmt.Sprintf("%s-%s.txt", slug, d.now().Format("20060102-150405"))
}
