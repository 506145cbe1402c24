// Package classify turns a free-text utterance into an ordered list of raw
// directive strings by way of a remote decision model. All failures degrade
// to a general-chat fallback directive; Classify never returns an error and
// never returns an empty list.
package classify

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/auravoice/aura/internal/directive"
)

// DefaultMaxRetries bounds re-classification when the model asks for
// clarification instead of classifying.
const DefaultMaxRetries = 3

const (
	fallbackUncategorized = "general (uncategorized query)"
	fallbackError         = "general (error processing query)"

	// clarificationPlaceholder appears in the model output when it echoes the
	// grammar instead of filling in the query.
	clarificationPlaceholder = "(query)"
)

const preamble = `You are a very accurate Decision-Making Model, which decides what kind of a query is given to you.
You will decide whether a query is a 'general' query, a 'realtime' query, or is asking to perform any task or automation like 'open facebook'.
*** Do not answer any query, just decide what kind of query is given to you. ***
-> Respond with 'general ( query )' if a query can be answered by a llm model (conversational ai chatbot) and doesn't require any up to date data.
-> Respond with 'realtime ( query )' if a query can not be answered by a llm model (because they don't have realtime data) and requires up to date info.
-> Respond with 'open (application name or website name)' if a query is asking to open any application like 'open facebook', 'open telegram'.
-> Respond with 'close (application name)' if a query is asking to close any application like 'close notepad', 'close facebook'.
-> Respond with 'play (song name)' if a query is asking to play any song like 'play let her go'.
-> Respond with 'generate image (image prompt)' if a query is requesting to generate an image.
-> Respond with 'system (task name)' if a query is asking to mute, unmute, volume up, volume down.
-> Respond with 'content (topic)' if a query is asking to write content like applications, codes, emails.
-> Respond with 'google search (topic)' if a query is asking to search a specific topic on Google.
-> Respond with 'youtube search (topic)' if a query is asking to search a topic on YouTube.
-> Respond with 'exit' if the user says goodbye or wants to end the conversation.
Separate multiple decisions with commas, like 'open chrome, general tell me about mahatma gandhi'.`

// Completer is the remote decision model boundary. The implementation
// streams the response and returns the concatenated text.
type Completer interface {
	Complete(ctx context.Context, model, system, prompt string) (string, error)
}

// Classifier sends utterances to a decision model and parses the response
// into directive strings.
type Classifier struct {
	model      Completer
	modelName  string
	apps       []string
	maxRetries int
	logger     *slog.Logger
}

// New creates a Classifier using the given completion client and model name.
// apps is the known-application list for the open shortcut; pass nil to use
// DefaultApplications. maxRetries <= 0 selects DefaultMaxRetries.
func New(model Completer, modelName string, apps []string, maxRetries int) *Classifier {
	if apps == nil {
		apps = DefaultApplications
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Classifier{
		model:      model,
		modelName:  modelName,
		apps:       apps,
		maxRetries: maxRetries,
		logger:     slog.Default(),
	}
}

// tokenSeparator splits a model response on commas or runs of two or more
// whitespace characters. Single spaces never split, so multi-word arguments
// survive intact.
var tokenSeparator = regexp.MustCompile(`,|\s{2,}`)

// Classify returns the ordered directive strings for one utterance.
//
// Utterances starting with "open " bypass the remote call entirely: the most
// common command gets no round-trip latency and no misclassification risk.
// Otherwise the model is invoked up to maxRetries times; each response is
// tokenized and filtered to known category prefixes, and a response still
// containing the clarification placeholder triggers another attempt. When the
// retries are spent, or the model call fails, a general-chat fallback is
// returned so the caller always has something to route.
func (c *Classifier) Classify(ctx context.Context, utterance string) []string {
	if rest, ok := openShortcut(utterance); ok {
		return []string{"open (" + c.matchApplication(rest) + ")"}
	}

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		response, err := c.model.Complete(ctx, c.modelName, preamble, utterance)
		if err != nil {
			c.logger.Warn("decision model call failed", "error", err)
			return []string{fallbackError}
		}

		kept := filterKnown(splitResponse(response))

		if containsPlaceholder(kept) {
			c.logger.Debug("model asked for clarification, retrying", "attempt", attempt+1)
			continue
		}
		if len(kept) == 0 {
			return []string{fallbackUncategorized}
		}
		return kept
	}

	return []string{fallbackUncategorized}
}

func openShortcut(utterance string) (string, bool) {
	trimmed := strings.TrimSpace(utterance)
	if len(trimmed) <= len("open ") || !strings.EqualFold(trimmed[:len("open ")], "open ") {
		return "", false
	}
	return strings.TrimSpace(trimmed[len("open "):]), true
}

func splitResponse(response string) []string {
	var tokens []string
	for _, tok := range tokenSeparator.Split(response, -1) {
		if t := strings.TrimSpace(tok); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// filterKnown keeps only tokens whose prefix matches a category keyword.
// Everything else is model chatter and is dropped silently.
func filterKnown(tokens []string) []string {
	keywords := directive.Keywords()
	var kept []string
	for _, tok := range tokens {
		lower := strings.ToLower(tok)
		for _, kw := range keywords {
			if strings.HasPrefix(lower, kw) {
				kept = append(kept, tok)
				break
			}
		}
	}
	return kept
}

func containsPlaceholder(tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(tok, clarificationPlaceholder) {
			return true
		}
	}
	return false
}
