// Package speech voices assistant replies. Long replies are cut down to
// their first sentences with a closer pointing at the chat screen, since
// nobody wants a paragraph read out loud.
package speech

import (
	"context"
	"fmt"
	"math/rand"
	"os/exec"
	"strings"
)

// Speaker voices one line of text, blocking until playback finishes.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

const (
	// longReplyChars is the length beyond which a reply is summarized for
	// voice output.
	longReplyChars = 250
	// longReplySentences is the sentence count beyond which a reply is
	// summarized for voice output.
	longReplySentences = 4
	// spokenSentences is how many leading sentences of a long reply get
	// voiced.
	spokenSentences = 2
)

// closers are appended to a shortened spoken reply.
var closers = []string{
	"The rest of the result has been printed to the chat screen, kindly check it out.",
	"The rest of the text is now on the chat screen, please check it.",
	"You can see the rest of the text on the chat screen.",
	"The remaining part of the text is now on the chat screen.",
	"You'll find more text on the chat screen.",
	"The rest of the answer is now on the chat screen.",
	"Please look at the chat screen, the rest of the answer is now on it.",
}

// SpokenForm returns what should actually be voiced for a reply: the full
// text for short replies, the leading sentences plus a closer for long ones.
func SpokenForm(text string) string {
	text = strings.TrimSpace(text)
	sentences := splitSentences(text)
	if len([]rune(text)) <= longReplyChars || len(sentences) <= longReplySentences {
		return text
	}

	head := strings.Join(sentences[:spokenSentences], " ")
	return head + " " + closers[rand.Intn(len(closers))]
}

func splitSentences(text string) []string {
	var sentences []string
	var sb strings.Builder
	for _, r := range text {
		sb.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(sb.String()); s != "" {
				sentences = append(sentences, s)
			}
			sb.Reset()
		}
	}
	if s := strings.TrimSpace(sb.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// CommandSpeaker voices text by shelling out to a TTS command that accepts
// the text as its final argument.
type CommandSpeaker struct {
	command string
	args    []string
}

// NewCommandSpeaker creates a CommandSpeaker. An empty command selects
// espeak-ng.
func NewCommandSpeaker(command string, args ...string) *CommandSpeaker {
	if command == "" {
		command = "espeak-ng"
	}
	return &CommandSpeaker{command: command, args: args}
}

func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	text = SpokenForm(text)
	if text == "" {
		return nil
	}
	argv := append(append([]string{}, s.args...), text)
	if err := exec.CommandContext(ctx, s.command, argv...).Run(); err != nil {
		return fmt.Errorf("running %s: %w", s.command, err)
	}
	return nil
}

// NullSpeaker discards everything. Used when voice output is disabled.
type NullSpeaker struct{}

func (NullSpeaker) Speak(ctx context.Context, text string) error { return nil }
