package speech

import (
	"strings"
	"testing"
)

func TestSpokenForm_ShortReplyUnchanged(t *testing.T) {
	in := "It's sunny and 24 degrees."
	if got := SpokenForm(in); got != in {
		t.Errorf("SpokenForm = %q, want unchanged", got)
	}
}

func TestSpokenForm_LongReplyTruncatedWithCloser(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		sb.WriteString("This is a fairly long explanatory sentence about the topic. ")
	}
	got := SpokenForm(sb.String())

	if len(got) >= sb.Len() {
		t.Errorf("long reply not shortened: %d chars", len(got))
	}
	if !strings.Contains(got, "chat screen") {
		t.Errorf("closer missing: %q", got)
	}
	if !strings.HasPrefix(got, "This is a fairly long explanatory sentence about the topic.") {
		t.Errorf("leading sentences lost: %q", got)
	}
}

func TestSpokenForm_FewLongSentencesKeptWhole(t *testing.T) {
	// Over the char limit but only three sentences: speak it all.
	in := strings.Repeat("word ", 60) + "one. " + strings.Repeat("word ", 10) + "two. three."
	got := SpokenForm(in)
	if strings.Contains(got, "chat screen") {
		t.Errorf("short sentence count should not be truncated: %q", got)
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("First one. Second one! Third one? Trailing fragment")
	want := []string{"First one.", "Second one!", "Third one?", "Trailing fragment"}
	if len(got) != len(want) {
		t.Fatalf("got %d sentences, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}
}
