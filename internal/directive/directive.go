// Package directive defines the typed directive grammar spoken between the
// decision model and the router. Each classifier output token matches
// `category ( argument )` or `category argument`, where category is one of
// the fixed keywords below.
package directive

import (
	"regexp"
	"sort"
	"strings"
)

// Category identifies the kind of action a directive requests.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryExit
	CategoryGeneral
	CategoryRealtime
	CategoryOpen
	CategoryClose
	CategoryPlay
	CategoryGenerateImage
	CategorySystem
	CategoryContent
	CategoryGoogleSearch
	CategoryYouTubeSearch
)

// categoryKeywords maps each grammar keyword to its category. Multi-word
// keywords must match before their single-word prefixes, so lookup goes
// through Keywords(), which is sorted longest-first.
var categoryKeywords = map[string]Category{
	"exit":           CategoryExit,
	"general":        CategoryGeneral,
	"realtime":       CategoryRealtime,
	"open":           CategoryOpen,
	"close":          CategoryClose,
	"play":           CategoryPlay,
	"generate image": CategoryGenerateImage,
	"system":         CategorySystem,
	"content":        CategoryContent,
	"google search":  CategoryGoogleSearch,
	"youtube search": CategoryYouTubeSearch,
}

// exitPhrases are bare utterance tokens treated as exit requests even though
// they carry no category keyword.
var exitPhrases = map[string]bool{
	"exit":     true,
	"quit":     true,
	"goodbye":  true,
	"bye":      true,
	"shutdown": true,
}

var keywordsByLength []string

func init() {
	for k := range categoryKeywords {
		keywordsByLength = append(keywordsByLength, k)
	}
	sort.Slice(keywordsByLength, func(i, j int) bool {
		if len(keywordsByLength[i]) != len(keywordsByLength[j]) {
			return len(keywordsByLength[i]) > len(keywordsByLength[j])
		}
		return keywordsByLength[i] < keywordsByLength[j]
	})
}

// Keywords returns the category grammar keywords, longest first.
func Keywords() []string {
	out := make([]string, len(keywordsByLength))
	copy(out, keywordsByLength)
	return out
}

func (c Category) String() string {
	switch c {
	case CategoryExit:
		return "exit"
	case CategoryGeneral:
		return "general"
	case CategoryRealtime:
		return "realtime"
	case CategoryOpen:
		return "open"
	case CategoryClose:
		return "close"
	case CategoryPlay:
		return "play"
	case CategoryGenerateImage:
		return "generate image"
	case CategorySystem:
		return "system"
	case CategoryContent:
		return "content"
	case CategoryGoogleSearch:
		return "google search"
	case CategoryYouTubeSearch:
		return "youtube search"
	default:
		return "unknown"
	}
}

// IsAutomation reports whether the category is handled by the automation
// adapter (open, close, play, system, content, google search, youtube search).
func (c Category) IsAutomation() bool {
	switch c {
	case CategoryOpen, CategoryClose, CategoryPlay, CategorySystem,
		CategoryContent, CategoryGoogleSearch, CategoryYouTubeSearch:
		return true
	default:
		return false
	}
}

// Directive is one parsed, typed instruction extracted from a classifier
// output token. Raw preserves the original token text.
type Directive struct {
	Category Category
	Argument string
	Raw      string
}

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	automationJunk = regexp.MustCompile(`[()\s]+`)
)

// Parse extracts the category keyword as the longest matching prefix of raw
// and the argument as the remainder with enclosing parentheses and
// surrounding whitespace stripped. Parsing is lenient: unbalanced or missing
// parentheses are tolerated and the trimmed remainder is used as-is.
// Arguments are lowercased and inner whitespace is collapsed.
//
// Bare exit phrases (exit, quit, goodbye, bye, shutdown) parse as exit
// directives. For any other token with no recognized keyword prefix, Parse
// returns false and the token is discarded.
func Parse(raw string) (Directive, bool) {
	text := strings.TrimSpace(raw)
	lower := strings.ToLower(text)

	if exitPhrases[lower] {
		return Directive{Category: CategoryExit, Raw: raw}, true
	}

	for _, kw := range keywordsByLength {
		if lower != kw && !strings.HasPrefix(lower, kw+" ") && !strings.HasPrefix(lower, kw+"(") {
			continue
		}
		cat := categoryKeywords[kw]
		arg := normalizeArgument(lower[len(kw):], cat)
		return Directive{Category: cat, Argument: arg, Raw: raw}, true
	}

	return Directive{}, false
}

func normalizeArgument(remainder string, cat Category) string {
	arg := strings.TrimSpace(remainder)
	arg = strings.Trim(arg, "()")
	arg = strings.TrimSpace(arg)

	switch cat {
	case CategoryOpen, CategoryClose, CategoryPlay:
		// Residual parentheses and space runs collapse to single spaces, and
		// sentence-end periods are stripped. Interior periods survive so
		// dotted domain names stay routable as URLs.
		arg = strings.TrimSpace(automationJunk.ReplaceAllString(arg, " "))
		arg = strings.TrimRight(arg, ".")
	default:
		arg = whitespaceRun.ReplaceAllString(arg, " ")
	}
	return arg
}
