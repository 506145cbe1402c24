// Package automation executes desktop command directives: launching and
// closing applications, opening web searches, media playback, system volume
// tasks, and content drafting.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/auravoice/aura/internal/directive"
)

// CommandRunner launches desktop processes. Implementations must not block
// on the launched process.
type CommandRunner interface {
	Start(ctx context.Context, name string, args ...string) error
}

// Browser opens URLs in the user's default browser.
type Browser interface {
	OpenURL(ctx context.Context, rawURL string) error
}

// appCommands maps spoken application names to launch commands where the
// binary name differs from the spoken name.
var appCommands = map[string]string{
	"chrome":     "google-chrome",
	"vscode":     "code",
	"files":      "nautilus",
	"settings":   "gnome-control-center",
	"terminal":   "gnome-terminal",
	"calculator": "gnome-calculator",
	"notepad":    "gedit",
}

// browserApps are never closed by the close directive: killing the browser
// would take down whatever the user was doing there.
var browserApps = map[string]bool{
	"chrome":  true,
	"firefox": true,
}

// systemTasks maps spoken volume tasks to amixer invocations.
var systemTasks = map[string][]string{
	"mute":        {"amixer", "set", "Master", "mute"},
	"unmute":      {"amixer", "set", "Master", "unmute"},
	"volume up":   {"amixer", "set", "Master", "5%+"},
	"volume down": {"amixer", "set", "Master", "5%-"},
}

// Automator executes automation directives and reports a short spoken
// confirmation for each.
type Automator struct {
	runner  CommandRunner
	browser Browser
	drafter *Drafter
	logger  *slog.Logger
}

// New creates an Automator. drafter may be nil, in which case content
// directives report an error.
func New(runner CommandRunner, browser Browser, drafter *Drafter) *Automator {
	return &Automator{
		runner:  runner,
		browser: browser,
		drafter: drafter,
		logger:  slog.Default(),
	}
}

// Execute runs one automation directive and returns the confirmation to
// speak.
func (a *Automator) Execute(ctx context.Context, d directive.Directive) (string, error) {
	switch d.Category {
	case directive.CategoryOpen:
		return a.open(ctx, d.Argument)
	case directive.CategoryClose:
		return a.close(ctx, d.Argument)
	case directive.CategoryPlay:
		return a.play(ctx, d.Argument)
	case directive.CategorySystem:
		return a.system(ctx, d.Argument)
	case directive.CategoryContent:
		return a.content(ctx, d.Argument)
	case directive.CategoryGoogleSearch:
		return a.googleSearch(ctx, d.Argument)
	case directive.CategoryYouTubeSearch:
		return a.youtubeSearch(ctx, d.Argument)
	default:
		return "", fmt.Errorf("not an automation directive: %s", d.Category)
	}
}

// LooksLikeURL reports whether a spoken open target names a website rather
// than an application.
func LooksLikeURL(target string) bool {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return true
	}
	if strings.ContainsAny(target, " \t") {
		return false
	}
	host, _, _ := strings.Cut(target, "/")
	return strings.Contains(host, ".")
}

func (a *Automator) open(ctx context.Context, target string) (string, error) {
	if target == "" {
		return "", fmt.Errorf("open: empty target")
	}

	if LooksLikeURL(target) {
		addr := target
		if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
			addr = "https://" + addr
		}
		if err := a.browser.OpenURL(ctx, addr); err != nil {
			return "", fmt.Errorf("opening %s: %w", target, err)
		}
		return fmt.Sprintf("Opening %s.", target), nil
	}

	command := target
	if mapped, ok := appCommands[target]; ok {
		command = mapped
	}
	if err := a.runner.Start(ctx, command); err != nil {
		// Unknown application: fall back to a web search so the user still
		// gets something on screen.
		a.logger.Warn("launch failed, falling back to search", "target", target, "error", err)
		return a.googleSearch(ctx, target)
	}
	return fmt.Sprintf("Opening %s.", target), nil
}

func (a *Automator) close(ctx context.Context, target string) (string, error) {
	if target == "" {
		return "", fmt.Errorf("close: empty target")
	}
	if browserApps[target] {
		return fmt.Sprintf("I'd rather not close %s, you might lose open tabs.", target), nil
	}

	command := target
	if mapped, ok := appCommands[target]; ok {
		command = mapped
	}
	if err := a.runner.Start(ctx, "pkill", "-f", command); err != nil {
		return "", fmt.Errorf("closing %s: %w", target, err)
	}
	return fmt.Sprintf("Closing %s.", target), nil
}

func (a *Automator) play(ctx context.Context, song string) (string, error) {
	if song == "" {
		return "", fmt.Errorf("play: empty song")
	}
	addr := "https://www.youtube.com/results?search_query=" + url.QueryEscape(song)
	if err := a.browser.OpenURL(ctx, addr); err != nil {
		return "", fmt.Errorf("playing %s: %w", song, err)
	}
	return fmt.Sprintf("Playing %s on YouTube.", song), nil
}

func (a *Automator) system(ctx context.Context, task string) (string, error) {
	argv, ok := systemTasks[task]
	if !ok {
		return "", fmt.Errorf("unknown system task %q", task)
	}
	if err := a.runner.Start(ctx, argv[0], argv[1:]...); err != nil {
		return "", fmt.Errorf("system task %s: %w", task, err)
	}
	return "Done.", nil
}

func (a *Automator) content(ctx context.Context, topic string) (string, error) {
	if a.drafter == nil {
		return "", fmt.Errorf("content drafting is not configured")
	}
	path, err := a.drafter.Draft(ctx, topic)
	if err != nil {
		return "", fmt.Errorf("drafting content: %w", err)
	}
	if err := a.runner.Start(ctx, "xdg-open", path); err != nil {
		a.logger.Warn("opening drafted content failed", "path", path, "error", err)
	}
	return "The content is ready, I've opened it for you.", nil
}

func (a *Automator) googleSearch(ctx context.Context, topic string) (string, error) {
	if topic == "" {
		return "", fmt.Errorf("google search: empty topic")
	}
	addr := "https://www.google.com/search?q=" + url.QueryEscape(topic)
	if err := a.browser.OpenURL(ctx, addr); err != nil {
		return "", fmt.Errorf("searching google for %s: %w", topic, err)
	}
	return fmt.Sprintf("Searching Google for %s.", topic), nil
}

func (a *Automator) youtubeSearch(ctx context.Context, topic string) (string, error) {
	if topic == "" {
		return "", fmt.Errorf("youtube search: empty topic")
	}
	addr := "https://www.youtube.com/results?search_query=" + url.QueryEscape(topic)
	if err := a.browser.OpenURL(ctx, addr); err != nil {
		return "", fmt.Errorf("searching youtube for %s: %w", topic, err)
	}
	return fmt.Sprintf("Searching YouTube for %s.", topic), nil
}
