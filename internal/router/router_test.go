package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/auravoice/aura/internal/chat"
	"github.com/auravoice/aura/internal/directive"
	"github.com/auravoice/aura/internal/status"
)

type mockGeneral struct {
	reply   string
	err     error
	queries []string
}

func (m *mockGeneral) Respond(ctx context.Context, query string) (string, error) {
	m.queries = append(m.queries, query)
	return m.reply, m.err
}

type mockRealtime struct {
	reply   string
	err     error
	queries []string
}

func (m *mockRealtime) Answer(ctx context.Context, query string) (string, error) {
	m.queries = append(m.queries, query)
	return m.reply, m.err
}

type mockAutomation struct {
	spoken     string
	err        error
	directives []directive.Directive
}

func (m *mockAutomation) Execute(ctx context.Context, d directive.Directive) (string, error) {
	m.directives = append(m.directives, d)
	return m.spoken, m.err
}

type mockBrowser struct {
	urls []string
	err  error
}

func (m *mockBrowser) OpenURL(ctx context.Context, rawURL string) error {
	m.urls = append(m.urls, rawURL)
	return m.err
}

type mockImages struct {
	prompts []string
	err     error
}

func (m *mockImages) RequestImages(prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return "job-1", m.err
}

type mockSpeaker struct {
	lines []string
}

func (m *mockSpeaker) Speak(ctx context.Context, text string) error {
	m.lines = append(m.lines, text)
	return nil
}

type mockTranscript struct {
	turns []string
}

func (m *mockTranscript) AppendChatMessage(role, content string) error {
	m.turns = append(m.turns, role+": "+content)
	return nil
}

type fixture struct {
	router     *Router
	status     *status.Store
	general    *mockGeneral
	realtime   *mockRealtime
	automation *mockAutomation
	browser    *mockBrowser
	images     *mockImages
	speaker    *mockSpeaker
	transcript *mockTranscript
	exited     bool
}

func newFixture() *fixture {
	f := &fixture{
		status:     status.NewStore(),
		general:    &mockGeneral{reply: "general reply"},
		realtime:   &mockRealtime{reply: "realtime reply"},
		automation: &mockAutomation{spoken: "Done."},
		browser:    &mockBrowser{},
		images:     &mockImages{},
		speaker:    &mockSpeaker{},
		transcript: &mockTranscript{},
	}
	f.router = New(f.status, f.general, f.realtime, f.automation, f.browser, f.images, f.speaker, f.transcript, func() { f.exited = true })
	return f
}

func parse(t *testing.T, raws ...string) []directive.Directive {
	t.Helper()
	var ds []directive.Directive
	for _, raw := range raws {
		d, ok := directive.Parse(raw)
		if !ok {
			t.Fatalf("Parse(%q) failed", raw)
		}
		ds = append(ds, d)
	}
	return ds
}

func TestRoute_ExitWinsOverEverything(t *testing.T) {
	f := newFixture()

	out := f.router.Route(context.Background(), parse(t, "general (how are you)", "exit"), "how are you, goodbye")
	if !out.Exited {
		t.Fatal("outcome not marked exited")
	}
	if !f.exited {
		t.Error("exit callback not invoked")
	}
	if len(f.general.queries) != 0 {
		t.Errorf("general handler invoked: %v", f.general.queries)
	}
	if got := f.status.Status(); got != status.ExitRequested {
		t.Errorf("status = %q, want %q", got, status.ExitRequested)
	}
}

func TestRoute_AutomationFirstMatchOnly(t *testing.T) {
	f := newFixture()

	f.router.Route(context.Background(), parse(t, "open (chrome)", "open (notepad)"), "open chrome and notepad")
	if len(f.automation.directives) != 1 {
		t.Fatalf("automation invoked %d times, want 1", len(f.automation.directives))
	}
	if got := f.automation.directives[0].Argument; got != "chrome" {
		t.Errorf("argument = %q, want chrome", got)
	}
}

func TestRoute_RealtimeMergesWithAnd(t *testing.T) {
	f := newFixture()

	f.router.Route(context.Background(), parse(t, "realtime (weather in paris)", "realtime (time in tokyo)"), "")
	if len(f.realtime.queries) != 1 {
		t.Fatalf("realtime invoked %d times, want 1", len(f.realtime.queries))
	}
	if got := f.realtime.queries[0]; got != "weather in paris and time in tokyo" {
		t.Errorf("merged query = %q", got)
	}
}

func TestRoute_GeneralMergesWithSpace(t *testing.T) {
	f := newFixture()

	f.router.Route(context.Background(), parse(t, "general (hello)", "general (who are you)"), "")
	if len(f.general.queries) != 1 {
		t.Fatalf("general invoked %d times, want 1", len(f.general.queries))
	}
	if got := f.general.queries[0]; got != "hello who are you" {
		t.Errorf("merged query = %q", got)
	}
}

func TestRoute_EmptyListFallsBackToUtterance(t *testing.T) {
	f := newFixture()

	f.router.Route(context.Background(), nil, "mumble mumble")
	if len(f.general.queries) != 1 || f.general.queries[0] != "mumble mumble" {
		t.Errorf("general queries = %v, want original utterance", f.general.queries)
	}
}

func TestRoute_URLOpensBrowserDirectly(t *testing.T) {
	f := newFixture()

	f.router.Route(context.Background(), parse(t, "open (https://openai.com)"), "")
	f.router.Route(context.Background(), parse(t, "open (google.com)"), "")

	if len(f.automation.directives) != 0 {
		t.Errorf("automation adapter invoked for URLs: %v", f.automation.directives)
	}
	if len(f.browser.urls) != 2 {
		t.Fatalf("browser opened %d urls, want 2", len(f.browser.urls))
	}
	if f.browser.urls[0] != "https://openai.com" {
		t.Errorf("url = %q", f.browser.urls[0])
	}
	if f.browser.urls[1] != "https://google.com" {
		t.Errorf("url = %q, want https scheme prepended", f.browser.urls[1])
	}
}

func TestRoute_AppNameGoesToAutomationAdapter(t *testing.T) {
	f := newFixture()

	f.router.Route(context.Background(), parse(t, "open (notepad)"), "")
	if len(f.browser.urls) != 0 {
		t.Errorf("browser invoked for app name: %v", f.browser.urls)
	}
	if len(f.automation.directives) != 1 {
		t.Fatalf("automation invoked %d times, want 1", len(f.automation.directives))
	}
}

func TestRoute_GeneralFailureIsolated(t *testing.T) {
	f := newFixture()
	f.general.reply = chat.Apology
	f.general.err = errors.New("upstream down")

	out := f.router.Route(context.Background(), parse(t, "general (how are you)"), "how are you")

	if out.Exited {
		t.Error("failure should not exit")
	}
	if got := f.status.Status(); got != status.Available {
		t.Errorf("status = %q, want %q", got, status.Available)
	}
	apologies := 0
	for _, turn := range f.transcript.turns {
		if strings.Contains(turn, "trouble answering") {
			apologies++
		}
	}
	if apologies != 1 {
		t.Errorf("recorded %d apology turns, want 1: %v", apologies, f.transcript.turns)
	}
	if len(f.speaker.lines) != 1 {
		t.Errorf("spoke %d lines, want 1", len(f.speaker.lines))
	}
}

func TestRoute_AutomationFailureSpeaksApology(t *testing.T) {
	f := newFixture()
	f.automation.err = errors.New("no such executable")

	out := f.router.Route(context.Background(), parse(t, "close (notepad)"), "")
	if !strings.Contains(out.Response, "couldn't execute") {
		t.Errorf("response = %q", out.Response)
	}
	if got := f.status.Status(); got != status.Available {
		t.Errorf("status = %q, want %q", got, status.Available)
	}
}

func TestRoute_ImageGenerationQueuesAndConfirms(t *testing.T) {
	f := newFixture()

	out := f.router.Route(context.Background(), parse(t, "generate image (a red fox)"), "")
	if len(f.images.prompts) != 1 || f.images.prompts[0] != "a red fox" {
		t.Errorf("prompts = %v", f.images.prompts)
	}
	if !strings.Contains(out.Response, "a red fox") {
		t.Errorf("response = %q", out.Response)
	}
	if got := f.status.Status(); got != status.Available {
		t.Errorf("status = %q after cycle, want %q", got, status.Available)
	}
}

func TestRoute_EmptyImagePromptAsksForOne(t *testing.T) {
	f := newFixture()

	out := f.router.Route(context.Background(), []directive.Directive{
		{Category: directive.CategoryGenerateImage, Argument: ""},
	}, "generate image")

	if len(f.images.prompts) != 0 {
		t.Errorf("image generation invoked with empty prompt: %v", f.images.prompts)
	}
	if !strings.Contains(out.Response, "image") {
		t.Errorf("response = %q, want clarification", out.Response)
	}
	if len(f.transcript.turns) != 1 {
		t.Errorf("transcript turns = %v, want one clarification turn", f.transcript.turns)
	}
}

func TestRoute_ImagePrecedesRealtimeAndGeneral(t *testing.T) {
	f := newFixture()

	f.router.Route(context.Background(), parse(t,
		"generate image (a castle)", "realtime (news)", "general (hello)"), "")

	if len(f.images.prompts) != 1 {
		t.Errorf("image prompts = %v", f.images.prompts)
	}
	if len(f.realtime.queries) != 0 || len(f.general.queries) != 0 {
		t.Error("lower-precedence handlers invoked alongside image generation")
	}
}

func TestRoute_AutomationPrecedesImage(t *testing.T) {
	f := newFixture()

	f.router.Route(context.Background(), parse(t, "generate image (a castle)", "open (notepad)"), "")
	if len(f.automation.directives) != 1 {
		t.Errorf("automation invoked %d times, want 1", len(f.automation.directives))
	}
	if len(f.images.prompts) != 0 {
		t.Errorf("image generation invoked: %v", f.images.prompts)
	}
}

func TestRoute_DisplayShowsReply(t *testing.T) {
	f := newFixture()

	f.router.Route(context.Background(), parse(t, "general (hello)"), "")
	if got := f.status.Get(status.SlotDisplay); got != "general reply" {
		t.Errorf("display = %q", got)
	}
}
