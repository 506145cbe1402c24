// Package router dispatches parsed directives to their handlers with a fixed
// precedence order. Exactly one branch executes per cycle; everything a
// handler produces flows out through the status store, the speaker, and the
// transcript, never as a raised error.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/auravoice/aura/internal/automation"
	"github.com/auravoice/aura/internal/directive"
	"github.com/auravoice/aura/internal/status"
)

const (
	automationApology = "Sorry, I couldn't execute that command."
	imageApology      = "Sorry, I couldn't start generating that image."
	imageClarify      = "What would you like an image of?"
	goodbye           = "Okay, goodbye! Shutting down."
)

// GeneralHandler answers conversational queries.
type GeneralHandler interface {
	Respond(ctx context.Context, query string) (string, error)
}

// RealtimeHandler answers queries needing fresh information.
type RealtimeHandler interface {
	Answer(ctx context.Context, query string) (string, error)
}

// AutomationHandler executes one desktop command directive.
type AutomationHandler interface {
	Execute(ctx context.Context, d directive.Directive) (string, error)
}

// Browser opens URLs directly, bypassing the automation adapter.
type Browser interface {
	OpenURL(ctx context.Context, rawURL string) error
}

// ImageRequester queues an asynchronous image generation request.
type ImageRequester interface {
	RequestImages(prompt string) (jobID string, err error)
}

// Speaker voices a reply. Failures are logged, never propagated.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Transcript records apology turns for failed handler calls. Successful chat
// turns are persisted by the handlers themselves.
type Transcript interface {
	AppendChatMessage(role, content string) error
}

// Outcome summarizes one routed cycle for interaction records and the API.
type Outcome struct {
	Handler  string
	Response string
	Exited   bool
}

// Router owns the precedence policy and the status transitions around each
// handler call.
type Router struct {
	status     *status.Store
	general    GeneralHandler
	realtime   RealtimeHandler
	automation AutomationHandler
	browser    Browser
	images     ImageRequester
	speaker    Speaker
	transcript Transcript
	exit       func()
	logger     *slog.Logger
}

// New creates a Router. exit is called when an exit directive is routed; it
// must be safe to call from the cycle goroutine.
func New(st *status.Store, general GeneralHandler, realtime RealtimeHandler, autom AutomationHandler, browser Browser, images ImageRequester, speaker Speaker, transcript Transcript, exit func()) *Router {
	return &Router{
		status:     st,
		general:    general,
		realtime:   realtime,
		automation: autom,
		browser:    browser,
		images:     images,
		speaker:    speaker,
		transcript: transcript,
		exit:       exit,
		logger:     slog.Default(),
	}
}

// Route evaluates the directive list in precedence order and executes exactly
// one branch. The fallback branch guarantees the assistant always responds.
func (r *Router) Route(ctx context.Context, directives []directive.Directive, utterance string) Outcome {
	for _, d := range directives {
		if d.Category == directive.CategoryExit {
			return r.routeExit(ctx)
		}
	}

	for _, d := range directives {
		if d.Category.IsAutomation() {
			return r.routeAutomation(ctx, d)
		}
	}

	for _, d := range directives {
		if d.Category == directive.CategoryGenerateImage {
			return r.routeImage(ctx, d)
		}
	}

	if merged := mergeArguments(directives, directive.CategoryRealtime, " and "); merged != "" {
		return r.routeRealtime(ctx, merged)
	}

	if merged := mergeArguments(directives, directive.CategoryGeneral, " "); merged != "" {
		return r.routeGeneral(ctx, merged)
	}

	// Nothing matched: the original utterance still deserves an answer.
	return r.routeGeneral(ctx, utterance)
}

// mergeArguments concatenates the arguments of every directive in the given
// category, preserving classifier order.
func mergeArguments(directives []directive.Directive, cat directive.Category, joiner string) string {
	var args []string
	for _, d := range directives {
		if d.Category == cat && d.Argument != "" {
			args = append(args, d.Argument)
		}
	}
	return strings.Join(args, joiner)
}

func (r *Router) routeExit(ctx context.Context) Outcome {
	r.status.SetStatus(status.ExitRequested)
	r.status.ShowText(goodbye)
	r.speak(ctx, goodbye)
	if r.exit != nil {
		r.exit()
	}
	return Outcome{Handler: "exit", Response: goodbye, Exited: true}
}

func (r *Router) routeAutomation(ctx context.Context, d directive.Directive) Outcome {
	r.status.SetStatus(status.Executing(d.Category.String() + " " + d.Argument))
	defer r.status.SetStatus(status.Available)

	// Spoken website names skip the automation adapter and go straight to
	// the browser.
	if d.Category == directive.CategoryOpen && automation.LooksLikeURL(d.Argument) {
		addr := d.Argument
		if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
			addr = "https://" + addr
		}
		if err := r.browser.OpenURL(ctx, addr); err != nil {
			r.logger.Warn("browser open failed", "url", addr, "error", err)
			return r.deliver(ctx, "automation", automationApology)
		}
		return r.deliver(ctx, "automation", fmt.Sprintf("Opening %s.", d.Argument))
	}

	spoken, err := r.automation.Execute(ctx, d)
	if err != nil {
		r.logger.Warn("automation failed", "category", d.Category.String(), "argument", d.Argument, "error", err)
		return r.deliver(ctx, "automation", automationApology)
	}
	return r.deliver(ctx, "automation", spoken)
}

func (r *Router) routeImage(ctx context.Context, d directive.Directive) Outcome {
	prompt := strings.TrimSpace(d.Argument)
	if prompt == "" {
		// No prompt to render; turn it into a chat turn asking for one.
		r.status.SetStatus(status.Thinking)
		defer r.status.SetStatus(status.Available)
		r.appendAssistantTurn(imageClarify)
		return r.deliver(ctx, "general", imageClarify)
	}

	r.status.SetStatus(status.GeneratingImage)
	defer r.status.SetStatus(status.Available)

	if _, err := r.images.RequestImages(prompt); err != nil {
		r.logger.Warn("image request failed", "prompt", prompt, "error", err)
		return r.deliver(ctx, "image", imageApology)
	}
	confirmation := fmt.Sprintf("Generating images of %s. I'll have them ready shortly.", prompt)
	return r.deliver(ctx, "image", confirmation)
}

func (r *Router) routeRealtime(ctx context.Context, query string) Outcome {
	r.status.SetStatus(status.Searching)
	defer r.status.SetStatus(status.Available)

	reply, err := r.realtime.Answer(ctx, query)
	if err != nil {
		r.logger.Warn("realtime handler failed", "error", err)
		r.appendAssistantTurn(reply)
	}
	r.status.SetStatus(status.Answering)
	return r.deliver(ctx, "realtime", reply)
}

func (r *Router) routeGeneral(ctx context.Context, query string) Outcome {
	r.status.SetStatus(status.Thinking)
	defer r.status.SetStatus(status.Available)

	reply, err := r.general.Respond(ctx, query)
	if err != nil {
		r.logger.Warn("general handler failed", "error", err)
		r.appendAssistantTurn(reply)
	}
	r.status.SetStatus(status.Answering)
	return r.deliver(ctx, "general", reply)
}

// deliver shows and speaks a reply and packages the outcome.
func (r *Router) deliver(ctx context.Context, handler, reply string) Outcome {
	r.status.ShowText(reply)
	r.speak(ctx, reply)
	return Outcome{Handler: handler, Response: reply}
}

func (r *Router) speak(ctx context.Context, text string) {
	if r.speaker == nil {
		return
	}
	if err := r.speaker.Speak(ctx, text); err != nil {
		r.logger.Warn("speech output failed", "error", err)
	}
}

// appendAssistantTurn records a reply that did not come from a handler's own
// persistence path (apologies, clarifications).
func (r *Router) appendAssistantTurn(text string) {
	if r.transcript == nil {
		return
	}
	if err := r.transcript.AppendChatMessage("assistant", text); err != nil {
		r.logger.Warn("persisting assistant turn failed", "error", err)
	}
}
