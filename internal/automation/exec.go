package automation

import (
	"context"
	"fmt"
	"os/exec"
)

// ExecRunner launches commands detached from the assistant process.
type ExecRunner struct{}

// Start launches the command and returns without waiting for it. The spawned
// process is released so it outlives the assistant cycle.
func (ExecRunner) Start(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", name, err)
	}
	go cmd.Wait()
	return nil
}

// ExecBrowser opens URLs through the desktop's URL handler.
type ExecBrowser struct {
	runner CommandRunner
}

// NewExecBrowser creates a Browser that shells out to xdg-open.
func NewExecBrowser() *ExecBrowser {
	return &ExecBrowser{runner: ExecRunner{}}
}

func (b *ExecBrowser) OpenURL(ctx context.Context, rawURL string) error {
	return b.runner.Start(ctx, "xdg-open", rawURL)
}
