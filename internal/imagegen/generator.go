package imagegen

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// VariantCount is how many images one prompt produces.
const VariantCount = 4

// Renderer is the text-to-image model boundary.
type Renderer interface {
	Generate(ctx context.Context, prompt string, seed int64) ([]byte, error)
}

// Generator renders prompt variants concurrently and saves them to disk.
type Generator struct {
	renderer Renderer
	dir      string
	seed     func() int64
}

// NewGenerator creates a Generator saving images under dir.
func NewGenerator(renderer Renderer, dir string) *Generator {
	return &Generator{
		renderer: renderer,
		dir:      dir,
		seed:     func() int64 { return rand.Int63n(1_000_000) },
	}
}

// GenerateSet renders VariantCount images for the prompt in parallel, each
// with a fresh random seed, and returns the saved file paths. A single
// failed variant fails the whole set so the job queue can retry it.
func (g *Generator) GenerateSet(ctx context.Context, prompt string) ([]string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("empty prompt")
	}
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating image directory: %w", err)
	}

	paths := make([]string, VariantCount)
	grp, ctx := errgroup.WithContext(ctx)
	for i := 0; i < VariantCount; i++ {
		grp.Go(func() error {
			data, err := g.renderer.Generate(ctx, prompt, g.seed())
			if err != nil {
				return fmt.Errorf("variant %d: %w", i+1, err)
			}
			path := filepath.Join(g.dir, fmt.Sprintf("%s%d.jpg", slug(prompt), i+1))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("saving variant %d: %w", i+1, err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func slug(prompt string) string {
	s := strings.Join(strings.Fields(strings.ToLower(prompt)), "_")
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}
