// AngelaMos | 2026
// summary.go

// Package summary produces the short article summary shown in listings.
// Generation never fails from the caller's point of view.
package summary

import (
	"context"
	"log/slog"
)

const Fallback = "Summary not available."

type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

type Generator struct {
	summarizer Summarizer
	logger     *slog.Logger
}

func NewGenerator(s Summarizer, logger *slog.Logger) *Generator {
	return &Generator{summarizer: s, logger: logger}
}

// Generate returns a summary of content, or Fallback when the model is
// unavailable.
func (g *Generator) Generate(ctx context.Context, content string) string {
	if text, ok := g.try(ctx, content); ok {
		return text
	}
	return Fallback
}

// Regenerate is used on edits: on failure the existing summary is kept,
// and Fallback is used only when there is none.
func (g *Generator) Regenerate(ctx context.Context, content, existing string) string {
	if text, ok := g.try(ctx, content); ok {
		return text
	}
	if existing != "" {
		return existing
	}
	return Fallback
}

func (g *Generator) try(ctx context.Context, content string) (string, bool) {
	if g == nil || g.summarizer == nil {
		return "", false
	}

	text, err := g.summarizer.Summarize(ctx, content)
	if err != nil {
		g.logger.Warn("summary generation failed",
			"upstream", "ai",
			"error", err,
		)
		return "", false
	}

	return text, text != ""
}
