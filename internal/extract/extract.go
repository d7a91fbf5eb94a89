// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract converts paper PDFs to plain text through an ordered
// chain of strategies: remote OCR, local pdftotext, and a containerized
// markitdown converter. The first strategy that produces text wins.
package extract

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/paper-collector/internal/container"
	"github.com/pdiddy/paper-collector/pkg/types"
)

// Strategy converts one PDF file to plain text.
type Strategy interface {
	// Name returns the strategy identifier ("ocr", "pdftotext", "markitdown").
	Name() string

	// Extract reads the PDF at pdfPath and returns its text content.
	Extract(ctx context.Context, pdfPath string) (string, error)
}

// Attempt records a strategy that was tried and failed, for diagnostics.
type Attempt struct {
	Strategy string
	Err      string
}

// Result holds the extracted text, the strategy that produced it, and
// the strategies that failed before it.
type Result struct {
	Text     string
	Strategy string
	Attempts []Attempt
}

// Chain tries strategies in order until one succeeds.
type Chain struct {
	strategies []Strategy
}

// NewChain builds a chain from the given strategies, tried in argument order.
func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// Names returns the strategy names in chain order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Extract runs the chain against pdfPath. A strategy that returns only
// whitespace counts as failed so the chain can fall through to the next
// one. When every strategy fails, the error lists each attempt.
func (c *Chain) Extract(ctx context.Context, pdfPath string) (Result, error) {
	if len(c.strategies) == 0 {
		return Result{}, fmt.Errorf("no extraction strategies configured")
	}

	var attempts []Attempt
	for _, s := range c.strategies {
		text, err := s.Extract(ctx, pdfPath)
		if err == nil && strings.TrimSpace(text) == "" {
			err = fmt.Errorf("produced no text")
		}
		if err != nil {
			attempts = append(attempts, Attempt{Strategy: s.Name(), Err: err.Error()})
			continue
		}
		return Result{Text: text, Strategy: s.Name(), Attempts: attempts}, nil
	}

	var failed []string
	for _, a := range attempts {
		failed = append(failed, fmt.Sprintf("%s: %s", a.Strategy, a.Err))
	}
	return Result{Attempts: attempts},
		fmt.Errorf("all extraction strategies failed for %s: %s", pdfPath, strings.Join(failed, "; "))
}

// ChainFromConfig assembles the extraction chain from configuration.
// OCR, when enabled with a key, goes first; with fallback disabled it is
// the only strategy. pdftotext is the default local strategy, and the
// markitdown container is appended when a runtime is available.
func ChainFromConfig(cfg types.ExtractConfig, client *http.Client, rt container.Runtime) *Chain {
	var strategies []Strategy

	if cfg.OCREnabled && cfg.OCRAPIKey != "" {
		strategies = append(strategies, &OCRStrategy{
			Client: client,
			APIKey: cfg.OCRAPIKey,
			Model:  cfg.OCRModel,
		})
		if !cfg.OCRFallback {
			return NewChain(strategies...)
		}
	}

	strategies = append(strategies, Pdftotext{})

	if rt != nil {
		if md, err := NewMarkitdown(rt); err == nil {
			strategies = append(strategies, md)
		}
	}

	return NewChain(strategies...)
}
