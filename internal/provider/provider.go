package provider

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Options is the generation option bag. Empty fields fall back to provider
// defaults; unknown values price at 1x.
type Options struct {
	Size    string `json:"size"`
	Style   string `json:"style"`
	Quality string `json:"quality"`
	Model   string `json:"model"`
}

type Request struct {
	Prompt string
	Options
}

// Result carries either raw image bytes (uploaded to object storage by the
// caller) or a URL the vendor already hosts.
type Result struct {
	URL         string
	Data        []byte
	ContentType string
}

type ModelInfo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Provider is a pluggable image-generation back end.
type Provider interface {
	Name() string
	ValidatePrompt(prompt string) error
	CalculateCost(opts Options) int
	Generate(ctx context.Context, req Request) (*Result, error)
	Status(ctx context.Context) error
	Models() []ModelInfo
}

// PromptRules are the provider-specific prompt constraints: length bounds and
// a banned-term substring scan.
type PromptRules struct {
	MinLength   int
	MaxLength   int
	BannedTerms []string
}

func (r PromptRules) Validate(prompt string) error {
	trimmed := strings.TrimSpace(prompt)
	if len(trimmed) < r.MinLength {
		return fmt.Errorf("prompt must be at least %d characters", r.MinLength)
	}
	if len(trimmed) > r.MaxLength {
		return fmt.Errorf("prompt must be at most %d characters", r.MaxLength)
	}

	lowered := strings.ToLower(trimmed)
	for _, term := range r.BannedTerms {
		if strings.Contains(lowered, term) {
			return fmt.Errorf("prompt contains a banned term: %s", term)
		}
	}
	return nil
}

// PriceTable prices an option bag as base cost times the multiplier of each
// recognized option. The result is deterministic for a given table.
type PriceTable struct {
	Base    float64
	Size    map[string]float64
	Style   map[string]float64
	Quality map[string]float64
}

func (t PriceTable) Cost(opts Options) int {
	cost := t.Base
	if m, ok := t.Size[opts.Size]; ok {
		cost *= m
	}
	if m, ok := t.Style[opts.Style]; ok {
		cost *= m
	}
	if m, ok := t.Quality[opts.Quality]; ok {
		cost *= m
	}
	return int(math.Round(cost))
}
