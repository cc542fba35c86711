package provider

import (
	"context"
	"fmt"
	"strings"
)

// mockPNG is a 1x1 transparent PNG, enough for the full pipeline (debit,
// generate, store, complete) to run without a vendor account.
var mockPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

type MockProvider struct {
	rules PromptRules
	table PriceTable
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		rules: PromptRules{
			MinLength:   3,
			MaxLength:   1000,
			BannedTerms: []string{"gore", "nsfw", "nude"},
		},
		table: PriceTable{
			Base: 5,
			Size: map[string]float64{
				"256x256":   1.0,
				"512x512":   1.2,
				"1024x1024": 1.6,
				"1792x1024": 2.0,
			},
			Style: map[string]float64{
				"natural":  1.0,
				"anime":    1.3,
				"artistic": 1.4,
			},
			Quality: map[string]float64{
				"standard": 1.0,
				"hd":       1.5,
			},
		},
	}
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) ValidatePrompt(prompt string) error {
	return p.rules.Validate(prompt)
}

func (p *MockProvider) CalculateCost(opts Options) int {
	return p.table.Cost(opts)
}

func (p *MockProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if strings.Contains(strings.ToLower(req.Prompt), "fail") {
		return nil, fmt.Errorf("mock generation failure")
	}

	return &Result{
		Data:        mockPNG,
		ContentType: "image/png",
	}, nil
}

func (p *MockProvider) Status(ctx context.Context) error { return nil }

func (p *MockProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "mock-v1", Description: "Deterministic placeholder generator"},
	}
}
