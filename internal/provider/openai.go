package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OpenAIProvider calls the images generations API over plain HTTP.
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	rules      PromptRules
	table      PriceTable
}

func NewOpenAIProvider(apiKey, baseURL string, timeout time.Duration, logger *zap.Logger) *OpenAIProvider {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		rules: PromptRules{
			MinLength:   3,
			MaxLength:   4000,
			BannedTerms: []string{"gore", "nsfw", "nude"},
		},
		table: PriceTable{
			Base: 10,
			Size: map[string]float64{
				"256x256":   0.5,
				"512x512":   0.8,
				"1024x1024": 1.0,
				"1792x1024": 1.6,
			},
			Style: map[string]float64{
				"natural": 1.0,
				"vivid":   1.2,
			},
			Quality: map[string]float64{
				"standard": 1.0,
				"hd":       2.0,
			},
		},
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) ValidatePrompt(prompt string) error {
	return p.rules.Validate(prompt)
}

func (p *OpenAIProvider) CalculateCost(opts Options) int {
	return p.table.Cost(opts)
}

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	model := req.Model
	if model == "" {
		model = "dall-e-3"
	}
	size := req.Size
	if size == "" {
		size = "1024x1024"
	}

	payload := map[string]interface{}{
		"model":           model,
		"prompt":          req.Prompt,
		"n":               1,
		"size":            size,
		"response_format": "url",
	}
	if req.Quality != "" {
		payload["quality"] = req.Quality
	}
	if req.Style != "" {
		payload["style"] = req.Style
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call openai: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		p.logger.Error("openai generation failed",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(rawBody)),
		)
		return nil, fmt.Errorf("openai error: status=%d body=%s", resp.StatusCode, truncate(rawBody))
	}

	var genResp struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rawBody, &genResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(genResp.Data) == 0 || genResp.Data[0].URL == "" {
		return nil, fmt.Errorf("empty image url in response")
	}

	return &Result{URL: genResp.Data[0].URL}, nil
}

func (p *OpenAIProvider) Status(ctx context.Context) error {
	if p.apiKey == "" {
		return fmt.Errorf("openai api key is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("openai status probe failed: status=%d", resp.StatusCode)
	}
	return nil
}

func (p *OpenAIProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "dall-e-3", Description: "High quality text-to-image"},
		{ID: "dall-e-2", Description: "Lower cost text-to-image"},
	}
}

func truncate(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
