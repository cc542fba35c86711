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

// CustomProvider speaks the async create-task/poll protocol used by hosted
// generation farms: POST a job, then poll its record until it settles.
type CustomProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	rules      PromptRules
	table      PriceTable

	pollInterval time.Duration
	maxAttempts  int
}

func NewCustomProvider(apiKey, baseURL string, timeout time.Duration, logger *zap.Logger) *CustomProvider {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &CustomProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		rules: PromptRules{
			MinLength:   3,
			MaxLength:   2000,
			BannedTerms: []string{"gore", "nsfw", "nude"},
		},
		table: PriceTable{
			Base: 8,
			Size: map[string]float64{
				"512x512":   1.0,
				"1024x1024": 1.5,
				"1792x1024": 2.0,
			},
			Style: map[string]float64{
				"natural":  1.0,
				"anime":    1.2,
				"artistic": 1.3,
			},
			Quality: map[string]float64{
				"standard": 1.0,
				"hd":       1.8,
			},
		},
		pollInterval: 2 * time.Second,
		maxAttempts:  60,
	}
}

func (p *CustomProvider) Name() string { return "custom" }

func (p *CustomProvider) ValidatePrompt(prompt string) error {
	return p.rules.Validate(prompt)
}

func (p *CustomProvider) CalculateCost(opts Options) int {
	return p.table.Cost(opts)
}

func (p *CustomProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	model := req.Model
	if model == "" {
		model = "default"
	}

	input := map[string]interface{}{
		"prompt": req.Prompt,
	}
	if req.Size != "" {
		input["size"] = req.Size
	}
	if req.Style != "" {
		input["style"] = req.Style
	}
	if req.Quality != "" {
		input["quality"] = req.Quality
	}

	taskID, err := p.createTask(ctx, map[string]interface{}{
		"model": model,
		"input": input,
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	return p.pollTask(ctx, taskID)
}

func (p *CustomProvider) createTask(ctx context.Context, payload map[string]interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/v1/jobs/createTask", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post task: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("task create error: status=%d body=%s", resp.StatusCode, truncate(rawBody))
	}

	var createResp struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			TaskID string `json:"taskId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rawBody, &createResp); err != nil {
		return "", fmt.Errorf("decode create response: %w", err)
	}
	if createResp.Code != 200 {
		return "", fmt.Errorf("task create failed: code=%d msg=%s", createResp.Code, createResp.Msg)
	}
	if createResp.Data.TaskID == "" {
		return "", fmt.Errorf("empty taskId in response")
	}

	return createResp.Data.TaskID, nil
}

func (p *CustomProvider) pollTask(ctx context.Context, taskID string) (*Result, error) {
	url := fmt.Sprintf("%s/api/v1/jobs/recordInfo?taskId=%s", p.baseURL, taskID)

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+p.apiKey)

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("poll task: %w", err)
		}

		rawBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("task poll error: status=%d body=%s", resp.StatusCode, truncate(rawBody))
		}

		var statusResp struct {
			Code int `json:"code"`
			Data struct {
				State      string `json:"state"`
				ResultJSON string `json:"resultJson"`
				FailMsg    string `json:"failMsg"`
			} `json:"data"`
		}
		if err := json.Unmarshal(rawBody, &statusResp); err != nil {
			return nil, fmt.Errorf("decode status response: %w", err)
		}

		switch statusResp.Data.State {
		case "success":
			var result struct {
				ResultURLs []string `json:"resultUrls"`
			}
			if err := json.Unmarshal([]byte(statusResp.Data.ResultJSON), &result); err != nil {
				return nil, fmt.Errorf("parse result json: %w", err)
			}
			if len(result.ResultURLs) == 0 {
				return nil, fmt.Errorf("no result urls in response")
			}
			return &Result{URL: result.ResultURLs[0]}, nil

		case "fail":
			failMsg := statusResp.Data.FailMsg
			if failMsg == "" {
				failMsg = "unknown error"
			}
			return nil, fmt.Errorf("task failed: %s", failMsg)

		default:
			// still queued or generating
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.pollInterval):
			}
		}
	}

	return nil, fmt.Errorf("task timeout after %d attempts", p.maxAttempts)
}

func (p *CustomProvider) Status(ctx context.Context) error {
	if p.apiKey == "" || p.baseURL == "" {
		return fmt.Errorf("custom provider is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/v1/status", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe custom provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("custom provider status probe failed: status=%d", resp.StatusCode)
	}
	return nil
}

func (p *CustomProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "default", Description: "Hosted default model"},
		{ID: "turbo", Description: "Faster generation, lower fidelity"},
	}
}
