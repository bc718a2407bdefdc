package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"billx/internal/config"
	"billx/internal/port"
	"billx/internal/provider"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"

	maxOutputTokens = 4096
	temperature     = 0.1
)

func init() {
	provider.Register("anthropic", func(cfg *config.ProviderConfig) (port.Completer, error) {
		return NewClient(cfg), nil
	})
}

// Client implements port.Completer using the Anthropic Messages API.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewClient creates an Anthropic-backed completer from a provider config.
func NewClient(cfg *config.ProviderConfig) *Client {
	return newClient(cfg, apiURL)
}

// NewClientWithEndpoint creates a client pointing at a custom API endpoint (for testing).
func NewClientWithEndpoint(cfg *config.ProviderConfig, endpoint string) *Client {
	return newClient(cfg, endpoint)
}

func newClient(cfg *config.ProviderConfig, endpoint string) *Client {
	model := cfg.DefaultModel
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (*port.Completion, error) {
	reqBody := map[string]interface{}{
		"model":       c.model,
		"max_tokens":  maxOutputTokens,
		"temperature": temperature,
		"system":      systemPrompt,
		"messages": []map[string]interface{}{
			{"role": "user", "content": userPrompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, provider.NewCallError("anthropic", fmt.Errorf("marshaling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, provider.NewCallError("anthropic", fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, provider.NewCallError("anthropic", fmt.Errorf("calling anthropic API: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NewCallError("anthropic", fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := provider.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, provider.NewRateLimitError("anthropic", baseErr, retryAfter)
		}
		return nil, provider.NewCallError("anthropic", baseErr)
	}

	return parseResponse(respBody, systemPrompt, userPrompt)
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func parseResponse(body []byte, systemPrompt, userPrompt string) (*port.Completion, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, provider.NewCallError("anthropic", fmt.Errorf("unmarshaling response: %w", err))
	}

	if len(resp.Content) == 0 {
		return nil, provider.NewCallError("anthropic", fmt.Errorf("empty response from API"))
	}

	text := resp.Content[0].Text

	in, out := resp.Usage.InputTokens, resp.Usage.OutputTokens
	if in == 0 && out == 0 {
		in = provider.EstimateTokens(systemPrompt + userPrompt)
		out = provider.EstimateTokens(text)
	}

	return &port.Completion{
		Text:         text,
		InputTokens:  in,
		OutputTokens: out,
	}, nil
}
