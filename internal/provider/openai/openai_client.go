package openai

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
	apiURL = "https://api.openai.com/v1/chat/completions"

	maxOutputTokens = 4096
	temperature     = 0.1
)

func init() {
	provider.Register("openai", func(cfg *config.ProviderConfig) (port.Completer, error) {
		return NewClient(cfg), nil
	})
}

// Client implements port.Completer using the OpenAI Chat Completions API.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewClient creates an OpenAI-backed completer from a provider config.
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
		model = "gpt-4o"
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
		"model":                 c.model,
		"temperature":           temperature,
		"max_completion_tokens": maxOutputTokens,
		"messages": []map[string]interface{}{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"response_format": map[string]interface{}{
			"type": "json_object",
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, provider.NewCallError("openai", fmt.Errorf("marshaling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, provider.NewCallError("openai", fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, provider.NewCallError("openai", fmt.Errorf("calling openai API: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NewCallError("openai", fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("openai API error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := provider.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, provider.NewRateLimitError("openai", baseErr, retryAfter)
		}
		return nil, provider.NewCallError("openai", baseErr)
	}

	return parseResponse(respBody, systemPrompt, userPrompt)
}

// apiResponse models the OpenAI Chat Completions API response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func parseResponse(body []byte, systemPrompt, userPrompt string) (*port.Completion, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, provider.NewCallError("openai", fmt.Errorf("unmarshaling response: %w", err))
	}

	if len(resp.Choices) == 0 {
		return nil, provider.NewCallError("openai", fmt.Errorf("empty response from API: no choices"))
	}

	text := resp.Choices[0].Message.Content

	in, out := resp.Usage.PromptTokens, resp.Usage.CompletionTokens
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
