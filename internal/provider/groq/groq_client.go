package groq

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

// Groq exposes an OpenAI-compatible chat completions endpoint.
const (
	apiURL = "https://api.groq.com/openai/v1/chat/completions"

	maxOutputTokens = 4096
	temperature     = 0.1
)

func init() {
	provider.Register("groq", func(cfg *config.ProviderConfig) (port.Completer, error) {
		return NewClient(cfg), nil
	})
}

// Client implements port.Completer using the Groq chat completions API.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewClient creates a Groq-backed completer from a provider config.
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
		model = "groq/compound"
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
		"top_p":                 1,
		"stream":                false,
		"messages": []map[string]interface{}{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, provider.NewCallError("groq", fmt.Errorf("marshaling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, provider.NewCallError("groq", fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, provider.NewCallError("groq", fmt.Errorf("calling groq API: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NewCallError("groq", fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("groq API error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := provider.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, provider.NewRateLimitError("groq", baseErr, retryAfter)
		}
		return nil, provider.NewCallError("groq", baseErr)
	}

	return parseResponse(respBody, systemPrompt, userPrompt)
}

// apiResponse models the OpenAI-compatible chat completions response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func parseResponse(body []byte, systemPrompt, userPrompt string) (*port.Completion, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, provider.NewCallError("groq", fmt.Errorf("unmarshaling response: %w", err))
	}

	if len(resp.Choices) == 0 {
		return nil, provider.NewCallError("groq", fmt.Errorf("empty response from API: no choices"))
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
