package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MimeLyc/sakura-subtrans/pkg/log"
)

// Completer produces a raw completion for a prompt. It is the only thing
// the translation pipeline needs from a model.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts *CompletionOptions) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string, opts *CompletionOptions) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string, opts *CompletionOptions) (string, error) {
	return f(ctx, prompt, opts)
}

// Client is a completion client for an OpenAI-compatible server
// Thread-safe for concurrent use
type Client struct {
	config     *Config
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new completion client with the given configuration
//
// Example:
//
//	client, err := llm.NewClient(&cfg.LLM)
//	if err != nil {
//		log.Fatal(err)
//	}
//	text, err := client.Complete(ctx, prompt, llm.NewCompletionOptions().WithStop("\n"))
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	client := &Client{
		config:  config,
		baseURL: strings.TrimRight(config.APIURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}

	return client, nil
}

// Completion sends a raw prompt to the /completions endpoint
func (c *Client) Completion(ctx context.Context, prompt string, opts *CompletionOptions) (*CompletionResponse, error) {
	if opts == nil {
		opts = NewCompletionOptions()
	}

	if c.config.ContextSize > 0 && utf8.RuneCountInString(prompt) > c.config.ContextSize {
		log.Warn("Prompt of %d runes may exceed the model context of %d tokens",
			utf8.RuneCountInString(prompt), c.config.ContextSize)
	}

	request := CompletionRequest{
		Model:         c.config.Model,
		Prompt:        prompt,
		MaxTokens:     c.getMaxTokens(opts),
		Temperature:   c.getTemperature(opts),
		RepeatPenalty: c.getRepeatPenalty(opts),
		Stop:          opts.Stop,
	}

	var response CompletionResponse
	if err := c.makeRequest(ctx, http.MethodPost, "/completions", request, &response); err != nil {
		return &response, fmt.Errorf("completion failed: %w", err)
	}

	return &response, nil
}

// Complete returns the text of the first completion choice
func (c *Client) Complete(ctx context.Context, prompt string, opts *CompletionOptions) (string, error) {
	response, err := c.Completion(ctx, prompt, opts)
	if err != nil {
		return "", err
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return response.Choices[0].Text, nil
}

// Models lists the models the server reports. It doubles as a reachability
// probe of the server.
func (c *Client) Models(ctx context.Context) ([]ModelInfo, error) {
	var list modelList
	if err := c.makeRequest(ctx, http.MethodGet, "/models", nil, &list); err != nil {
		return nil, fmt.Errorf("failed to get models: %w", err)
	}
	return list.Data, nil
}

// makeRequest makes a raw HTTP request and decodes the JSON reply into out
func (c *Client) makeRequest(ctx context.Context, method, path string, payload, out any) error {
	url := c.baseURL + path

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.config.GetHeaders() {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if os.IsTimeout(err) {
			return fmt.Errorf("request timed out: %w", err)
		}
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error *Error `json:"error"`
		}
		if json.Unmarshal(responseBody, &apiErr) == nil && apiErr.Error != nil && apiErr.Error.Message != "" {
			return fmt.Errorf("API request failed with status %d: %w", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(responseBody))
	}

	if err := json.Unmarshal(responseBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// getMaxTokens returns the max tokens for the request, clamped to the
// context window when one is configured
func (c *Client) getMaxTokens(opts *CompletionOptions) int {
	maxTokens := c.config.MaxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	if c.config.ContextSize > 0 && maxTokens > c.config.ContextSize {
		maxTokens = c.config.ContextSize
	}
	return maxTokens
}

// getTemperature returns the temperature to use for the request
func (c *Client) getTemperature(opts *CompletionOptions) float64 {
	if opts.Temperature >= 0 && opts.Temperature <= 2 {
		return opts.Temperature
	}
	return c.config.Temperature
}

func (c *Client) getRepeatPenalty(opts *CompletionOptions) float64 {
	if opts.RepeatPenalty > 0 {
		return opts.RepeatPenalty
	}
	return c.config.RepeatPenalty
}
