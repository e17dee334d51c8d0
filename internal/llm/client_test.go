package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) *Config {
	return &Config{
		APIURL:        url,
		Model:         "sakura-7b",
		MaxTokens:     512,
		Temperature:   0.1,
		RepeatPenalty: 1.0,
		Timeout:       30,
	}
}

const completionReply = `{
	"id": "cmpl-1",
	"object": "text_completion",
	"created": 1234567890,
	"model": "sakura-7b",
	"choices": [{"index": 0, "text": "你好\n2: 谢谢", "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30}
}`

func TestNewClient(t *testing.T) {
	config := testConfig("http://127.0.0.1:8080/v1/")

	client, err := NewClient(config)
	require.NoError(t, err)
	assert.Equal(t, config, client.config)
	assert.Equal(t, "http://127.0.0.1:8080/v1", client.baseURL)
	assert.NotNil(t, client.httpClient)

	_, err = NewClient(&Config{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"api key optional", func(c *Config) { c.APIKey = "" }, ""},
		{"missing url", func(c *Config) { c.APIURL = "" }, "API URL is required"},
		{"missing model", func(c *Config) { c.Model = "" }, "model is required"},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }, "max tokens"},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, "temperature"},
		{"negative repeat penalty", func(c *Config) { c.RepeatPenalty = -1 }, "repeat penalty"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"negative context", func(c *Config) { c.ContextSize = -1 }, "context size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig("http://localhost")
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetHeaders(t *testing.T) {
	c := testConfig("http://localhost")
	headers := c.GetHeaders()
	assert.Equal(t, "application/json", headers["Content-Type"])
	assert.NotContains(t, headers, "Authorization")

	c.APIKey = "secret"
	assert.Equal(t, "Bearer secret", c.GetHeaders()["Authorization"])
}

func TestClientCompleteWithMockServer(t *testing.T) {
	var got CompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionReply))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL + "/v1"))
	require.NoError(t, err)

	opts := NewCompletionOptions().
		WithMaxTokens(150).
		WithTemperature(0.1).
		WithRepeatPenalty(1.2).
		WithStop("<|im_end|>", "\n")

	text, err := client.Complete(context.Background(), "prompt", opts)
	require.NoError(t, err)
	assert.Equal(t, "你好\n2: 谢谢", text)

	assert.Equal(t, "sakura-7b", got.Model)
	assert.Equal(t, "prompt", got.Prompt)
	assert.Equal(t, 150, got.MaxTokens)
	assert.InDelta(t, 0.1, got.Temperature, 1e-9)
	assert.InDelta(t, 1.2, got.RepeatPenalty, 1e-9)
	assert.Equal(t, []string{"<|im_end|>", "\n"}, got.Stop)
}

func TestClientDefaultsFromConfig(t *testing.T) {
	var got CompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(completionReply))
	}))
	defer server.Close()

	config := testConfig(server.URL)
	config.ContextSize = 256
	client, err := NewClient(config)
	require.NoError(t, err)

	response, err := client.Completion(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, 30, response.Usage.TotalTokens)

	assert.Equal(t, 256, got.MaxTokens, "max tokens clamped to the context size")
	assert.InDelta(t, 0.1, got.Temperature, 1e-9)
	assert.InDelta(t, 1.0, got.RepeatPenalty, 1e-9)
	assert.Empty(t, got.Stop)
}

func TestClientErrorHandling(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"code": 503, "message": "Loading model", "type": "unavailable_error"}}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "prompt", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "Loading model")

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "unavailable_error", apiErr.Type)
}

func TestClientNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "x", "choices": []}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "prompt", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestInvalidJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "prompt", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response")
}

func TestClientModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"object": "list", "data": [{"id": "sakura-7b"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	models, err := client.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ModelInfo{{ID: "sakura-7b"}}, models)
}

func TestClientConcurrentRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completionReply))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Complete(context.Background(), "prompt", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestWithStopDeduplicates(t *testing.T) {
	opts := NewCompletionOptions().WithStop("\n", "<|im_end|>").WithStop("\n")
	assert.Equal(t, []string{"\n", "<|im_end|>"}, opts.Stop)
}

// TestLocalServerIntegration talks to a real server when LLM_API_URL is set
func TestLocalServerIntegration(t *testing.T) {
	_ = godotenv.Load("./.env")
	url := os.Getenv("LLM_API_URL")
	if url == "" {
		t.Skip("LLM_API_URL environment variable not set, skipping integration test")
	}

	config := testConfig(url)
	config.MaxTokens = 32
	client, err := NewClient(config)
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), "1: こんにちは\n", NewCompletionOptions().WithStop("\n"))
	assert.NoError(t, err)
	assert.NotEmpty(t, text)
}
