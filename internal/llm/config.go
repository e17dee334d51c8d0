package llm

import (
	"fmt"
)

// Config holds the configuration for the completion client.
// Works with any OpenAI-compatible /completions server (llama.cpp
// llama-server, vLLM, text-generation-webui, ...).
//
// Environment Variables:
// - LLM_API_URL: API endpoint URL (default: http://127.0.0.1:8080/v1)
// - LLM_API_KEY: API key, sent as a bearer token when set (optional)
// - LLM_MODEL: Model name to use (default: sakura-7b)
// - LLM_MAX_TOKENS: Default maximum tokens per completion (default: 1024)
// - LLM_TEMPERATURE: Default sampling temperature (default: 0.1)
// - LLM_REPEAT_PENALTY: Default repeat penalty, 0 leaves it to the server (default: 0)
// - LLM_TIMEOUT: Request timeout in seconds (default: 120)
// - LLM_CONTEXT_SIZE: Model context window in tokens, 0 disables the guard (default: 2048)
type Config struct {
	APIKey        string  `json:"api_key" toml:"api_key"`
	APIURL        string  `json:"api_url" toml:"api_url"`
	Model         string  `json:"model" toml:"model"`
	MaxTokens     int     `json:"max_tokens" toml:"max_tokens"`
	Temperature   float64 `json:"temperature" toml:"temperature"`
	RepeatPenalty float64 `json:"repeat_penalty" toml:"repeat_penalty"`
	Timeout       int     `json:"timeout" toml:"timeout"`
	ContextSize   int     `json:"context_size" toml:"context_size"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("API URL is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("max tokens must be greater than 0")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.RepeatPenalty < 0 {
		return fmt.Errorf("repeat penalty must not be negative")
	}
	if c.Timeout < 1 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	if c.ContextSize < 0 {
		return fmt.Errorf("context size must not be negative")
	}
	return nil
}

// GetHeaders returns the headers for the completion request
func (c *Config) GetHeaders() map[string]string {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if c.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.APIKey
	}
	return headers
}
