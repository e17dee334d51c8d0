package llm

import (
	"fmt"
	"slices"
)

// CompletionRequest represents a raw text completion request
// Compatible with the OpenAI /completions format; repeat_penalty is the
// llama.cpp extension and is ignored by servers that do not know it.
type CompletionRequest struct {
	Model         string   `json:"model"`
	Prompt        string   `json:"prompt"`
	MaxTokens     int      `json:"max_tokens,omitempty"`
	Temperature   float64  `json:"temperature"`
	RepeatPenalty float64  `json:"repeat_penalty,omitempty"`
	Stop          []string `json:"stop,omitempty"`
}

// CompletionResponse represents a completion response
type CompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
	Error   *Error   `json:"error,omitempty"`
}

// Choice represents a completion choice
//
// FinishReason values: "stop", "length"
type Choice struct {
	Index        int    `json:"index"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

// Usage represents token usage statistics
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Error represents an API error. llama.cpp reports a numeric code, OpenAI a
// string one.
type Error struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("LLM API Error: %s (type: %s, code: %v)", e.Message, e.Type, e.Code)
}

// ModelInfo represents basic model information
type ModelInfo struct {
	ID string `json:"id"`
}

type modelList struct {
	Data []ModelInfo `json:"data"`
}

// CompletionOptions represents per-call sampling options. Unset fields fall
// back to the client configuration.
type CompletionOptions struct {
	MaxTokens     int
	Temperature   float64 // negative means unset
	RepeatPenalty float64 // zero means unset
	Stop          []string
}

// NewCompletionOptions creates completion options that defer to the config
func NewCompletionOptions() *CompletionOptions {
	return &CompletionOptions{
		MaxTokens:   0,
		Temperature: -1,
	}
}

// WithMaxTokens sets the max tokens
func (o *CompletionOptions) WithMaxTokens(maxTokens int) *CompletionOptions {
	o.MaxTokens = maxTokens
	return o
}

// WithTemperature sets the temperature
func (o *CompletionOptions) WithTemperature(temperature float64) *CompletionOptions {
	o.Temperature = temperature
	return o
}

// WithRepeatPenalty sets the repeat penalty
func (o *CompletionOptions) WithRepeatPenalty(penalty float64) *CompletionOptions {
	o.RepeatPenalty = penalty
	return o
}

// WithStop adds stop sequences
func (o *CompletionOptions) WithStop(stop ...string) *CompletionOptions {
	for _, s := range stop {
		if !slices.Contains(o.Stop, s) {
			o.Stop = append(o.Stop, s)
		}
	}
	return o
}
