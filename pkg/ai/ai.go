package ai

import (
	"context"
)

// GenerateOptions holds configuration for AI generation requests.
type GenerateOptions struct {
	Model         string   // Model identifier to use for generation
	SystemPrompts []string // System prompts prepended to the request
	Temperature   float64  // Sampling temperature (0.0-2.0)
}

// ModelMetrics contains token and timing figures accumulated by a client.
type ModelMetrics struct {
	Requests       int     `json:"requests"`
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	DurationMs     int64   `json:"duration_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// Add folds m into the receiver and recomputes the throughput.
func (a *ModelMetrics) Add(m ModelMetrics) {
	a.Requests += m.Requests
	a.InputTokens += m.InputTokens
	a.OutputTokens += m.OutputTokens
	a.TotalTokens += m.TotalTokens
	a.DurationMs += m.DurationMs

	if a.DurationMs > 0 {
		tps := (float64(a.TotalTokens) * 1000.0) / float64(a.DurationMs)
		a.TokenPerSecond = float32(int(tps*100+0.5)) / 100
	}
}

// GenerateOption is a functional option for configuring AI generation requests.
type GenerateOption func(*GenerateOptions)

// WithModel returns a GenerateOption that sets the model to use for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts returns a GenerateOption that sets the system prompts
// to prepend to the generation request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature returns a GenerateOption that sets the sampling temperature.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// Client is the model backend used by the LLM entity extractor.
//
// LoadModel and UnloadModel bracket the lifetime of a locally hosted model;
// hosted APIs implement them as no-ops.
type Client interface {
	GenerateCompletionWithFormat(
		ctx context.Context,
		name string,
		description string,
		prompt string,
		out any,
		opts ...GenerateOption,
	) error

	LoadModel(ctx context.Context, opts ...GenerateOption) error
	UnloadModel(ctx context.Context, opts ...GenerateOption) error
	ResetMetrics()
	GetMetrics() ModelMetrics
}
