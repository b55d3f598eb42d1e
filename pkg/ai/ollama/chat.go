package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"

	"github.com/OFFIS-RIT/claimgraph/pkg/ai"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger"

	"github.com/ollama/ollama/api"
)

const (
	defaultContext  = 4096
	responseReserve = 200
)

// GenerateCompletionWithFormat enforces a JSON schema and unmarshals into out.
func (c *OllamaClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	if out == nil {
		return errors.New("out must be a non-nil pointer")
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("out must be a non-nil pointer")
	}

	formatBytes, err := json.Marshal(ai.GenerateSchema(out))
	if err != nil {
		return err
	}

	options := ai.GenerateOptions{
		Model:       c.extractionModel,
		Temperature: 0.1,
	}
	for _, o := range opts {
		o(&options)
	}

	msgs := make([]api.Message, 0, len(options.SystemPrompts)+1)
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sp})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Format:   json.RawMessage(formatBytes),
		Options:  map[string]any{"temperature": options.Temperature},
	}

	tokens := responseReserve + c.tokenCounter(prompt)
	for _, sp := range options.SystemPrompts {
		tokens += c.tokenCounter(sp)
	}
	if tokens > defaultContext {
		req.Options["num_ctx"] = tokens
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.reqLock.Release(1)

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return err
	}

	c.modifyMetrics(ai.ModelMetrics{
		Requests:     1,
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	})

	logger.Debug("[AI] Structured completion", "model", options.Model, "schema", name)
	return ai.UnmarshalFlexible(final.Message.Content, out)
}

// LoadModel preloads the model so the first extraction batch does not pay
// the load latency.
func (c *OllamaClient) LoadModel(ctx context.Context, opts ...ai.GenerateOption) error {
	return c.touchModel(ctx, nil, opts...)
}

// UnloadModel asks the server to evict the model immediately.
func (c *OllamaClient) UnloadModel(ctx context.Context, opts ...ai.GenerateOption) error {
	return c.touchModel(ctx, &api.Duration{Duration: 0}, opts...)
}

func (c *OllamaClient) touchModel(ctx context.Context, keepAlive *api.Duration, opts ...ai.GenerateOption) error {
	options := ai.GenerateOptions{
		Model: c.extractionModel,
	}
	for _, o := range opts {
		o(&options)
	}

	req := &api.ChatRequest{
		Model:     options.Model,
		KeepAlive: keepAlive,
	}
	return c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		return nil
	})
}
