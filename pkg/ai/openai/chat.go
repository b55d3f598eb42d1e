package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/claimgraph/pkg/ai"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger"

	"github.com/openai/openai-go/v3"
)

// GenerateCompletionWithFormat asks the model for JSON matching the schema
// reflected from out and decodes the answer into out.
//
// Example:
//
//	var res struct {
//		Entities []string `json:"entities"`
//	}
//	err := client.GenerateCompletionWithFormat(ctx, "entities", "Named entities", prompt, &res)
func (c *OpenAIClient) GenerateCompletionWithFormat(
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

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        name,
		Description: openai.String(description),
		Schema:      ai.GenerateSchema(out),
		Strict:      openai.Bool(true),
	}

	options := ai.GenerateOptions{
		Model:       c.extractionModel,
		Temperature: 0.1,
	}
	for _, o := range opts {
		o(&options)
	}

	msgs := []openai.ChatCompletionMessageParamUnion{}
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, openai.SystemMessage(sp))
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	body := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(options.Model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
		Messages:    msgs,
		Temperature: openai.Float(options.Temperature),
	}

	start := time.Now()
	response, err := c.ChatClient.Chat.Completions.New(ctx, body)
	if err != nil {
		return err
	}
	duration := time.Since(start).Milliseconds()

	c.modifyMetrics(ai.ModelMetrics{
		Requests:     1,
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   duration,
	})

	if len(response.Choices) == 0 {
		return fmt.Errorf("no choices in response from model")
	}
	message := response.Choices[0].Message.Content
	if message == "" {
		return fmt.Errorf("empty response from model (finish_reason: %s)", response.Choices[0].FinishReason)
	}

	logger.Debug("[AI] Structured completion", "model", options.Model, "schema", name, "duration_ms", duration)
	return ai.UnmarshalFlexible(message, out)
}

// LoadModel is a no-op for hosted APIs as models are loaded on demand.
func (c *OpenAIClient) LoadModel(ctx context.Context, opts ...ai.GenerateOption) error {
	return nil
}

// UnloadModel is a no-op for hosted APIs.
func (c *OpenAIClient) UnloadModel(ctx context.Context, opts ...ai.GenerateOption) error {
	return nil
}
