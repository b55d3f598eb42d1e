package ner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/OFFIS-RIT/claimgraph/internal/util"
	"github.com/OFFIS-RIT/claimgraph/pkg/ai"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger"
)

const (
	defaultLLMBatchTokens = 2000
	defaultLLMRetries     = 3
)

type llmEntity struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

type llmResponse struct {
	Entities []llmEntity `json:"entities"`
}

// LLMExtractor recognizes entities with a language model through ai.Client.
// Sentences are sent in batches whose prompt stays below MaxTokens.
type LLMExtractor struct {
	name      string
	client    ai.Client
	maxTokens int
	retries   int
	counter   ai.TokenCounter
	ignored   map[string]struct{}
	opts      []ai.GenerateOption
}

// NewLLMExtractorParams configures an LLMExtractor.
type NewLLMExtractorParams struct {
	Name              string
	Client            ai.Client
	MaxTokens         int
	Retries           int
	TokenCounter      ai.TokenCounter
	IgnoredCategories []string
	Options           []ai.GenerateOption
}

// NewLLMExtractor acquires the model through Client.LoadModel. Close
// releases it.
func NewLLMExtractor(ctx context.Context, params NewLLMExtractorParams) (*LLMExtractor, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("llm extractor needs an ai client")
	}

	e := &LLMExtractor{
		name:      params.Name,
		client:    params.Client,
		maxTokens: params.MaxTokens,
		retries:   params.Retries,
		counter:   params.TokenCounter,
		ignored:   make(map[string]struct{}),
		opts:      params.Options,
	}
	if e.name == "" {
		e.name = "llm"
	}
	if e.maxTokens <= 0 {
		e.maxTokens = defaultLLMBatchTokens
	}
	if e.retries <= 0 {
		e.retries = defaultLLMRetries
	}
	if e.counter == nil {
		e.counter = ai.CountTokens
	}
	ignored := params.IgnoredCategories
	if ignored == nil {
		ignored = DefaultIgnoredCategories
	}
	for _, c := range ignored {
		e.ignored[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}

	if err := e.client.LoadModel(ctx, e.opts...); err != nil {
		return nil, fmt.Errorf("failed to load extraction model: %w", err)
	}
	return e, nil
}

func (e *LLMExtractor) Name() string {
	return e.name
}

// GetEntities returns every mention the model reports, duplicates included.
// Mentions whose category is ignored, or whose text does not literally
// occur in the batch, are dropped.
func (e *LLMExtractor) GetEntities(ctx context.Context, sentences []string) ([]string, error) {
	if len(sentences) == 0 {
		return nil, nil
	}

	batches := e.batch(sentences)
	var mentions []string
	for i, batch := range batches {
		prompt := fmt.Sprintf(ai.NERPrompt, numbered(batch))
		opts := append([]ai.GenerateOption{ai.WithSystemPrompts(ai.NERSystemPrompt)}, e.opts...)

		res, err := util.RetryWithBackoff(ctx, e.retries, time.Second, func(ctx context.Context) (llmResponse, error) {
			var res llmResponse
			err := e.client.GenerateCompletionWithFormat(ctx, "named_entities", "Named entity mentions found in the sentences", prompt, &res, opts...)
			return res, err
		})
		if err != nil {
			return nil, fmt.Errorf("batch %d of %d: %w", i+1, len(batches), err)
		}

		text := strings.Join(batch, "\n")
		for _, ent := range res.Entities {
			if _, skip := e.ignored[strings.ToUpper(strings.TrimSpace(ent.Category))]; skip {
				continue
			}
			mention := strings.TrimSpace(ent.Text)
			if mention == "" || !strings.Contains(text, mention) {
				continue
			}
			mentions = append(mentions, mention)
		}
		logger.Debug("[NER] LLM batch processed", "batch", i+1, "of", len(batches), "sentences", len(batch))
	}
	return mentions, nil
}

func (e *LLMExtractor) batch(sentences []string) [][]string {
	var (
		batches [][]string
		current []string
		tokens  int
	)
	for _, s := range sentences {
		if strings.TrimSpace(s) == "" {
			continue
		}
		n := e.counter(s)
		if len(current) > 0 && tokens+n > e.maxTokens {
			batches = append(batches, current)
			current, tokens = nil, 0
		}
		current = append(current, s)
		tokens += n
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

func numbered(sentences []string) string {
	var b strings.Builder
	for i, s := range sentences {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return b.String()
}

// Close unloads the model.
func (e *LLMExtractor) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return e.client.UnloadModel(ctx, e.opts...)
}
