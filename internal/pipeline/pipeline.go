// Package pipeline wires the configured extractors, the resolver and the
// graph client together for the worker and the command line tool.
package pipeline

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/OFFIS-RIT/claimgraph/internal/config"
	"github.com/OFFIS-RIT/claimgraph/pkg/ai"
	oai "github.com/OFFIS-RIT/claimgraph/pkg/ai/ollama"
	gai "github.com/OFFIS-RIT/claimgraph/pkg/ai/openai"
	"github.com/OFFIS-RIT/claimgraph/pkg/align"
	"github.com/OFFIS-RIT/claimgraph/pkg/gate"
	"github.com/OFFIS-RIT/claimgraph/pkg/graph"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger"
	"github.com/OFFIS-RIT/claimgraph/pkg/ner"
	"github.com/OFFIS-RIT/claimgraph/pkg/ratelimit"
	"github.com/OFFIS-RIT/claimgraph/pkg/resolver"
)

// Pipeline bundles a ready GraphClient with the AI client behind its llm
// extractor. AI is nil when no llm extractor is configured.
type Pipeline struct {
	Graph *graph.GraphClient
	AI    ai.Client
}

// ParseExtractors splits a comma separated extractor list, dropping blanks
// and repeated names.
func ParseExtractors(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" || slices.Contains(names, name) {
			continue
		}
		names = append(names, name)
	}
	return names
}

// NewAIClient creates the chat client for cfg.Adapter. An empty adapter
// selects openai.
func NewAIClient(cfg config.AIConfig) (ai.Client, error) {
	switch cfg.Adapter {
	case "ollama":
		client, err := oai.NewOllamaClient(oai.NewOllamaClientParams{
			ExtractionModel:       cfg.ExtractModel,
			BaseURL:               cfg.ChatURL,
			ApiKey:                cfg.ChatKey,
			MaxConcurrentRequests: cfg.MaxConcurrent,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case "", "openai":
		return gai.NewOpenAIClient(gai.NewOpenAIClientParams{
			ExtractionModel: cfg.ExtractModel,
			ChatURL:         cfg.ChatURL,
			ChatKey:         cfg.ChatKey,
		}), nil
	default:
		return nil, fmt.Errorf("unknown ai adapter %q", cfg.Adapter)
	}
}

// New builds the pipeline described by cfg. GATE requests of the annie
// extractor and the resolver share one throttle.
func New(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	names := ParseExtractors(cfg.Extractors)
	throttle := ratelimit.NewThrottle(cfg.Resolver.Calls, cfg.Resolver.Period)

	deps := ner.Deps{
		MaxTokens:    cfg.AI.MaxTokens,
		GateThrottle: throttle,
		Gate: gate.NewClient(gate.NewClientParams{
			URL:      cfg.Gate.AnnieURL,
			KeyID:    cfg.Gate.KeyID,
			Password: cfg.Gate.Password,
		}),
	}

	p := &Pipeline{}
	if slices.Contains(names, "llm") {
		client, err := NewAIClient(cfg.AI)
		if err != nil {
			return nil, err
		}
		p.AI = client
		deps.AI = client
	}

	extractors, err := ner.Build(ctx, names, deps)
	if err != nil {
		return nil, err
	}

	var res resolver.Resolver
	if cfg.Resolver.Enabled {
		yodie := resolver.NewYodieResolver(gate.NewClient(gate.NewClientParams{
			URL:      cfg.Gate.YodieURL,
			KeyID:    cfg.Gate.KeyID,
			Password: cfg.Gate.Password,
		}))
		res = resolver.Throttled(yodie, throttle)
	}

	policy, err := align.ParsePolicy(cfg.AlignPolicy)
	if err != nil {
		for _, ex := range extractors {
			_ = ex.Close()
		}
		return nil, err
	}

	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
		Extractors:           extractors,
		Resolver:             res,
		AlignPolicy:          policy,
		RequireEntitySubject: cfg.RequireEntitySubject,
	})
	if err != nil {
		for _, ex := range extractors {
			_ = ex.Close()
		}
		return nil, err
	}
	p.Graph = client

	logger.Info(
		"[Pipeline] Pipeline ready",
		"extractors", strings.Join(names, ","),
		"resolver", cfg.Resolver.Enabled,
		"align_policy", policy,
	)
	return p, nil
}

// Close releases the extractors.
func (p *Pipeline) Close() error {
	if p.Graph == nil {
		return nil
	}
	return p.Graph.Close()
}
