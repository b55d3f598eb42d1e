package ner

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/claimgraph/pkg/gate"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger"
	"github.com/OFFIS-RIT/claimgraph/pkg/ratelimit"
)

// DefaultGateTypes are the ANNIE annotation types collected as mentions.
var DefaultGateTypes = []string{"Location", "Person", "Organization"}

// GateExtractor sends each sentence to the GATE ANNIE recognizer.
type GateExtractor struct {
	client   *gate.Client
	throttle *ratelimit.Throttle
	types    []string
}

type NewGateExtractorParams struct {
	Client   *gate.Client
	Throttle *ratelimit.Throttle
	Types    []string
}

func NewGateExtractor(params NewGateExtractorParams) *GateExtractor {
	throttle := params.Throttle
	if throttle == nil {
		throttle = ratelimit.NewThrottle(1, 0)
	}
	types := params.Types
	if len(types) == 0 {
		types = DefaultGateTypes
	}
	return &GateExtractor{
		client:   params.Client,
		throttle: throttle,
		types:    types,
	}
}

func (e *GateExtractor) Name() string {
	return "annie"
}

// GetEntities annotates one sentence per request. A sentence whose request
// fails is skipped; the extractor only fails when every request failed or
// the context ended.
func (e *GateExtractor) GetEntities(ctx context.Context, sentences []string) ([]string, error) {
	var (
		mentions []string
		failures int
		lastErr  error
	)

	for _, sentence := range sentences {
		res, err := ratelimit.Do(ctx, e.throttle, func(ctx context.Context) (*gate.Response, error) {
			return e.client.Process(ctx, sentence)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failures++
			lastErr = err
			logger.Debug("[NER] ANNIE request failed", "err", err)
			continue
		}

		for _, typ := range e.types {
			for _, a := range res.Entities[typ] {
				if span, ok := a.Span(res.Text); ok {
					mentions = append(mentions, span)
				}
			}
		}
	}

	if len(sentences) > 0 && failures == len(sentences) {
		return nil, fmt.Errorf("all %d annie requests failed: %w", failures, lastErr)
	}
	if failures > 0 {
		logger.Warn("[NER] Some ANNIE requests failed", "failed", failures, "total", len(sentences))
	}
	return mentions, nil
}

func (e *GateExtractor) Close() error {
	return nil
}
