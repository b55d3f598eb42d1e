package ner

import (
	"context"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/claimgraph/pkg/ai"
	"github.com/OFFIS-RIT/claimgraph/pkg/gate"
	"github.com/OFFIS-RIT/claimgraph/pkg/ratelimit"
)

// ErrUnknownExtractor is returned by Build for names it does not know.
var ErrUnknownExtractor = errors.New("unknown extractor")

// Deps carries the collaborators extractors may be built from.
type Deps struct {
	AI           ai.Client
	AIOptions    []ai.GenerateOption
	MaxTokens    int
	Gate         *gate.Client
	GateThrottle *ratelimit.Throttle
}

// Build creates the named extractors in order. Known names are "llm" and
// "annie". Extractors created before a failure are closed again.
func Build(ctx context.Context, names []string, deps Deps) ([]Extractor, error) {
	var out []Extractor
	fail := func(err error) ([]Extractor, error) {
		for _, ex := range out {
			_ = ex.Close()
		}
		return nil, err
	}

	for _, name := range names {
		switch name {
		case "llm":
			if deps.AI == nil {
				return fail(fmt.Errorf("extractor %q: no ai client configured", name))
			}
			ex, err := NewLLMExtractor(ctx, NewLLMExtractorParams{
				Client:    deps.AI,
				MaxTokens: deps.MaxTokens,
				Options:   deps.AIOptions,
			})
			if err != nil {
				return fail(err)
			}
			out = append(out, ex)
		case "annie", "gate":
			if deps.Gate == nil {
				return fail(fmt.Errorf("extractor %q: no gate client configured", name))
			}
			out = append(out, NewGateExtractor(NewGateExtractorParams{
				Client:   deps.Gate,
				Throttle: deps.GateThrottle,
			}))
		default:
			return fail(fmt.Errorf("%w: %q", ErrUnknownExtractor, name))
		}
	}
	return out, nil
}
