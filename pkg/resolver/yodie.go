package resolver

import (
	"context"

	"github.com/OFFIS-RIT/claimgraph/pkg/common"
	"github.com/OFFIS-RIT/claimgraph/pkg/gate"
)

// YodieResolver links text to DBpedia resources through the GATE YODIE
// pipeline. Each Mention annotation carrying an instance URI becomes one
// candidate, in the order the service reports them.
type YodieResolver struct {
	client *gate.Client
}

func NewYodieResolver(client *gate.Client) *YodieResolver {
	return &YodieResolver{client: client}
}

func (r *YodieResolver) Resolve(ctx context.Context, text string) ([]common.Candidate, error) {
	res, err := r.client.Process(ctx, text)
	if err != nil {
		return nil, err
	}

	var candidates []common.Candidate
	for _, m := range res.Entities["Mention"] {
		if m.Inst == "" {
			continue
		}
		span, ok := m.Span(res.Text)
		if !ok {
			span = text
		}
		candidates = append(candidates, common.Candidate{Link: m.Inst, Text: span})
	}
	return candidates, nil
}
