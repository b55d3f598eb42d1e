package graph

import (
	"github.com/OFFIS-RIT/claimgraph/pkg/align"
	"github.com/OFFIS-RIT/claimgraph/pkg/ner"
	"github.com/OFFIS-RIT/claimgraph/pkg/resolver"
)

// GraphClient runs the construction pipeline for one or more runs. It owns
// the extractors handed to it and releases them on Close.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	aggregator *ner.Aggregator
	resolver   resolver.Resolver

	alignOptions align.Options
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
//
// Resolver may be nil, in which case every mention stays unresolved.
type NewGraphClientParams struct {
	Extractors []ner.Extractor
	Resolver   resolver.Resolver

	AlignPolicy          align.Policy
	RequireEntitySubject bool
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
//
// Example:
//
//	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
//		Extractors: extractors,
//		Resolver:   resolver.Throttled(yodie, ratelimit.NewThrottle(1, time.Second)),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	policy := params.AlignPolicy
	if policy == "" {
		policy = align.Substring
	}
	if _, err := align.ParsePolicy(string(policy)); err != nil {
		return nil, err
	}

	return &GraphClient{
		aggregator: ner.NewAggregator(params.Extractors...),
		resolver:   params.Resolver,
		alignOptions: align.Options{
			Policy:               policy,
			RequireEntitySubject: params.RequireEntitySubject,
		},
	}, nil
}

// Close releases the extractors.
func (g *GraphClient) Close() error {
	return g.aggregator.Close()
}
