package graph

import (
	"context"
	"errors"
	"time"

	"github.com/OFFIS-RIT/claimgraph/pkg/align"
	"github.com/OFFIS-RIT/claimgraph/pkg/common"
	"github.com/OFFIS-RIT/claimgraph/pkg/corpus"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger"
	"github.com/OFFIS-RIT/claimgraph/pkg/ner"
	"github.com/OFFIS-RIT/claimgraph/pkg/resolver"
)

// BuildInput is everything one run consumes. Sentences are the texts the
// extractors read; when empty, one clause per admitted triple is used.
// AlignPolicy overrides the client's policy for this run when set.
type BuildInput struct {
	Triples     []common.Triple
	Sentences   []string
	AlignPolicy align.Policy
}

// Report collects every degradation that happened during a run. None of
// them is an error: the graph is always assembled from what was available.
//
// DocumentTriples holds, per source document, how many triples became
// edges. Entities lists the canonical entities with the mentions that
// resolved to them.
type Report struct {
	InputTriples     int                      `json:"input_triples"`
	AdmittedTriples  int                      `json:"admitted_triples"`
	FilteredTriples  int                      `json:"filtered_triples"`
	DroppedByAlign   int                      `json:"dropped_by_align"`
	ResolvedSubjects int                      `json:"resolved_subjects"`
	ResolvedObjects  int                      `json:"resolved_objects"`
	DocumentTriples  []int                    `json:"document_triples"`
	AlignPolicy      align.Policy             `json:"align_policy"`
	Extraction       ner.Report               `json:"extraction"`
	Resolution       resolver.Report          `json:"resolution"`
	Entities         []common.CanonicalEntity `json:"entities,omitempty"`
	Duration         time.Duration            `json:"duration"`
}

// BuildResult is the outcome of BuildGraph.
type BuildResult struct {
	Graph      *KnowledgeGraph
	Vocabulary ner.Vocabulary
	Links      resolver.Links
	Report     Report
}

// BuildGraph runs one construction pass: admit triples, aggregate entity
// mentions, resolve them, align triples to canonical labels and add one
// relation per aligned triple.
//
// Extractor failures, unresolved mentions and an interrupted resolution
// degrade the result and are recorded in BuildResult.Report. An error is
// only returned when the pass could not start at all.
func (g *GraphClient) BuildGraph(ctx context.Context, input BuildInput) (*BuildResult, error) {
	start := time.Now()
	opts := g.alignOptions
	if input.AlignPolicy != "" {
		policy, err := align.ParsePolicy(string(input.AlignPolicy))
		if err != nil {
			return nil, err
		}
		opts.Policy = policy
	}
	report := Report{
		InputTriples: len(input.Triples),
		AlignPolicy:  opts.Policy,
	}

	admitted, filtered := admitTriples(input.Triples)
	report.AdmittedTriples = len(admitted)
	report.FilteredTriples = filtered
	logger.Info("[Graph] Triples admitted", "admitted", len(admitted), "filtered", filtered)

	sentences := cleanSentences(input.Sentences)
	if len(sentences) == 0 {
		sentences = sentencesFromTriples(admitted)
	}

	vocab, extraction := g.aggregator.Aggregate(ctx, sentences)
	report.Extraction = extraction

	links := make(resolver.Links)
	if g.resolver != nil && len(vocab) > 0 {
		integrator := resolver.NewIntegrator(g.resolver)
		resolved, resolution, err := integrator.ResolveAll(ctx, vocab.Mentions())
		if err != nil && !errors.Is(err, resolver.ErrInterrupted) {
			return nil, err
		}
		links = resolved
		report.Resolution = resolution
	} else {
		report.Resolution = resolver.Report{Unresolved: vocab.Mentions()}
	}

	aligner := align.NewAligner(links.Labels(), opts)
	aligned, stats := aligner.AlignWithStats(admitted)
	report.DroppedByAlign = stats.Dropped
	report.ResolvedSubjects = stats.Subjects
	report.ResolvedObjects = stats.Objects

	report.Entities = links.Entities()

	kg := NewKnowledgeGraph()
	if skipped := kg.AddTriples(aligned); skipped > 0 {
		logger.Warn("[Graph] Skipped malformed aligned triples", "count", skipped)
	}
	report.DocumentTriples = documentCounts(aligned)
	report.Duration = time.Since(start)

	logger.Info(
		"[Graph] Graph build completed",
		"nodes", kg.NodeCount(),
		"edges", kg.EdgeCount(),
		"mentions", len(vocab),
		"resolved", len(links),
		"interrupted", report.Resolution.Interrupted,
		"duration", report.Duration.String(),
	)

	return &BuildResult{
		Graph:      kg,
		Vocabulary: vocab,
		Links:      links,
		Report:     report,
	}, nil
}

func documentCounts(triples []common.Triple) []int {
	groups := corpus.GroupByDocument(triples)
	counts := make([]int, len(groups))
	for i, g := range groups {
		counts[i] = len(g)
	}
	return counts
}
