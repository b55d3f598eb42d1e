package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/claimgraph/internal/util"
	"github.com/OFFIS-RIT/claimgraph/pkg/align"
	"github.com/OFFIS-RIT/claimgraph/pkg/corpus"
	"github.com/OFFIS-RIT/claimgraph/pkg/export"
	"github.com/OFFIS-RIT/claimgraph/pkg/graph"
	"github.com/OFFIS-RIT/claimgraph/pkg/loader"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger"
)

// storageTries bounds the attempts of every object storage read and write
// within one delivery.
const storageTries = 3

// GraphBuilder runs one construction pass. *graph.GraphClient implements it.
type GraphBuilder interface {
	BuildGraph(ctx context.Context, input graph.BuildInput) (*graph.BuildResult, error)
}

// Processor turns build messages into exported graphs.
type Processor struct {
	loader  loader.FileLoader
	builder GraphBuilder
	sinkFor func(runID string) export.Sink
}

// NewProcessorParams configures a Processor. SinkFor returns where the
// tables of a run are written.
type NewProcessorParams struct {
	Loader  loader.FileLoader
	Builder GraphBuilder
	SinkFor func(runID string) export.Sink
}

func NewProcessor(params NewProcessorParams) *Processor {
	return &Processor{
		loader:  params.Loader,
		builder: params.Builder,
		sinkFor: params.SinkFor,
	}
}

// ProcessBuildMessage loads the inputs named by body, builds the graph and
// exports nodes.csv, edges.csv and report.json for the run.
func (p *Processor) ProcessBuildMessage(ctx context.Context, body []byte) (*graph.BuildResult, error) {
	msg, err := DecodeBuildMessage(body)
	if err != nil {
		return nil, err
	}
	logger.Info("[Queue] Processing build message", "run_id", msg.RunID, "triples_key", msg.TriplesKey)

	triplesFile := loader.NewTriplesFile(loader.NewInputFileParams{
		ID:     msg.RunID,
		Path:   msg.TriplesKey,
		Loader: p.loader,
	})
	data, err := util.RetryWithContext(ctx, storageTries, triplesFile.GetBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to load triples %s: %w", msg.TriplesKey, err)
	}
	triples, stats, err := corpus.ParseTriples(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: triples %s: %v", ErrInvalidMessage, msg.TriplesKey, err)
	}
	logger.Debug(
		"[Queue] Triples parsed",
		"run_id", msg.RunID,
		"rows", stats.Rows,
		"admitted", stats.Admitted,
		"documents", stats.Documents,
	)

	var sentences []string
	if msg.SentencesKey != "" {
		sentencesFile := loader.NewSentencesFile(loader.NewInputFileParams{
			ID:     msg.RunID,
			Path:   msg.SentencesKey,
			Loader: p.loader,
		})
		data, err := util.RetryWithContext(ctx, storageTries, sentencesFile.GetBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to load sentences %s: %w", msg.SentencesKey, err)
		}
		sentences, err = corpus.ParseSentences(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: sentences %s: %v", ErrInvalidMessage, msg.SentencesKey, err)
		}
	}

	res, err := p.builder.BuildGraph(ctx, graph.BuildInput{
		Triples:     triples,
		Sentences:   sentences,
		AlignPolicy: align.Policy(msg.AlignPolicy),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}

	report, err := json.MarshalIndent(res.Report, "", "  ")
	if err != nil {
		return nil, err
	}
	sink := p.sinkFor(msg.RunID)
	// a shutdown during the build still stores the partial graph
	err = util.RetryErrWithContext(context.WithoutCancel(ctx), storageTries, func(ctx context.Context) error {
		return export.ExportRun(ctx, res.Graph, report, sink)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(
		"[Queue] Build message processed",
		"run_id", msg.RunID,
		"nodes", res.Graph.NodeCount(),
		"edges", res.Graph.EdgeCount(),
	)
	return res, nil
}
