package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/OFFIS-RIT/claimgraph/pkg/common"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const (
	NodesFile  = "nodes.csv"
	EdgesFile  = "edges.csv"
	ReportFile = "report.json"
)

// WriteTimeout bounds the writes of ExportRun.
const WriteTimeout = 2 * time.Minute

var (
	nodesHeader = []string{"Id", "Label"}
	edgesHeader = []string{"Source", "Target", "Type", "Id", "Label", "Weight"}
)

// ErrNoSink is returned by Export when no destination was configured.
var ErrNoSink = errors.New("export sink is nil")

// Graph is the read-only view of a knowledge graph needed for export.
type Graph interface {
	Nodes() []common.Node
	Edges() []common.Edge
}

// Sink stores a rendered table under the given file name.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
}

// WriteNodes renders the nodes table (Id,Label) in insertion order.
func WriteNodes(w io.Writer, g Graph) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(nodesHeader); err != nil {
		return err
	}
	for _, n := range g.Nodes() {
		if err := cw.Write([]string{strconv.Itoa(n.ID), n.Label}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEdges renders the edges table (Source,Target,Type,Id,Label,Weight)
// in insertion order.
func WriteEdges(w io.Writer, g Graph) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(edgesHeader); err != nil {
		return err
	}
	for _, e := range g.Edges() {
		row := []string{
			strconv.Itoa(e.Source),
			strconv.Itoa(e.Target),
			e.Type,
			strconv.Itoa(e.ID),
			e.Label,
			FormatWeight(e.Weight),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatWeight prints a weight with at least one decimal so that 1 renders
// as "1.0", which graph tools read as a float column.
func FormatWeight(w float64) string {
	s := strconv.FormatFloat(w, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// Render returns both tables as bytes.
func Render(g Graph) (nodes []byte, edges []byte, err error) {
	var nb, eb bytes.Buffer
	if err := WriteNodes(&nb, g); err != nil {
		return nil, nil, fmt.Errorf("failed to render nodes table: %w", err)
	}
	if err := WriteEdges(&eb, g); err != nil {
		return nil, nil, fmt.Errorf("failed to render edges table: %w", err)
	}
	return nb.Bytes(), eb.Bytes(), nil
}

// Export renders the graph and stores nodes.csv and edges.csv in sink.
// Any failure is returned; a run without both tables has no usable output.
func Export(ctx context.Context, g Graph, sink Sink) error {
	if sink == nil {
		return ErrNoSink
	}

	nodes, edges, err := Render(g)
	if err != nil {
		return err
	}

	eg, gCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := sink.Put(gCtx, NodesFile, nodes); err != nil {
			return fmt.Errorf("failed to write %s: %w", NodesFile, err)
		}
		return nil
	})
	eg.Go(func() error {
		if err := sink.Put(gCtx, EdgesFile, edges); err != nil {
			return fmt.Errorf("failed to write %s: %w", EdgesFile, err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	logger.Info("[Export] Graph exported", "nodes_bytes", len(nodes), "edges_bytes", len(edges))
	return nil
}

// ExportRun stores both tables and the run report in sink. The writes ignore
// cancellation of ctx so that an interrupted build still leaves its partial
// graph behind; they are bounded by WriteTimeout instead.
func ExportRun(ctx context.Context, g Graph, report []byte, sink Sink) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), WriteTimeout)
	defer cancel()

	if err := Export(ctx, g, sink); err != nil {
		return err
	}
	if err := sink.Put(ctx, ReportFile, report); err != nil {
		return fmt.Errorf("failed to write %s: %w", ReportFile, err)
	}
	return nil
}
