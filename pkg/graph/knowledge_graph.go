package graph

import (
	"github.com/OFFIS-RIT/claimgraph/pkg/common"
)

// KnowledgeGraph is an append-only directed multigraph whose nodes are
// identified by their exact label.
//
// Nodes and edges keep insertion order and their ids are contiguous from 0.
// A KnowledgeGraph is owned by a single construction pass and is not safe
// for concurrent mutation.
type KnowledgeGraph struct {
	nodes      []common.Node
	edges      []common.Edge
	labelIndex map[string]int
}

// NewKnowledgeGraph returns an empty graph.
func NewKnowledgeGraph() *KnowledgeGraph {
	return &KnowledgeGraph{
		nodes:      make([]common.Node, 0),
		edges:      make([]common.Edge, 0),
		labelIndex: make(map[string]int),
	}
}

// AddRelation ensures nodes exist for subject and object, then appends a
// directed edge labelled verb between them. Labels are compared exactly
// (case-sensitive, no normalization). Duplicate relations are not collapsed.
func (g *KnowledgeGraph) AddRelation(subject, verb, object string) {
	source := g.ensureNode(subject)
	target := g.ensureNode(object)

	g.edges = append(g.edges, common.Edge{
		ID:     len(g.edges),
		Source: source,
		Target: target,
		Label:  verb,
		Type:   common.EdgeTypeDirected,
		Weight: common.DefaultEdgeWeight,
	})
}

func (g *KnowledgeGraph) ensureNode(label string) int {
	if id, ok := g.labelIndex[label]; ok {
		return id
	}
	id := len(g.nodes)
	g.nodes = append(g.nodes, common.Node{ID: id, Label: label})
	g.labelIndex[label] = id
	return id
}

// NodeID returns the id of the node with the given label.
func (g *KnowledgeGraph) NodeID(label string) (int, bool) {
	id, ok := g.labelIndex[label]
	return id, ok
}

// Nodes returns a copy of the nodes in insertion order.
func (g *KnowledgeGraph) Nodes() []common.Node {
	out := make([]common.Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns a copy of the edges in insertion order.
func (g *KnowledgeGraph) Edges() []common.Edge {
	out := make([]common.Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// NodeCount returns the number of nodes.
func (g *KnowledgeGraph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *KnowledgeGraph) EdgeCount() int {
	return len(g.edges)
}

// AddTriples adds one relation per admissible triple and returns how many
// were skipped because subject, verb or object was empty.
func (g *KnowledgeGraph) AddTriples(triples []common.Triple) int {
	skipped := 0
	for _, t := range triples {
		if !t.Valid() {
			skipped++
			continue
		}
		g.AddRelation(t.Subject, t.Verb, t.Object)
	}
	return skipped
}
