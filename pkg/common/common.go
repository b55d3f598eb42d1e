package common

import "strings"

// EdgeTypeDirected is the only edge type the graph produces. It is written
// verbatim into the Type column of the edges table.
const EdgeTypeDirected = "Directed"

// DefaultEdgeWeight is the weight assigned to every edge.
const DefaultEdgeWeight = 1.0

// Triple is a single (subject, verb, object) assertion extracted from a
// sentence by the open information extraction engine.
//
// Document is the 0-based index of the source document the sentence belonged
// to. Confidence is nil when the extractor did not report a parseable score.
type Triple struct {
	Document   int      `json:"document"`
	Confidence *float64 `json:"confidence,omitempty"`
	Subject    string   `json:"subject"`
	Verb       string   `json:"verb"`
	Object     string   `json:"object"`
}

// Valid reports whether the triple may enter graph construction: subject,
// verb and object must all be non-empty after trimming whitespace.
func (t Triple) Valid() bool {
	return strings.TrimSpace(t.Subject) != "" &&
		strings.TrimSpace(t.Verb) != "" &&
		strings.TrimSpace(t.Object) != ""
}

// Mention is one surface-form occurrence of an entity name as emitted by an
// extractor. Mentions are not unique.
type Mention struct {
	Text      string `json:"text"`
	Sentence  string `json:"sentence,omitempty"`
	Extractor string `json:"extractor,omitempty"`
}

// Candidate is one answer of the disambiguation oracle: the canonical link
// (e.g. a DBpedia resource URI) and the portion of the query text it matched.
type Candidate struct {
	Link string `json:"link"`
	Text string `json:"text"`
}

// CanonicalEntity is the resolved identity behind one or more mentions.
// Label is the display name used as node label in the graph.
type CanonicalEntity struct {
	Link     string   `json:"link,omitempty"`
	Label    string   `json:"label"`
	Mentions []string `json:"mentions"`
}

// Node is a vertex of the knowledge graph. IDs are assigned at insertion,
// start at 0 and never change.
type Node struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// Edge is a directed, labelled arc between two nodes. Label carries the verb
// phrase of the triple the edge was created from.
type Edge struct {
	ID     int     `json:"id"`
	Source int     `json:"source"`
	Target int     `json:"target"`
	Label  string  `json:"label"`
	Type   string  `json:"type"`
	Weight float64 `json:"weight"`
}
