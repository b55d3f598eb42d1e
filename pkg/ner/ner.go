// Package ner runs independent named entity recognizers over the sentence
// set of a run and merges their mentions into one frequency vocabulary.
package ner

import (
	"context"
	"sort"
)

// Extractor is one named entity recognizer. GetEntities returns every
// mention occurrence it finds; the order of the result is not significant.
// An Extractor owns whatever model or connection it needs until Close.
type Extractor interface {
	Name() string
	GetEntities(ctx context.Context, sentences []string) ([]string, error)
	Close() error
}

// DefaultIgnoredCategories are entity categories that never name a
// resolvable entity.
var DefaultIgnoredCategories = []string{
	"TIME", "PERCENT", "MONEY", "QUANTITY", "ORDINAL", "CARDINAL", "DATE",
}

// Vocabulary maps mention text to the number of times it was reported,
// summed over all extractors.
type Vocabulary map[string]int

// Add counts each mention once.
func (v Vocabulary) Add(mentions ...string) {
	for _, m := range mentions {
		v[m]++
	}
}

// Merge adds the counts of other into v.
func (v Vocabulary) Merge(other Vocabulary) {
	for m, n := range other {
		v[m] += n
	}
}

// Mentions returns the distinct mentions, most frequent first and then
// alphabetically, so downstream iteration is deterministic.
func (v Vocabulary) Mentions() []string {
	out := make([]string, 0, len(v))
	for m := range v {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if v[out[i]] != v[out[j]] {
			return v[out[i]] > v[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// Total returns the number of mention occurrences.
func (v Vocabulary) Total() int {
	n := 0
	for _, c := range v {
		n += c
	}
	return n
}
