// Package align joins resolved entities back onto extracted triples.
package align

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/OFFIS-RIT/claimgraph/pkg/common"
)

// Policy decides when a mention key matches the raw text of a subject or
// object.
type Policy string

const (
	// Substring matches when the raw text contains the key anywhere. This is
	// coarse: the key "Iran" matches "Iranian-backed militia".
	Substring Policy = "substring"
	// TokenBoundary additionally requires the runes around the match to be
	// neither letters nor digits.
	TokenBoundary Policy = "token"
)

// ParsePolicy maps a configuration value to a Policy. The empty string
// selects Substring.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Substring:
		return Substring, nil
	case TokenBoundary, "token_boundary", "token-boundary":
		return TokenBoundary, nil
	default:
		return "", fmt.Errorf("unknown align policy %q", s)
	}
}

type Options struct {
	Policy Policy
	// RequireEntitySubject drops triples whose subject matched no key.
	RequireEntitySubject bool
}

// Aligner rewrites subjects and objects to canonical labels.
type Aligner struct {
	policy               Policy
	requireEntitySubject bool
	keys                 []string
	labels               map[string]string
}

// NewAligner builds an Aligner over a mention -> canonical label mapping.
// Blank keys and blank labels are ignored.
func NewAligner(labels map[string]string, opts Options) *Aligner {
	policy := opts.Policy
	if policy == "" {
		policy = Substring
	}

	a := &Aligner{
		policy:               policy,
		requireEntitySubject: opts.RequireEntitySubject,
		labels:               make(map[string]string, len(labels)),
	}
	for k, v := range labels {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		a.labels[k] = v
		a.keys = append(a.keys, k)
	}

	// longer keys first so "Russian Federation" wins over "Russia"
	sort.Slice(a.keys, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(a.keys[i]), utf8.RuneCountInString(a.keys[j])
		if li != lj {
			return li > lj
		}
		return a.keys[i] < a.keys[j]
	})
	return a
}

// Policy returns the matching policy in effect.
func (a *Aligner) Policy() Policy {
	return a.policy
}

// Match returns the canonical label for raw text, or false when no key
// matches it.
func (a *Aligner) Match(text string) (string, bool) {
	for _, key := range a.keys {
		if a.contains(text, key) {
			return a.labels[key], true
		}
	}
	return "", false
}

// Stats counts what one Align pass rewrote.
type Stats struct {
	Subjects int `json:"subjects"`
	Objects  int `json:"objects"`
	Dropped  int `json:"dropped"`
}

// Align returns a new slice in which every subject and object containing a
// key is replaced by that key's canonical label. Unmatched text is kept as
// is and the verb is never touched. The input is not modified.
func (a *Aligner) Align(triples []common.Triple) []common.Triple {
	out, _ := a.AlignWithStats(triples)
	return out
}

// AlignWithStats is Align that also reports how many fields were rewritten.
func (a *Aligner) AlignWithStats(triples []common.Triple) ([]common.Triple, Stats) {
	var stats Stats
	out := make([]common.Triple, 0, len(triples))
	for _, t := range triples {
		subject, ok := a.Match(t.Subject)
		if ok {
			t.Subject = subject
			stats.Subjects++
		} else if a.requireEntitySubject {
			stats.Dropped++
			continue
		}
		if object, ok := a.Match(t.Object); ok {
			t.Object = object
			stats.Objects++
		}
		out = append(out, t)
	}
	return out, stats
}

func (a *Aligner) contains(text, key string) bool {
	if a.policy != TokenBoundary {
		return strings.Contains(text, key)
	}

	offset := 0
	for {
		idx := strings.Index(text[offset:], key)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(key)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
