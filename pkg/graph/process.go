package graph

import (
	"strings"

	"github.com/OFFIS-RIT/claimgraph/internal/util"
	"github.com/OFFIS-RIT/claimgraph/pkg/common"
)

// admitTriples keeps the triples that may enter the graph. Labels are
// sanitized and trimmed at the ends only, so node lookup stays exact; the
// original order is preserved.
func admitTriples(triples []common.Triple) ([]common.Triple, int) {
	admitted := make([]common.Triple, 0, len(triples))
	filtered := 0
	for _, t := range triples {
		t.Subject = strings.TrimSpace(util.SanitizeText(t.Subject))
		t.Verb = strings.TrimSpace(util.SanitizeText(t.Verb))
		t.Object = strings.TrimSpace(util.SanitizeText(t.Object))
		if !t.Valid() {
			filtered++
			continue
		}
		admitted = append(admitted, t)
	}
	return admitted, filtered
}

// sentencesFromTriples rebuilds one clause per triple for runs that were
// started without the sentence file.
func sentencesFromTriples(triples []common.Triple) []string {
	out := make([]string, 0, len(triples))
	for _, t := range triples {
		s := strings.Join([]string{t.Subject, t.Verb, t.Object}, " ")
		if !strings.HasSuffix(s, ".") {
			s += "."
		}
		out = append(out, s)
	}
	return out
}

func cleanSentences(sentences []string) []string {
	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		s = util.NormalizeWhitespace(util.SanitizeText(s))
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
