// Package corpus reads the artifacts produced by the upstream segmentation
// and open information extraction steps.
package corpus

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/OFFIS-RIT/claimgraph/pkg/common"

	"golang.org/x/text/encoding/charmap"
)

// SentinelSentence is appended by the segmenter after every document so the
// boundaries survive the trip through the extraction engine.
const SentinelSentence = "Dummy is a dummy."

const sentinelSubject = "Dummy"

// ErrEmptyInput is returned when an input holds no usable rows at all.
var ErrEmptyInput = errors.New("empty input")

// Stats describes one ParseTriples pass.
type Stats struct {
	Rows      int
	Admitted  int
	Dropped   int
	Sentinels int
	Documents int
}

// ParseTriples reads OpenIE output with the columns confidence, subject,
// verb and object separated by tabs. Rows missing subject, verb or object
// are dropped and counted. An unparseable confidence leaves Confidence nil
// and keeps the row.
//
// Triples produced from the sentinel sentence close the current document.
// Consecutive sentinel rows count as a single boundary.
func ParseTriples(r io.Reader) ([]common.Triple, Stats, error) {
	var (
		triples  []common.Triple
		stats    Stats
		document int
		pending  bool
		seenRow  bool
	)

	err := scanLines(r, func(line string) {
		if strings.TrimSpace(line) == "" {
			return
		}
		fields := strings.Split(line, "\t")
		if stats.Rows == 0 && len(fields) > 0 && strings.EqualFold(strings.TrimSpace(fields[0]), "confidence") {
			return
		}
		stats.Rows++

		var confidence, subject, verb, object string
		for i, f := range fields {
			switch i {
			case 0:
				confidence = f
			case 1:
				subject = strings.TrimSpace(f)
			case 2:
				verb = strings.TrimSpace(f)
			case 3:
				object = strings.TrimSpace(f)
			}
		}

		if subject == sentinelSubject {
			stats.Sentinels++
			pending = true
			return
		}
		if pending {
			document++
			pending = false
		}
		seenRow = true

		t := common.Triple{
			Document:   document,
			Confidence: parseConfidence(confidence),
			Subject:    subject,
			Verb:       verb,
			Object:     object,
		}
		if !t.Valid() {
			stats.Dropped++
			return
		}
		stats.Admitted++
		triples = append(triples, t)
	})
	if err != nil {
		return nil, stats, err
	}

	if seenRow {
		stats.Documents = document + 1
	}
	if stats.Rows == 0 {
		return nil, stats, ErrEmptyInput
	}
	return triples, stats, nil
}

func parseConfidence(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseSentences reads one sentence per line. Blank lines are skipped and
// the sentinel sentence is removed, both as a line of its own and as a
// suffix the segmenter glued onto a line.
func ParseSentences(r io.Reader) ([]string, error) {
	var sentences []string
	err := scanLines(r, func(line string) {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimSuffix(line, SentinelSentence))
		if line == "" {
			return
		}
		sentences = append(sentences, line)
	})
	if err != nil {
		return nil, err
	}
	if len(sentences) == 0 {
		return nil, ErrEmptyInput
	}
	return sentences, nil
}

// GroupByDocument buckets triples by their Document index. Documents that
// contributed no triples show up as empty groups.
func GroupByDocument(triples []common.Triple) [][]common.Triple {
	size := 0
	for _, t := range triples {
		if t.Document+1 > size {
			size = t.Document + 1
		}
	}
	groups := make([][]common.Triple, size)
	for _, t := range triples {
		if t.Document < 0 {
			continue
		}
		groups[t.Document] = append(groups[t.Document], t)
	}
	return groups
}

// scanLines feeds every line of r to fn. Input that is not valid UTF-8 is
// decoded as ISO-8859-1, which is what the extraction engine writes.
func scanLines(r io.Reader, fn func(line string)) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if !utf8.Valid(data) {
		data, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		fn(strings.TrimSuffix(scanner.Text(), "\r"))
	}
	return scanner.Err()
}
