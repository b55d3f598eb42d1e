package corpus

import (
	"errors"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/claimgraph/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTriplesFiltersMalformedRows(t *testing.T) {
	input := strings.Join([]string{
		"0.9\tRussia\tinvaded\tUkraine",
		"0.7\tRussia\tdenied\tinvasion",
		"0.5\tRussia\tdenied\t",
		"0.4\t\tclaimed\tbiolabs",
		"0.3\tNATO\tprovoked",
	}, "\n")

	triples, stats, err := ParseTriples(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, triples, 2)
	assert.Equal(t, "Russia", triples[0].Subject)
	assert.Equal(t, "invaded", triples[0].Verb)
	assert.Equal(t, "Ukraine", triples[0].Object)
	require.NotNil(t, triples[0].Confidence)
	assert.InDelta(t, 0.9, *triples[0].Confidence, 1e-9)

	assert.Equal(t, 5, stats.Rows)
	assert.Equal(t, 2, stats.Admitted)
	assert.Equal(t, 3, stats.Dropped)
	assert.Equal(t, 1, stats.Documents)
}

func TestParseTriplesUnparseableConfidenceKeepsRow(t *testing.T) {
	triples, _, err := ParseTriples(strings.NewReader("n/a\tKyiv\tis\tcapital\n"))
	require.NoError(t, err)
	require.Len(t, triples, 1)
	assert.Nil(t, triples[0].Confidence)
}

func TestParseTriplesSkipsHeader(t *testing.T) {
	triples, stats, err := ParseTriples(strings.NewReader("Confidence\tSubject\tVerb\tObject\n1.0\tA\tb\tC\n"))
	require.NoError(t, err)
	assert.Len(t, triples, 1)
	assert.Equal(t, 1, stats.Rows)
}

func TestParseTriplesSentinelSplitsDocuments(t *testing.T) {
	input := strings.Join([]string{
		"0.9\tRussia\tinvaded\tUkraine",
		"1.0\tDummy\tis\ta dummy",
		"1.0\tDummy\tis\tdummy",
		"0.8\tNATO\texpanded\teast",
		"1.0\tDummy\tis\ta dummy",
		"0.6\tBiolabs\texist in\tUkraine",
	}, "\n")

	triples, stats, err := ParseTriples(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, triples, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{triples[0].Document, triples[1].Document, triples[2].Document})
	assert.Equal(t, 3, stats.Sentinels)
	assert.Equal(t, 3, stats.Documents)
	for _, tr := range triples {
		assert.NotEqual(t, "Dummy", tr.Subject)
	}
}

func TestParseTriplesLatin1Input(t *testing.T) {
	// "Zürich" in ISO-8859-1
	input := []byte("0.9\tZ\xfcrich\thosts\tsummit\n")
	triples, _, err := ParseTriples(strings.NewReader(string(input)))
	require.NoError(t, err)
	require.Len(t, triples, 1)
	assert.Equal(t, "Zürich", triples[0].Subject)
}

func TestParseTriplesEmpty(t *testing.T) {
	_, _, err := ParseTriples(strings.NewReader("\n\n"))
	assert.True(t, errors.Is(err, ErrEmptyInput))
}

func TestParseSentences(t *testing.T) {
	input := "Russia invaded Ukraine. Dummy is a dummy.\n\nDummy is a dummy.\r\n  NATO expanded east.  \n"
	sentences, err := ParseSentences(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"Russia invaded Ukraine.", "NATO expanded east."}, sentences)
}

func TestParseSentencesEmpty(t *testing.T) {
	_, err := ParseSentences(strings.NewReader("Dummy is a dummy.\n"))
	assert.True(t, errors.Is(err, ErrEmptyInput))
}

func TestGroupByDocument(t *testing.T) {
	groups := GroupByDocument([]common.Triple{
		{Document: 0, Subject: "a"},
		{Document: 2, Subject: "b"},
		{Document: 0, Subject: "c"},
	})
	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 2)
	assert.Empty(t, groups[1])
	assert.Equal(t, "b", groups[2][0].Subject)
	assert.Empty(t, GroupByDocument(nil))
}
