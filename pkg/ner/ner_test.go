package ner

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OFFIS-RIT/claimgraph/pkg/ai"
	"github.com/OFFIS-RIT/claimgraph/pkg/gate"
	"github.com/OFFIS-RIT/claimgraph/pkg/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticExtractor struct {
	name     string
	mentions []string
	err      error
	panics   bool
	calls    int
	closed   bool
}

func (s *staticExtractor) Name() string { return s.name }

func (s *staticExtractor) GetEntities(ctx context.Context, sentences []string) ([]string, error) {
	s.calls++
	if s.panics {
		panic("model crashed")
	}
	return s.mentions, s.err
}

func (s *staticExtractor) Close() error {
	s.closed = true
	return nil
}

var sentences = []string{"Russia invaded Ukraine.", "NATO condemned Russia."}

func TestAggregateMergesAcrossExtractors(t *testing.T) {
	a := &staticExtractor{name: "a", mentions: []string{"Russia", "Ukraine", "Russia"}}
	b := &staticExtractor{name: "b", mentions: []string{"Russia", " NATO ", ""}}

	vocab, report := NewAggregator(a, b).Aggregate(context.Background(), sentences)

	assert.Equal(t, Vocabulary{"Russia": 3, "Ukraine": 1, "NATO": 1}, vocab)
	assert.Empty(t, report.Failed)
	assert.Equal(t, map[string]int{"a": 3, "b": 2}, report.Contributions)
	assert.Equal(t, []string{"Russia", "NATO", "Ukraine"}, vocab.Mentions())
}

func TestAggregateIsOrderIndependent(t *testing.T) {
	newA := func() Extractor { return &staticExtractor{name: "a", mentions: []string{"Kyiv", "Kremlin", "Kyiv"}} }
	newB := func() Extractor { return &staticExtractor{name: "b", mentions: []string{"Kremlin", "Putin"}} }

	ab, _ := NewAggregator(newA(), newB()).Aggregate(context.Background(), sentences)
	ba, _ := NewAggregator(newB(), newA()).Aggregate(context.Background(), sentences)

	assert.Equal(t, ab, ba)
	assert.Equal(t, ab.Mentions(), ba.Mentions())
}

func TestAggregateIsolatesFailures(t *testing.T) {
	failing := &staticExtractor{name: "broken", mentions: []string{"ignored"}, err: errors.New("model unavailable")}
	panicking := &staticExtractor{name: "panicky", panics: true}
	healthy := &staticExtractor{name: "ok", mentions: []string{"Ukraine"}}

	vocab, report := NewAggregator(failing, panicking, healthy).Aggregate(context.Background(), sentences)

	assert.Equal(t, Vocabulary{"Ukraine": 1}, vocab)
	require.Len(t, report.Failed, 2)
	assert.Equal(t, "broken", report.Failed[0].Extractor)
	assert.Contains(t, report.Failed[1].Error, "panicked")
	assert.Equal(t, 1, healthy.calls)
}

func TestAggregateEmptyInputSkipsExtractors(t *testing.T) {
	ex := &staticExtractor{name: "a", mentions: []string{"x"}}
	vocab, report := NewAggregator(ex).Aggregate(context.Background(), nil)
	assert.Empty(t, vocab)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 0, ex.calls)
}

func TestAggregateCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ex := &staticExtractor{name: "a", mentions: []string{"x"}}
	vocab, report := NewAggregator(ex).Aggregate(ctx, sentences)
	assert.Empty(t, vocab)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, 0, ex.calls)
}

func TestAggregatorCloseReleasesAll(t *testing.T) {
	a := &staticExtractor{name: "a"}
	b := &staticExtractor{name: "b"}
	require.NoError(t, NewAggregator(a, b).Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestVocabularyMentionsTieBreak(t *testing.T) {
	v := Vocabulary{"b": 2, "a": 2, "c": 5}
	assert.Equal(t, []string{"c", "a", "b"}, v.Mentions())
	assert.Equal(t, 9, v.Total())
}

type fakeAI struct {
	mu       sync.Mutex
	prompts  []string
	respond  func(prompt string) []llmEntity
	loaded   bool
	unloaded bool
}

func (f *fakeAI) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	res := out.(*llmResponse)
	res.Entities = f.respond(prompt)
	return nil
}

func (f *fakeAI) LoadModel(ctx context.Context, opts ...ai.GenerateOption) error {
	f.loaded = true
	return nil
}

func (f *fakeAI) UnloadModel(ctx context.Context, opts ...ai.GenerateOption) error {
	f.unloaded = true
	return nil
}

func (f *fakeAI) ResetMetrics()               {}
func (f *fakeAI) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func TestLLMExtractorFiltersAndBatches(t *testing.T) {
	client := &fakeAI{respond: func(prompt string) []llmEntity {
		var out []llmEntity
		if strings.Contains(prompt, "Russia invaded") {
			out = append(out,
				llmEntity{Text: "Russia", Category: "LOCATION"},
				llmEntity{Text: "Ukraine", Category: "LOCATION"},
				llmEntity{Text: "2022", Category: "DATE"},
				llmEntity{Text: "Atlantis", Category: "LOCATION"},
			)
		}
		if strings.Contains(prompt, "NATO condemned") {
			out = append(out, llmEntity{Text: "NATO", Category: "organization"}, llmEntity{Text: "Russia", Category: "LOCATION"})
		}
		return out
	}}

	ex, err := NewLLMExtractor(context.Background(), NewLLMExtractorParams{
		Client:       client,
		MaxTokens:    6,
		TokenCounter: ai.EstimateTokens,
	})
	require.NoError(t, err)
	assert.True(t, client.loaded)
	assert.Equal(t, "llm", ex.Name())

	mentions, err := ex.GetEntities(context.Background(), []string{"Russia invaded Ukraine in 2022.", "NATO condemned Russia."})
	require.NoError(t, err)

	assert.Len(t, client.prompts, 2)
	assert.ElementsMatch(t, []string{"Russia", "Ukraine", "NATO", "Russia"}, mentions)

	require.NoError(t, ex.Close())
	assert.True(t, client.unloaded)
}

func TestLLMExtractorEmptyInputMakesNoCalls(t *testing.T) {
	client := &fakeAI{respond: func(string) []llmEntity { return nil }}
	ex, err := NewLLMExtractor(context.Background(), NewLLMExtractorParams{Client: client, TokenCounter: ai.EstimateTokens})
	require.NoError(t, err)

	mentions, err := ex.GetEntities(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, mentions)
	assert.Empty(t, client.prompts)
}

func TestLLMExtractorSingleBatchWhenBudgetAllows(t *testing.T) {
	client := &fakeAI{respond: func(string) []llmEntity { return nil }}
	ex, err := NewLLMExtractor(context.Background(), NewLLMExtractorParams{Client: client, TokenCounter: ai.EstimateTokens})
	require.NoError(t, err)

	_, err = ex.GetEntities(context.Background(), sentences)
	require.NoError(t, err)
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "1. Russia invaded Ukraine.")
	assert.Contains(t, client.prompts[0], "2. NATO condemned Russia.")
}

func TestGateExtractorCollectsAnnotations(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(strings.Builder)
		_, _ = io.Copy(buf, r.Body)
		mu.Lock()
		bodies = append(bodies, buf.String())
		mu.Unlock()

		switch buf.String() {
		case "Putin visited Kyiv.":
			_, _ = w.Write([]byte(`{"text":"Putin visited Kyiv.","entities":{"Person":[{"indices":[0,5]}],"Location":[{"indices":[14,18]}],"Date":[{"indices":[0,1]}]}}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	ex := NewGateExtractor(NewGateExtractorParams{
		Client:   gate.NewClient(gate.NewClientParams{URL: srv.URL}),
		Throttle: ratelimit.NewThrottle(1, time.Millisecond),
	})

	mentions, err := ex.GetEntities(context.Background(), []string{"Putin visited Kyiv.", "broken"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kyiv", "Putin"}, mentions)
	assert.Len(t, bodies, 2)
}

func TestGateExtractorAllRequestsFailing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ex := NewGateExtractor(NewGateExtractorParams{
		Client:   gate.NewClient(gate.NewClientParams{URL: srv.URL}),
		Throttle: ratelimit.NewThrottle(1, time.Millisecond),
	})
	_, err := ex.GetEntities(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, gate.ErrQuotaExceeded))
}

func TestBuildUnknownExtractor(t *testing.T) {
	_, err := Build(context.Background(), []string{"spacy"}, Deps{})
	assert.True(t, errors.Is(err, ErrUnknownExtractor))
}

func TestBuildClosesOnFailure(t *testing.T) {
	client := &fakeAI{respond: func(string) []llmEntity { return nil }}
	_, err := Build(context.Background(), []string{"llm", "annie"}, Deps{AI: client})
	require.Error(t, err)
	assert.True(t, client.unloaded)
}
