package pipeline

import (
	"context"
	"testing"

	"github.com/OFFIS-RIT/claimgraph/internal/config"
	"github.com/OFFIS-RIT/claimgraph/pkg/ner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadConfig(t *testing.T, overrides map[string]any) *config.Config {
	t.Helper()
	v := config.New()
	for k, val := range overrides {
		v.Set(k, val)
	}
	cfg, err := config.Load(v)
	require.NoError(t, err)
	return cfg
}

func TestParseExtractors(t *testing.T) {
	assert.Equal(t, []string{"annie", "llm"}, ParseExtractors(" Annie, llm,,annie "))
	assert.Nil(t, ParseExtractors(""))
}

func TestNewBuildsDefaultPipeline(t *testing.T) {
	p, err := New(context.Background(), loadConfig(t, nil))
	require.NoError(t, err)
	defer p.Close()

	assert.NotNil(t, p.Graph)
	assert.Nil(t, p.AI)
}

func TestNewRejectsUnknownExtractor(t *testing.T) {
	_, err := New(context.Background(), loadConfig(t, map[string]any{"extractors": "annie,spacy"}))
	assert.ErrorIs(t, err, ner.ErrUnknownExtractor)
}

func TestNewAIClientAdapters(t *testing.T) {
	client, err := NewAIClient(config.AIConfig{Adapter: "ollama", ChatURL: "http://localhost:11434"})
	require.NoError(t, err)
	assert.NotNil(t, client)

	client, err = NewAIClient(config.AIConfig{})
	require.NoError(t, err)
	assert.NotNil(t, client)

	_, err = NewAIClient(config.AIConfig{Adapter: "bedrock"})
	assert.Error(t, err)
}
