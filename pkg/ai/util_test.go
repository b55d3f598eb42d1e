package ai

import (
	"encoding/json"
	"strings"
	"testing"
)

type mention struct {
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
}

type extraction struct {
	Entities []mention `json:"entities"`
}

func TestUnmarshalFlexible_ObjectVariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  mention
	}{
		{
			name:  "valid json object",
			input: `{"text":"Kyiv"}`,
			want:  mention{Text: "Kyiv"},
		},
		{
			name:  "unquoted key and single quotes",
			input: `{text: 'Kyiv', category: 'LOCATION'}`,
			want:  mention{Text: "Kyiv", Category: "LOCATION"},
		},
		{
			name:  "trailing comma",
			input: `{"text":"NATO",}`,
			want:  mention{Text: "NATO"},
		},
		{
			name:  "double encoded",
			input: `"{\"text\":\"Zelensky\"}"`,
			want:  mention{Text: "Zelensky"},
		},
		{
			name:  "markdown code fence",
			input: "```json\n{\"text\":\"Crimea\"}\n```",
			want:  mention{Text: "Crimea"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got mention
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("UnmarshalFlexible() got = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestUnmarshalFlexible_PythonLiteral(t *testing.T) {
	type annotation struct {
		Indices []int  `json:"indices"`
		Inst    string `json:"inst"`
	}
	type response struct {
		Text     string                  `json:"text"`
		Entities map[string][]annotation `json:"entities"`
	}

	input := `{'text': 'Russia', 'entities': {'Mention': [{'indices': [0, 6], 'inst': 'http://dbpedia.org/resource/Russia'}]}}`
	var got response
	if err := UnmarshalFlexible(input, &got); err != nil {
		t.Fatalf("UnmarshalFlexible() error = %v", err)
	}
	if got.Text != "Russia" || len(got.Entities["Mention"]) != 1 {
		t.Fatalf("UnmarshalFlexible() got = %+v", got)
	}
	if got.Entities["Mention"][0].Inst != "http://dbpedia.org/resource/Russia" {
		t.Fatalf("inst = %q", got.Entities["Mention"][0].Inst)
	}
}

func TestUnmarshalFlexible_Nested(t *testing.T) {
	input := `{entities: [{text:'Russia', category:'LOCATION'},{text:'Putin', category:'PERSON',}]}`
	var got extraction
	if err := UnmarshalFlexible(input, &got); err != nil {
		t.Fatalf("UnmarshalFlexible() error = %v", err)
	}
	if len(got.Entities) != 2 || got.Entities[0].Text != "Russia" || got.Entities[1].Category != "PERSON" {
		t.Fatalf("UnmarshalFlexible() got = %+v", got)
	}
}

func TestUnmarshalFlexible_Unrecoverable(t *testing.T) {
	for _, input := range []string{"hello", "   "} {
		var got mention
		if err := UnmarshalFlexible(input, &got); err == nil {
			t.Fatalf("UnmarshalFlexible(%q) expected error", input)
		}
	}
}

func TestGenerateSchema_Strict(t *testing.T) {
	schema := GenerateSchema(&extraction{})
	raw, err := json.Marshal(schema)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	s := string(raw)
	if !strings.Contains(s, `"entities"`) {
		t.Fatalf("schema misses entities property: %s", s)
	}
	if !strings.Contains(s, `"additionalProperties":false`) {
		t.Fatalf("schema allows additional properties: %s", s)
	}
	if strings.Contains(s, `"$ref"`) {
		t.Fatalf("schema should be inlined: %s", s)
	}
}

func TestModelMetricsAdd(t *testing.T) {
	var m ModelMetrics
	m.Add(ModelMetrics{Requests: 1, InputTokens: 80, OutputTokens: 20, TotalTokens: 100, DurationMs: 500})
	m.Add(ModelMetrics{Requests: 1, InputTokens: 40, OutputTokens: 10, TotalTokens: 50, DurationMs: 500})

	if m.Requests != 2 || m.TotalTokens != 150 || m.DurationMs != 1000 {
		t.Fatalf("Add() got = %+v", m)
	}
	if m.TokenPerSecond != 150 {
		t.Fatalf("TokenPerSecond = %v, want 150", m.TokenPerSecond)
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Fatalf("empty text should have zero tokens")
	}
	if got := EstimateTokens("Russia invaded Ukraine."); got != 6 {
		t.Fatalf("EstimateTokens() = %d, want 6", got)
	}
}
