// Package gate talks to the GATE Cloud text processing API. The same client
// serves the ANNIE named entity recognizer and the YODIE entity linker.
package gate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/OFFIS-RIT/claimgraph/pkg/ai"
)

const (
	DefaultAnnieURL = "https://cloud-api.gate.ac.uk/process/annie-named-entity-recognizer"
	DefaultYodieURL = "https://cloud-api.gate.ac.uk/process/yodie-en"
)

// ErrQuotaExceeded is returned when the service answers 429.
var ErrQuotaExceeded = errors.New("gate quota exceeded")

// Annotation is one span the service marked in the submitted text.
// Indices are character offsets into the text, end exclusive.
type Annotation struct {
	Indices []int  `json:"indices"`
	Inst    string `json:"inst,omitempty"`
}

// Response is the decoded service output. Entities maps an annotation type
// (Person, Location, Mention, ...) to its spans.
type Response struct {
	Text     string                  `json:"text"`
	Entities map[string][]Annotation `json:"entities"`
}

// Span returns the covered text of a, or false when its indices do not fit
// inside text.
func (a Annotation) Span(text string) (string, bool) {
	if len(a.Indices) != 2 {
		return "", false
	}
	runes := []rune(text)
	start, end := a.Indices[0], a.Indices[1]
	if start < 0 || end > len(runes) || start >= end {
		return "", false
	}
	return string(runes[start:end]), true
}

// Client is a GATE Cloud pipeline endpoint.
type Client struct {
	url        string
	keyID      string
	password   string
	httpClient *http.Client
}

type NewClientParams struct {
	URL        string
	KeyID      string
	Password   string
	HTTPClient *http.Client
}

func NewClient(params NewClientParams) *Client {
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		url:        params.URL,
		keyID:      params.KeyID,
		password:   params.Password,
		httpClient: httpClient,
	}
}

// Process submits text as text/plain and decodes the annotations. Anonymous
// access is used when no key is configured.
func (c *Client) Process(ctx context.Context, text string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "application/json")
	if c.keyID != "" {
		req.SetBasicAuth(c.keyID, c.password)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		return nil, ErrQuotaExceeded
	case res.StatusCode >= 300:
		return nil, fmt.Errorf("gate returned %d: %s", res.StatusCode, strings.TrimSpace(string(bytes.TrimSpace(body))))
	}

	var out Response
	if err := ai.UnmarshalFlexible(string(body), &out); err != nil {
		return nil, fmt.Errorf("failed to decode gate response: %w", err)
	}
	if out.Text == "" {
		out.Text = text
	}
	return &out, nil
}
