package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/claimgraph/internal/queue"
	mid "github.com/OFFIS-RIT/claimgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/claimgraph/internal/storage"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "secret"

type recordingPublisher struct {
	keys   []string
	bodies [][]byte
	err    error
}

func (r *recordingPublisher) Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if r.err != nil {
		return r.err
	}
	r.keys = append(r.keys, key)
	r.bodies = append(r.bodies, msg.Body)
	return nil
}

// fakeBucket answers ListObjectsV2 with the keys it holds.
func fakeBucket(t *testing.T, keys ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Name>claims</Name>`)
		for _, k := range keys {
			if strings.HasPrefix(k, prefix) {
				fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>1</Size></Contents>", k)
			}
		}
		b.WriteString("<IsTruncated>false</IsTruncated></ListBucketResult>")
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(b.String()))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, pub queue.Publisher, keys ...string) http.Handler {
	t.Helper()
	bucket := fakeBucket(t, keys...)
	client, err := storage.NewS3Client(context.Background(), storage.S3Params{
		Region:    "us-east-1",
		Endpoint:  bucket.URL,
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)

	return New(&mid.App{
		Queue:        pub,
		S3:           client,
		Bucket:       "claims",
		MasterAPIKey: testKey,
	})
}

func do(h http.Handler, method, target, body string, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set(mid.APIKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthNeedsNoKey(t *testing.T) {
	h := newTestServer(t, &recordingPublisher{})

	rec := do(h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestAPIRejectsMissingOrWrongKey(t *testing.T) {
	h := newTestServer(t, &recordingPublisher{})

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/api/runs/abc", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/api/runs/abc", "", "wrong").Code)
}

func TestCreateRunPublishesBuildMessage(t *testing.T) {
	pub := &recordingPublisher{}
	h := newTestServer(t, pub)

	rec := do(h, http.MethodPost, "/api/runs", `{"triples_key":"in/triples.tsv","align_policy":"token"}`, testKey)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.RunID)

	require.Equal(t, []string{queue.GraphBuildQueue}, pub.keys)
	msg, err := queue.DecodeBuildMessage(pub.bodies[0])
	require.NoError(t, err)
	assert.Equal(t, resp.RunID, msg.RunID)
	assert.Equal(t, "in/triples.tsv", msg.TriplesKey)
	assert.Equal(t, "token", msg.AlignPolicy)
}

func TestCreateRunValidatesBody(t *testing.T) {
	pub := &recordingPublisher{}
	h := newTestServer(t, pub)

	for _, body := range []string{`{}`, `{"triples_key":"a.tsv","align_policy":"fuzzy"}`, `{`} {
		rec := do(h, http.MethodPost, "/api/runs", body, testKey)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Empty(t, pub.keys)
}

func TestCreateRunReportsPublishFailure(t *testing.T) {
	h := newTestServer(t, &recordingPublisher{err: errors.New("channel closed")})

	rec := do(h, http.MethodPost, "/api/runs", `{"triples_key":"a.tsv"}`, testKey)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetRunStatus(t *testing.T) {
	h := newTestServer(t, &recordingPublisher{}, "runs/r1/nodes.csv")

	rec := do(h, http.MethodGet, "/api/runs/r1", "", testKey)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"processing"`)

	rec = do(h, http.MethodGet, "/api/runs/r2", "", testKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"no_status"`)
}

func TestGetRunExportsReturnsLinks(t *testing.T) {
	h := newTestServer(t, &recordingPublisher{},
		"runs/r1/nodes.csv",
		"runs/r1/edges.csv",
		"runs/r1/report.json",
	)

	rec := do(h, http.MethodGet, "/api/runs/r1/exports", "", testKey)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Status string `json:"status"`
		Files  []struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "processed", resp.Status)
	require.Len(t, resp.Files, 3)
	assert.Equal(t, "nodes.csv", resp.Files[0].Name)
	assert.Contains(t, resp.Files[0].URL, "/claims/runs/r1/nodes.csv")
	assert.Contains(t, resp.Files[0].URL, "X-Amz-Signature=")
}

func TestGetRunExportsNotReady(t *testing.T) {
	h := newTestServer(t, &recordingPublisher{}, "runs/r1/nodes.csv")

	rec := do(h, http.MethodGet, "/api/runs/r1/exports", "", testKey)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRunRejectsBadID(t *testing.T) {
	h := newTestServer(t, &recordingPublisher{})

	rec := do(h, http.MethodGet, "/api/runs/bad.id", "", testKey)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
