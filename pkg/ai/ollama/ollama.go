package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/OFFIS-RIT/claimgraph/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// DefaultBaseURL is the address of a local Ollama server.
const DefaultBaseURL = "http://localhost:11434"

// OllamaClient implements ai.Client on a locally hosted Ollama model. The
// model is held in memory between LoadModel and UnloadModel.
type OllamaClient struct {
	extractionModel string

	reqLock      *semaphore.Weighted
	tokenCounter ai.TokenCounter

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	Client *api.Client
}

// NewOllamaClientParams configures an OllamaClient.
//
// MaxConcurrentRequests bounds the number of in-flight chat requests and
// defaults to 1. TokenCounter sizes the context window and defaults to
// ai.CountTokens.
type NewOllamaClientParams struct {
	ExtractionModel string

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
	TokenCounter          ai.TokenCounter
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

func NewOllamaClient(params NewOllamaClientParams) (*OllamaClient, error) {
	baseURL := params.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{}
	if params.ApiKey != "" {
		headers["Authorization"] = "Bearer " + params.ApiKey
	}
	httpClient := &http.Client{
		Transport: &headerTransport{headers: headers, rt: http.DefaultTransport},
	}

	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	counter := params.TokenCounter
	if counter == nil {
		counter = ai.CountTokens
	}

	return &OllamaClient{
		extractionModel: params.ExtractionModel,
		reqLock:         semaphore.NewWeighted(maxConcurrent),
		tokenCounter:    counter,
		Client:          api.NewClient(u, httpClient),
	}, nil
}
