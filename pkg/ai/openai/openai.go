package openai

import (
	"sync"

	"github.com/OFFIS-RIT/claimgraph/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIClient implements ai.Client against any OpenAI compatible chat
// completion endpoint.
type OpenAIClient struct {
	extractionModel string
	chatURL         string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient *openai.Client
}

// NewOpenAIClientParams configures an OpenAIClient. ChatURL may be empty to
// use the public OpenAI API.
type NewOpenAIClientParams struct {
	ExtractionModel string
	ChatURL         string
	ChatKey         string
	MaxRetries      int
}

func NewOpenAIClient(params NewOpenAIClientParams) *OpenAIClient {
	return &OpenAIClient{
		extractionModel: params.ExtractionModel,
		chatURL:         params.ChatURL,
		ChatClient:      newOpenaiClient(params.ChatURL, params.ChatKey, params.MaxRetries),
	}
}

func newOpenaiClient(baseURL string, apiKey string, maxRetries int) *openai.Client {
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}
	if maxRetries > 0 {
		options = append(options, option.WithMaxRetries(maxRetries))
	}

	client := openai.NewClient(options...)
	return &client
}

// ResetMetrics clears all accumulated metrics.
func (c *OpenAIClient) ResetMetrics() {
	c.metricsLock.Lock()
	c.metrics = ai.ModelMetrics{}
	c.metricsLock.Unlock()
}

// GetMetrics returns the metrics accumulated since the last reset.
func (c *OpenAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *OpenAIClient) modifyMetrics(m ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics.Add(m)
}
