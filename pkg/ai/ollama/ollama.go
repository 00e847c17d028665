package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/paperflow-ai/paperflow/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// Client implements ai.Client using Ollama as the backend. It supports text
// generation, structured output, and page transcription via locally-hosted
// models.
type Client struct {
	extractionModel string
	imageModel      string

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client

	Client *api.Client
}

// NewClientParams contains configuration options for creating a Client.
type NewClientParams struct {
	ExtractionModel string
	ImageModel      string

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewClient creates a new Ollama-based AI client with the specified
// configuration. It connects to the Ollama server at the given BaseURL (or
// the default if empty) and uses the configured models for extraction and
// vision requests.
func NewClient(
	params NewClientParams,
) (*Client, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		},
	}

	cli := api.NewClient(u, httpClient)

	maxRequests := params.MaxConcurrentRequests
	if maxRequests <= 0 {
		maxRequests = 1
	}

	return &Client{
		extractionModel: params.ExtractionModel,
		imageModel:      params.ImageModel,

		reqLock: semaphore.NewWeighted(maxRequests),

		baseURL:    u,
		apiKey:     params.ApiKey,
		httpClient: httpClient,

		Client: cli,
	}, nil
}
