package openai

import (
	"sync"

	"github.com/paperflow-ai/paperflow/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// Client implements ai.Client against OpenAI-compatible endpoints. It keeps
// separate underlying clients for chat/extraction and vision so the two can
// point at different providers.
type Client struct {
	extractionModel string
	imageModel      string

	chatURL  string
	chatKey  string
	imageURL string
	imageKey string

	imageLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient  *openai.Client
	ImageClient *openai.Client
}

// NewClientParams defines the configuration for creating a Client.
// ExtractionModel is used for text and structured-output requests,
// ImageModel for page transcription. Chat and image endpoints are
// configured independently.
type NewClientParams struct {
	ExtractionModel string
	ImageModel      string

	ChatURL  string
	ChatKey  string
	ImageURL string
	ImageKey string

	MaxConcurrentImageRequests int64
}

// NewClient creates a Client configured with the provided parameters.
//
// Example:
//
//	params := openai.NewClientParams{
//		ExtractionModel: "gpt-4o-mini",
//		ImageModel:      "gpt-4o-mini",
//		ChatKey:         os.Getenv("OPENAI_API_KEY"),
//		ImageKey:        os.Getenv("OPENAI_API_KEY"),
//	}
//	client := openai.NewClient(params)
func NewClient(params NewClientParams) *Client {
	maxImages := params.MaxConcurrentImageRequests
	if maxImages <= 0 {
		maxImages = 4
	}

	return &Client{
		extractionModel: params.ExtractionModel,
		imageModel:      params.ImageModel,

		chatURL:  params.ChatURL,
		chatKey:  params.ChatKey,
		imageURL: params.ImageURL,
		imageKey: params.ImageKey,

		imageLock: semaphore.NewWeighted(maxImages),

		ChatClient:  newOpenaiClient(params.ChatURL, params.ChatKey),
		ImageClient: newOpenaiClient(params.ImageURL, params.ImageKey),
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}
