package openrouter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type ChatModelBuilder interface {
	New(ctx context.Context) (model.ToolCallingChatModel, error)
}

var _ ChatModelBuilder = (*Config)(nil)

// Models that reject reasoning parameters unless they are explicitly disabled.
var ReasoningBlacklist = map[string]bool{
	"x-ai/grok-4.1-fast": true,
}

// Config describes one OpenAI-compatible chat endpoint. OpenRouter is the
// default, but any compatible base URL (Groq, OpenAI, a local gateway) works.
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken *int          `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"1200"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
}

// EmbeddingConfig describes the embeddings endpoint used to index listings.
type EmbeddingConfig struct {
	BaseURL   string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey    string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model     string        `envconfig:"MODEL" split_words:"true" default:"text-embedding-3-small"`
	BatchSize int           `envconfig:"BATCH_SIZE" split_words:"true" default:"64"`
	Timeout   time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

func (c *Config) New(ctx context.Context) (model.ToolCallingChatModel, error) {
	modelName := strings.TrimSpace(c.Model)
	if modelName == "" {
		return nil, fmt.Errorf("openrouter: model is required")
	}

	conf := &openaimodel.ChatModelConfig{
		BaseURL:     strings.TrimRight(c.BaseURL, "/"),
		APIKey:      strings.TrimSpace(c.APIKey),
		Model:       modelName,
		MaxTokens:   c.MaxCompletionToken,
		Temperature: &c.Temperature,
		Timeout:     c.Timeout,
	}

	if c.SiteURL != "" || c.SiteName != "" {
		conf.HTTPClient = &http.Client{
			Timeout: c.Timeout,
			Transport: attribution{
				next:     http.DefaultTransport,
				siteURL:  strings.TrimSpace(c.SiteURL),
				siteName: strings.TrimSpace(c.SiteName),
			},
		}
	}

	if ReasoningBlacklist[modelName] {
		conf.ExtraFields = map[string]any{
			"reasoning": map[string]any{
				"exclude": true,
				"effort":  "none",
			},
		}
	}

	m, err := openaimodel.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("openrouter: create chat model %s: %w", modelName, err)
	}

	return m, nil
}

// NewEmbeddingClient creates an OpenAI SDK client for the embeddings endpoint.
func NewEmbeddingClient(cfg EmbeddingConfig) *openaisdk.Client {
	opts := clientOptions(cfg.APIKey, cfg.BaseURL, cfg.Timeout)
	if opts == nil {
		return nil
	}
	client := openaisdk.NewClient(opts...)
	return &client
}

func clientOptions(apiKey, baseURL string, timeout time.Duration) []option.RequestOption {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil
	}

	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(1),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	return opts
}

// attribution adds the OpenRouter app ranking headers to every request.
type attribution struct {
	next     http.RoundTripper
	siteURL  string
	siteName string
}

func (a attribution) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if a.siteURL != "" {
		req.Header.Set("HTTP-Referer", a.siteURL)
	}
	if a.siteName != "" {
		req.Header.Set("X-Title", a.siteName)
	}
	return a.next.RoundTrip(req)
}
