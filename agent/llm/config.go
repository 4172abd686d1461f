package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	openrouterx "github.com/tanpawarit/ai-sales-assistant/pkg/openrouter"
)

// Config holds the shared chat endpoint settings plus optional per-task model
// and temperature overrides. A negative override temperature means "inherit".
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"1200"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	ClassifierModel        string  `envconfig:"CLASSIFIER_MODEL" split_words:"true"`
	DraftingModel          string  `envconfig:"DRAFTING_MODEL" split_words:"true"`
	NegotiationModel       string  `envconfig:"NEGOTIATION_MODEL" split_words:"true"`
	ClassifierTemperature  float32 `envconfig:"CLASSIFIER_TEMPERATURE" split_words:"true" default:"0"`
	DraftingTemperature    float32 `envconfig:"DRAFTING_TEMPERATURE" split_words:"true" default:"-1"`
	NegotiationTemperature float32 `envconfig:"NEGOTIATION_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: llm api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	if c.MaxCompletionToken <= 0 {
		return fmt.Errorf("%w: max completion token must be > 0", contractx.ErrValidation)
	}
	return nil
}

// OpenRouterFor resolves the endpoint config used for one task.
func (c Config) OpenRouterFor(task contractx.Task) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	override := func(m string, t float32) {
		if v := strings.TrimSpace(m); v != "" {
			modelName = v
		}
		if t >= 0 {
			temp = t
		}
	}

	switch task {
	case contractx.TaskClassification:
		override(c.ClassifierModel, c.ClassifierTemperature)
	case contractx.TaskDrafting:
		override(c.DraftingModel, c.DraftingTemperature)
	case contractx.TaskNegotiation:
		override(c.NegotiationModel, c.NegotiationTemperature)
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

// Tasks lists every task that needs a chat model.
func Tasks() []contractx.Task {
	return []contractx.Task{
		contractx.TaskClassification,
		contractx.TaskDrafting,
		contractx.TaskNegotiation,
	}
}
