package llm

import (
	"errors"
	"testing"

	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := Config{APIKey: "k", Model: "m", MaxCompletionToken: 100}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	cfg.APIKey = "  "
	if err := cfg.Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}
}

func TestOpenRouterForOverrides(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIKey:                 " key ",
		Model:                  "base-model",
		MaxCompletionToken:     500,
		Temperature:            0.5,
		ClassifierModel:        "small-model",
		ClassifierTemperature:  0,
		DraftingTemperature:    -1,
		NegotiationModel:       "  ",
		NegotiationTemperature: 0.9,
	}

	classifier := cfg.OpenRouterFor(contractx.TaskClassification)
	if classifier.Model != "small-model" || classifier.Temperature != 0 {
		t.Fatalf("classifier = %s/%v, want small-model/0", classifier.Model, classifier.Temperature)
	}
	if classifier.APIKey != "key" {
		t.Fatalf("APIKey = %q, want trimmed key", classifier.APIKey)
	}

	drafting := cfg.OpenRouterFor(contractx.TaskDrafting)
	if drafting.Model != "base-model" || drafting.Temperature != 0.5 {
		t.Fatalf("drafting = %s/%v, want base-model/0.5", drafting.Model, drafting.Temperature)
	}

	negotiation := cfg.OpenRouterFor(contractx.TaskNegotiation)
	if negotiation.Model != "base-model" || negotiation.Temperature != 0.9 {
		t.Fatalf("negotiation = %s/%v, want base-model/0.9", negotiation.Model, negotiation.Temperature)
	}
	if negotiation.MaxCompletionToken == nil || *negotiation.MaxCompletionToken != 500 {
		t.Fatalf("MaxCompletionToken = %v, want 500", negotiation.MaxCompletionToken)
	}
}
