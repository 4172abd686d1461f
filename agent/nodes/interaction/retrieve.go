package interactionnode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
)

type QueryMode string

const (
	QueryModeProfile QueryMode = "profile"
	QueryModeIntent  QueryMode = "intent"
)

const (
	ProfileSearchK = 10
	IntentSearchK  = 2

	FallbackRecommendation = "The vector store does not contain data, fallback to generic recommendations."
)

func Retrieve(
	ctx context.Context,
	in *GraphState,
	retriever contractx.Retriever,
	mode QueryMode,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	labels := profileLabels(in)
	k := ProfileSearchK
	if mode == QueryModeIntent {
		in.Query = IntentQuery(labels)
		k = IntentSearchK
	} else {
		in.Query = ProfileQuery(labels, in.Utterance)
	}

	in.Documents = retriever.Search(ctx, in.Query, k)
	if len(in.Documents) == 0 {
		in.Recommendation = FallbackRecommendation
		in.warn("no listings matched; using fallback recommendation")
	}
	return in, nil
}

// ProfileQuery describes the customer for similarity search.
func ProfileQuery(labels contractx.Labels, utterance string) string {
	q := fmt.Sprintf(
		"Customer is interested in second-hand cars. Their tone is %s, intention is %s, and sentiment is %s.",
		orDefault(labels.Tone, "Neutral"),
		orDefault(labels.Intention, "General Inquiry"),
		orDefault(labels.Sentiment, "Neutral"),
	)
	if utterance = strings.TrimSpace(utterance); utterance != "" {
		q += " Query: " + utterance
	}
	return q
}

// IntentQuery maps the intention to a canned catalog query.
func IntentQuery(labels contractx.Labels) string {
	switch strings.ToLower(strings.TrimSpace(labels.Intention)) {
	case "purchase":
		return fmt.Sprintf("Budget-friendly cars, suitable for %s tone customers.", orDefault(labels.Tone, "Neutral"))
	case "inquiry":
		return "Recent models from 2015 onwards"
	default:
		return "General product recommendations"
	}
}

// profileLabels prefers the stored profile for known customers.
func profileLabels(in *GraphState) contractx.Labels {
	if !in.Found {
		return in.Labels
	}
	stored := in.Customer.Labels
	return contractx.Labels{
		Sentiment: orDefault(stored.Sentiment, in.Labels.Sentiment),
		Tone:      orDefault(stored.Tone, in.Labels.Tone),
		Intention: orDefault(stored.Intention, in.Labels.Intention),
	}
}

func orDefault(v, fallback string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return fallback
}
