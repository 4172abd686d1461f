package interactionnode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	promptx "github.com/tanpawarit/ai-sales-assistant/agent/prompt"
)

func DraftRecommendation(
	ctx context.Context,
	in *GraphState,
	gen contractx.Generator,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if len(in.Documents) == 0 {
		return in, nil
	}

	results := make([]string, 0, len(in.Documents))
	for _, d := range in.Documents {
		results = append(results, d.Content)
	}
	out := gen.Complete(ctx, promptx.Recommendation{
		Profile: profile(in),
		Query:   in.Utterance,
		Results: results,
	})
	if out.Degraded {
		in.warn("recommendation drafting unavailable")
	}
	in.Recommendation = out.Text
	return in, nil
}

func DraftResponse(
	ctx context.Context,
	in *GraphState,
	gen contractx.Generator,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	out := gen.Complete(ctx, promptx.Response{
		Profile:         profile(in),
		Recommendations: in.Recommendation,
		Query:           in.Utterance,
	})
	if out.Degraded {
		in.warn("response drafting unavailable")
	}
	in.Response = out.Text
	return in, nil
}

func Summarize(
	ctx context.Context,
	in *GraphState,
	gen contractx.Generator,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	out := gen.Complete(ctx, promptx.Summary{
		Profile:         profile(in),
		Recommendations: in.Recommendation,
		Query:           in.Utterance,
		Response:        in.Response,
	})
	if out.Degraded {
		in.warn("summary unavailable")
	}
	in.Summary = out.Text
	return in, nil
}

func profile(in *GraphState) promptx.Profile {
	labels := profileLabels(in)
	return promptx.Profile{
		Name:           in.Name,
		Tone:           labels.Tone,
		Intention:      labels.Intention,
		Sentiment:      labels.Sentiment,
		LastDealStatus: string(in.Customer.LastDealStatus),
		Notes:          in.Customer.Notes,
	}
}
