package negotiationnode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	promptx "github.com/tanpawarit/ai-sales-assistant/agent/prompt"
)

// DraftGuidance generates the next piece of seller guidance. Only the most
// recent guidance is fed back as context.
func DraftGuidance(
	ctx context.Context,
	in *TurnState,
	gen contractx.Generator,
) (*TurnState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: turn session is nil", contractx.ErrValidation)
	}

	s := in.Session
	out := gen.Complete(ctx, promptx.Guidance{
		CustomerName:     s.CustomerName,
		Sentiment:        in.Labels.Sentiment,
		Tone:             in.Labels.Tone,
		Recommendation:   s.Recommendation,
		CurrentDiscount:  s.CurrentDiscount,
		MaxDiscount:      s.MaxDiscount,
		Query:            in.Utterance,
		PreviousGuidance: s.LatestGuidance(),
		Result:           promptx.ResultContinue,
	})
	if out.Degraded {
		in.warn("negotiation guidance unavailable")
	}

	in.Guidance = out.Text
	s.AppendGuidance(out.Text, in.Now)
	return in, nil
}
