package negotiationnode

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
)

func ClassifyTurn(
	ctx context.Context,
	in *TurnState,
	classifier contractx.Classifier,
) (*TurnState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: turn session is nil", contractx.ErrValidation)
	}

	in.Session.AppendCustomer(in.Utterance, in.Now)

	var wg conc.WaitGroup
	wg.Go(func() { in.Labels.Sentiment = classifier.Classify(ctx, in.Utterance, contractx.LabelSentiment) })
	wg.Go(func() { in.Labels.Tone = classifier.Classify(ctx, in.Utterance, contractx.LabelTone) })
	wg.Wait()

	if in.Labels.Sentiment == contractx.LabelUnknown {
		in.warn("sentiment classification unavailable")
	}
	if in.Labels.Tone == contractx.LabelUnknown {
		in.warn("tone classification unavailable")
	}
	return in, nil
}
