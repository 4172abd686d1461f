package interactionnode

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
)

// Classify labels the utterance. An existing customer with no utterance keeps
// the stored labels.
func Classify(
	ctx context.Context,
	in *GraphState,
	classifier contractx.Classifier,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Utterance == "" {
		return in, nil
	}

	in.Labels = ClassifyAll(ctx, classifier, in.Utterance)
	for _, kind := range []contractx.LabelKind{contractx.LabelSentiment, contractx.LabelTone, contractx.LabelIntention} {
		if labelOf(in.Labels, kind) == contractx.UnknownLabel(kind) {
			in.warn("%s classification unavailable", kind)
		}
	}
	return in, nil
}

// ClassifyAll runs the three classifications concurrently.
func ClassifyAll(ctx context.Context, classifier contractx.Classifier, text string) contractx.Labels {
	var (
		labels contractx.Labels
		wg     conc.WaitGroup
	)
	wg.Go(func() { labels.Sentiment = classifier.Classify(ctx, text, contractx.LabelSentiment) })
	wg.Go(func() { labels.Tone = classifier.Classify(ctx, text, contractx.LabelTone) })
	wg.Go(func() { labels.Intention = classifier.Classify(ctx, text, contractx.LabelIntention) })
	wg.Wait()
	return labels
}

func labelOf(l contractx.Labels, kind contractx.LabelKind) string {
	switch kind {
	case contractx.LabelSentiment:
		return l.Sentiment
	case contractx.LabelTone:
		return l.Tone
	default:
		return l.Intention
	}
}
