package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	promptx "github.com/tanpawarit/ai-sales-assistant/agent/prompt"
)

type labelOutput struct {
	Label string `json:"label"`
}

// Classifier labels text through one structured model graph per label kind.
type Classifier struct {
	runners map[contractx.LabelKind]compose.Runnable[map[string]any, labelOutput]
	timeout time.Duration
}

func NewClassifier(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	prompts promptx.PromptSet,
	timeout time.Duration,
) (*Classifier, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: classifier chat model is required", contractx.ErrValidation)
	}

	runners := make(map[contractx.LabelKind]compose.Runnable[map[string]any, labelOutput], 3)
	for _, kind := range []contractx.LabelKind{contractx.LabelSentiment, contractx.LabelTone, contractx.LabelIntention} {
		system, err := prompts.Classification(kind)
		if err != nil {
			return nil, err
		}
		runner, err := compileStructuredLLMGraph[labelOutput](ctx, chatModel, system, "classify."+string(kind))
		if err != nil {
			return nil, fmt.Errorf("%w: compile %s classifier: %v", contractx.ErrModelInvoke, kind, err)
		}
		runners[kind] = runner
	}

	return &Classifier{runners: runners, timeout: timeout}, nil
}

// Classify never fails. Blank input, model errors and unusable labels all
// degrade to the unknown label for kind.
func (c *Classifier) Classify(ctx context.Context, text string, kind contractx.LabelKind) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return contractx.UnknownLabel(kind)
	}

	runner, ok := c.runners[kind]
	if !ok {
		log.Warn().Str("kind", string(kind)).Msg("classifier: unsupported label kind")
		return contractx.UnknownLabel(kind)
	}

	callCtx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	out, err := runner.Invoke(callCtx, map[string]any{"input": text})
	if err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Msg("classifier: model invoke failed")
		return contractx.UnknownLabel(kind)
	}

	label := NormalizeLabel(kind, out.Label)
	if label == "" {
		log.Warn().Str("kind", string(kind)).Str("raw", out.Label).Msg("classifier: empty label")
		return contractx.UnknownLabel(kind)
	}
	return label
}

// NormalizeLabel upper-cases sentiments, lower-cases tones and reduces
// intentions to their first word. It returns "" when nothing usable remains.
func NormalizeLabel(kind contractx.LabelKind, raw string) string {
	raw = strings.TrimSpace(raw)
	switch kind {
	case contractx.LabelSentiment:
		return strings.ToUpper(raw)
	case contractx.LabelTone:
		return strings.ToLower(raw)
	case contractx.LabelIntention:
		fields := strings.Fields(raw)
		if len(fields) == 0 {
			return ""
		}
		return strings.TrimFunc(fields[0], func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_'
		})
	default:
		return raw
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
