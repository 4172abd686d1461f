package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
)

var (
	//go:embed template/system.txt
	systemRaw string

	//go:embed template/classify_sentiment.txt
	classifySentimentRaw string

	//go:embed template/classify_tone.txt
	classifyToneRaw string

	//go:embed template/classify_intention.txt
	classifyIntentionRaw string

	//go:embed template/recommendation.txt
	recommendationRaw string

	//go:embed template/response.txt
	responseRaw string

	//go:embed template/summary.txt
	summaryRaw string

	//go:embed template/negotiation.txt
	negotiationRaw string

	//go:embed template/sales_figures.txt
	salesFiguresRaw string

	//go:embed template/notes.txt
	notesRaw string
)

// PromptSet holds loaded prompt content. Bodies are keyed by template name.
type PromptSet struct {
	System            string
	ClassifySentiment string
	ClassifyTone      string
	ClassifyIntention string
	Bodies            map[string]string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		System:            strings.TrimSpace(systemRaw),
		ClassifySentiment: strings.TrimSpace(classifySentimentRaw),
		ClassifyTone:      strings.TrimSpace(classifyToneRaw),
		ClassifyIntention: strings.TrimSpace(classifyIntentionRaw),
		Bodies: map[string]string{
			NameRecommendation: strings.TrimSpace(recommendationRaw),
			NameResponse:       strings.TrimSpace(responseRaw),
			NameSummary:        strings.TrimSpace(summaryRaw),
			NameNegotiation:    strings.TrimSpace(negotiationRaw),
			NameSalesFigures:   strings.TrimSpace(salesFiguresRaw),
			NameNotes:          strings.TrimSpace(notesRaw),
		},
	}
}

// Classification returns the system prompt for a label kind.
func (p PromptSet) Classification(kind contractx.LabelKind) (string, error) {
	var out string
	switch kind {
	case contractx.LabelSentiment:
		out = p.ClassifySentiment
	case contractx.LabelTone:
		out = p.ClassifyTone
	case contractx.LabelIntention:
		out = p.ClassifyIntention
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: classification prompt for %q", contractx.ErrPromptMissing, kind)
	}
	return out, nil
}

// Body returns the user message template registered under name.
func (p PromptSet) Body(name string) (string, error) {
	body := strings.TrimSpace(p.Bodies[name])
	if body == "" {
		return "", fmt.Errorf("%w: template %q", contractx.ErrPromptMissing, name)
	}
	return body, nil
}

// Validate checks that every prompt the runtime needs is present.
func (p PromptSet) Validate() error {
	if strings.TrimSpace(p.System) == "" {
		return fmt.Errorf("%w: system prompt", contractx.ErrPromptMissing)
	}
	for _, kind := range []contractx.LabelKind{contractx.LabelSentiment, contractx.LabelTone, contractx.LabelIntention} {
		if _, err := p.Classification(kind); err != nil {
			return err
		}
	}
	for _, name := range Names() {
		if _, err := p.Body(name); err != nil {
			return err
		}
	}
	return nil
}
