package negotiationnode

import (
	"fmt"

	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	statex "github.com/tanpawarit/ai-sales-assistant/agent/state"
)

// TurnResult is returned by start and by every submitted turn.
type TurnResult struct {
	Session  *statex.NegotiationSession `json:"session"`
	Guidance string                     `json:"guidance"`
	Resumed  bool                       `json:"resumed,omitempty"`
	Warnings []string                   `json:"warnings,omitempty"`
}

func Present(in *TurnState) (TurnResult, error) {
	if in == nil || in.Session == nil {
		return TurnResult{}, fmt.Errorf("%w: turn session is nil", contractx.ErrValidation)
	}
	return TurnResult{
		Session:  in.Session.Clone(),
		Guidance: in.Guidance,
		Warnings: in.Warnings,
	}, nil
}
