package negotiationnode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	statex "github.com/tanpawarit/ai-sales-assistant/agent/state"
)

func SaveSession(
	ctx context.Context,
	in *TurnState,
	store statex.Store,
) (*TurnState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: turn session is nil", contractx.ErrValidation)
	}

	in.Session.Touch(in.Now)
	if err := in.Session.Validate(); err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}
	if err := store.Save(ctx, in.Session); err != nil {
		return nil, fmt.Errorf("%w: save negotiation session: %v", contractx.ErrPersistence, err)
	}
	return in, nil
}
