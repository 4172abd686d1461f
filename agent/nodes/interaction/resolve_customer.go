package interactionnode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
)

func ResolveCustomer(
	ctx context.Context,
	in *GraphState,
	repo contractx.CustomerRepository,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	rec, found, err := repo.FindLatestByName(ctx, in.Name)
	if err != nil {
		return nil, fmt.Errorf("lookup customer %q: %w", in.Name, err)
	}
	if !found && in.Utterance == "" {
		return nil, ErrMissingUtterance
	}

	in.Customer = rec
	in.Found = found
	if found {
		in.CustomerID = rec.CustomerID
		in.Labels = rec.Labels
	}
	return in, nil
}
