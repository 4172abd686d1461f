package interactionnode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
)

const (
	PathPersistExisting = "persist_existing"
	PathPersistNew      = "persist_new"
)

// PersistPath picks the persistence node for the resolved customer.
func PersistPath(in *GraphState) (string, error) {
	if in == nil {
		return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Found {
		return PathPersistExisting, nil
	}
	return PathPersistNew, nil
}

func PersistExisting(
	ctx context.Context,
	in *GraphState,
	repo contractx.CustomerRepository,
) (*GraphState, error) {
	if in == nil || !in.Found {
		return nil, fmt.Errorf("%w: no resolved customer to update", contractx.ErrValidation)
	}

	id, err := repo.UpdateLatestInteraction(ctx, contractx.InteractionUpdate{
		CustomerID:     in.CustomerID,
		Status:         contractx.StatusActive,
		Notes:          in.Summary,
		Recommendation: in.Recommendation,
		Labels:         in.Labels,
	})
	if err != nil {
		return nil, fmt.Errorf("update customer %d: %w", in.CustomerID, err)
	}

	in.InteractionID = id
	in.Status = contractx.StatusActive
	return in, nil
}

func PersistNew(
	ctx context.Context,
	in *GraphState,
	repo contractx.CustomerRepository,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	id, err := repo.CreateCustomer(ctx, contractx.NewCustomer{
		Name:           in.Name,
		Labels:         in.Labels,
		Notes:          in.Summary,
		Recommendation: in.Recommendation,
	})
	if err != nil {
		return nil, fmt.Errorf("create customer %q: %w", in.Name, err)
	}

	in.CustomerID = id
	in.Status = contractx.StatusNew
	return in, nil
}
