package interactionnode

import (
	"fmt"

	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
)

// Outcome is the result of one interaction run.
type Outcome struct {
	CustomerID     int64                `json:"customer_id"`
	CustomerName   string               `json:"customer_name"`
	NewCustomer    bool                 `json:"new_customer"`
	Status         contractx.DealStatus `json:"status"`
	Labels         contractx.Labels     `json:"labels"`
	Recommendation string               `json:"recommendation"`
	Response       string               `json:"response"`
	Summary        string               `json:"summary"`
	Documents      []contractx.Document `json:"documents,omitempty"`
	Warnings       []string             `json:"warnings,omitempty"`
}

func Present(in *GraphState) (Outcome, error) {
	if in == nil {
		return Outcome{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.CustomerID <= 0 {
		return Outcome{}, fmt.Errorf("%w: interaction was not persisted", contractx.ErrPersistence)
	}

	return Outcome{
		CustomerID:     in.CustomerID,
		CustomerName:   in.Name,
		NewCustomer:    !in.Found,
		Status:         in.Status,
		Labels:         in.Labels,
		Recommendation: in.Recommendation,
		Response:       in.Response,
		Summary:        in.Summary,
		Documents:      in.Documents,
		Warnings:       in.Warnings,
	}, nil
}
