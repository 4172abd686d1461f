package interactionnode

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
)

var (
	ErrInvalidName      = fmt.Errorf("%w: customer name is empty", contractx.ErrValidation)
	ErrMissingUtterance = fmt.Errorf("%w: utterance is required for a new customer", contractx.ErrValidation)
)

type GraphInput struct {
	CustomerName string
	Utterance    string
}

// GraphState is threaded through every node of one interaction run.
type GraphState struct {
	Name      string
	Utterance string
	Now       time.Time

	Customer contractx.CustomerRecord
	Found    bool

	Labels         contractx.Labels
	Query          string
	Documents      []contractx.Document
	Recommendation string
	Response       string
	Summary        string

	CustomerID    int64
	InteractionID int64
	Status        contractx.DealStatus

	Warnings []string
}

func (s *GraphState) warn(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		return nil, ErrInvalidName
	}

	return &GraphState{
		Name:      name,
		Utterance: strings.TrimSpace(in.Utterance),
		Now:       nowFn().UTC(),
	}, nil
}
