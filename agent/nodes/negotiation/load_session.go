package negotiationnode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	statex "github.com/tanpawarit/ai-sales-assistant/agent/state"
)

var (
	ErrInvalidName      = fmt.Errorf("%w: customer name is empty", contractx.ErrValidation)
	ErrEmptyUtterance   = fmt.Errorf("%w: utterance is empty", contractx.ErrValidation)
	ErrNotStarted       = fmt.Errorf("%w: negotiation has not been started", contractx.ErrConflict)
	ErrSessionNotActive = fmt.Errorf("%w: negotiation is no longer active", contractx.ErrConflict)
)

type TurnInput struct {
	CustomerName string
	Utterance    string
}

// TurnState is threaded through the nodes of one negotiation step.
type TurnState struct {
	Name      string
	Utterance string
	Now       time.Time

	Customer contractx.CustomerRecord
	Session  *statex.NegotiationSession

	// Labels apply to this turn only and are not stored on the session.
	Labels   contractx.Labels
	Guidance string
	Warnings []string
}

func (s *TurnState) warn(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

func ValidateTurn(in TurnInput, nowFn func() time.Time) (*TurnState, error) {
	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		return nil, ErrInvalidName
	}
	utterance := strings.TrimSpace(in.Utterance)
	if utterance == "" {
		return nil, ErrEmptyUtterance
	}
	return &TurnState{Name: name, Utterance: utterance, Now: nowFn().UTC()}, nil
}

// ResolveCustomer looks the customer up by name. A miss is ErrNotFound.
func ResolveCustomer(
	ctx context.Context,
	repo contractx.CustomerRepository,
	name string,
) (contractx.CustomerRecord, error) {
	rec, found, err := repo.FindLatestByName(ctx, name)
	if err != nil {
		return contractx.CustomerRecord{}, fmt.Errorf("lookup customer %q: %w", name, err)
	}
	if !found {
		return contractx.CustomerRecord{}, fmt.Errorf("%w: customer %q", contractx.ErrNotFound, name)
	}
	return rec, nil
}

// LoadOpenSession resolves the customer and loads its open session.
func LoadOpenSession(
	ctx context.Context,
	in *TurnState,
	repo contractx.CustomerRepository,
	store statex.Store,
) (*TurnState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
	}

	rec, err := ResolveCustomer(ctx, repo, in.Name)
	if err != nil {
		return nil, err
	}
	session, err := LoadSession(ctx, store, rec.CustomerID)
	if err != nil {
		return nil, err
	}
	if !session.IsOpen() {
		return nil, ErrSessionNotActive
	}

	in.Customer = rec
	in.Session = session
	return in, nil
}

// LoadSession maps a missing session to ErrNotStarted.
func LoadSession(ctx context.Context, store statex.Store, customerID int64) (*statex.NegotiationSession, error) {
	session, err := store.Load(ctx, customerID)
	if errors.Is(err, statex.ErrStateNotFound) {
		return nil, ErrNotStarted
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load negotiation session: %v", contractx.ErrPersistence, err)
	}
	return session, nil
}
