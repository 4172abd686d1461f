package negotiation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	nodex "github.com/tanpawarit/ai-sales-assistant/agent/nodes/negotiation"
	promptx "github.com/tanpawarit/ai-sales-assistant/agent/prompt"
	statex "github.com/tanpawarit/ai-sales-assistant/agent/state"
	"github.com/tanpawarit/ai-sales-assistant/pkg/export"
)

var (
	ErrInvalidName      = nodex.ErrInvalidName
	ErrEmptyUtterance   = nodex.ErrEmptyUtterance
	ErrNotStarted       = nodex.ErrNotStarted
	ErrSessionNotActive = nodex.ErrSessionNotActive
	ErrUnknownOutcome   = fmt.Errorf("%w: outcome must be %q or %q", contractx.ErrValidation, OutcomeClose, OutcomeEnd)
)

type TurnResult = nodex.TurnResult

// Terminal outcomes accepted by CloseNegotiation.
const (
	OutcomeClose = "close"
	OutcomeEnd   = "end"
)

type Config struct {
	RepID           string        `envconfig:"REP_ID" split_words:"true" default:"sales-rep"`
	CurrentDiscount int           `split_words:"true" default:"5"`
	MaxDiscount     int           `split_words:"true" default:"40"`
	SessionTTL      time.Duration `envconfig:"SESSION_TTL" split_words:"true" default:"2h"`
	SweepInterval   time.Duration `split_words:"true" default:"5m"`
}

func (c Config) Validate() error {
	if c.CurrentDiscount < 0 || c.MaxDiscount < c.CurrentDiscount {
		return fmt.Errorf("%w: discount range %d..%d", contractx.ErrValidation, c.CurrentDiscount, c.MaxDiscount)
	}
	return nil
}

// CloseResult reports a finished negotiation.
type CloseResult struct {
	Session       *statex.NegotiationSession `json:"session"`
	Status        contractx.DealStatus       `json:"status"`
	InteractionID int64                      `json:"interaction_id"`
	Guidance      string                     `json:"guidance"`
	Notes         string                     `json:"notes"`
	Warnings      []string                   `json:"warnings,omitempty"`
}

type Manager struct {
	repo       contractx.CustomerRepository
	classifier contractx.Classifier
	generator  contractx.Generator
	store      statex.Store
	metrics    nodex.Metrics
	cfg        Config

	queue      *turnQueue
	turnRunner compose.Runnable[nodex.TurnInput, nodex.TurnResult]

	now func() time.Time
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func New(
	repo contractx.CustomerRepository,
	classifier contractx.Classifier,
	generator contractx.Generator,
	store statex.Store,
	sink contractx.ExportSink,
	cfg Config,
	opts ...Option,
) (*Manager, error) {
	if repo == nil {
		return nil, errors.New("customer repository is required")
	}
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = export.LogSink{}
	}

	m := &Manager{
		repo:       repo,
		classifier: classifier,
		generator:  generator,
		store:      store,
		metrics:    nodex.Metrics{RepID: cfg.RepID, Generator: generator, Sink: sink},
		cfg:        cfg,
		queue:      newTurnQueue(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	runner, err := m.compileSubmitTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	m.turnRunner = runner
	return m, nil
}

// StartNegotiation opens a negotiation for the named customer and drafts the
// first guidance. An already open negotiation is returned unchanged.
func (m *Manager) StartNegotiation(ctx context.Context, customerName string) (TurnResult, error) {
	name := strings.TrimSpace(customerName)
	if name == "" {
		return TurnResult{}, ErrInvalidName
	}
	defer m.queue.acquire(queueKey(name))()

	rec, err := nodex.ResolveCustomer(ctx, m.repo, name)
	if err != nil {
		return TurnResult{}, err
	}

	existing, err := nodex.LoadSession(ctx, m.store, rec.CustomerID)
	switch {
	case err == nil && existing.IsOpen():
		return TurnResult{Session: existing, Guidance: existing.LatestGuidance(), Resumed: true}, nil
	case err != nil && !errors.Is(err, ErrNotStarted):
		return TurnResult{}, err
	}

	now := m.now().UTC()
	session := statex.NewNegotiationSession(statex.NewSessionID(), rec, now)
	session.CurrentDiscount = m.cfg.CurrentDiscount
	session.MaxDiscount = m.cfg.MaxDiscount

	st := &nodex.TurnState{
		Name:     name,
		Now:      now,
		Customer: rec,
		Session:  session,
		Labels:   contractx.Labels{Sentiment: session.Sentiment, Tone: session.Tone},
	}
	steps := []func(context.Context, *nodex.TurnState) (*nodex.TurnState, error){
		func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.DraftGuidance(ctx, in, m.generator)
		},
		func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.SaveSession(ctx, in, m.store)
		},
		func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.EmitMetrics(ctx, in, m.metrics)
		},
	}
	for _, step := range steps {
		if st, err = step(ctx, st); err != nil {
			return TurnResult{}, err
		}
	}

	log.Info().
		Int64("customer_id", rec.CustomerID).
		Str("session_id", session.SessionID).
		Msg("negotiation started")
	return nodex.Present(st)
}

// SubmitNegotiationTurn records a customer utterance and drafts the next
// guidance. Turns for one customer run in arrival order.
func (m *Manager) SubmitNegotiationTurn(ctx context.Context, customerName, utterance string) (TurnResult, error) {
	name := strings.TrimSpace(customerName)
	if name == "" {
		return TurnResult{}, ErrInvalidName
	}
	defer m.queue.acquire(queueKey(name))()

	return m.turnRunner.Invoke(ctx, nodex.TurnInput{CustomerName: name, Utterance: utterance})
}

// CloseNegotiation records the final deal status and ends the session. The
// session is kept when the status cannot be persisted.
func (m *Manager) CloseNegotiation(ctx context.Context, customerName, outcome string) (CloseResult, error) {
	name := strings.TrimSpace(customerName)
	if name == "" {
		return CloseResult{}, ErrInvalidName
	}
	phase, err := phaseFor(outcome)
	if err != nil {
		return CloseResult{}, err
	}
	defer m.queue.acquire(queueKey(name))()

	st, err := nodex.LoadOpenSession(ctx, &nodex.TurnState{Name: name, Now: m.now().UTC()}, m.repo, m.store)
	if err != nil {
		return CloseResult{}, err
	}

	session := st.Session.Clone()
	if err := session.Transition(phase, st.Now); err != nil {
		return CloseResult{}, fmt.Errorf("%w: %v", contractx.ErrConflict, err)
	}

	var warnings []string
	last := session.LastEntry()

	// The closing guidance wraps up the conversation for the seller.
	closing := m.generator.Complete(ctx, promptx.Guidance{
		CustomerName:     session.CustomerName,
		Sentiment:        session.Sentiment,
		Tone:             session.Tone,
		Recommendation:   session.Recommendation,
		CurrentDiscount:  session.CurrentDiscount,
		MaxDiscount:      session.MaxDiscount,
		Query:            last,
		PreviousGuidance: session.LatestGuidance(),
		Result:           resultFor(phase),
	})
	if closing.Degraded {
		warnings = append(warnings, "closing guidance unavailable")
	}
	session.AppendGuidance(closing.Text, st.Now)

	notes := m.generator.Complete(ctx, promptx.Notes{LastMessage: last})
	if notes.Degraded {
		warnings = append(warnings, "negotiation notes unavailable")
	}

	status := session.Outcome()
	interactionID, err := m.repo.UpdateLatestInteraction(ctx, contractx.InteractionUpdate{
		CustomerID:     session.CustomerID,
		Status:         status,
		Notes:          notes.Text,
		Recommendation: session.Recommendation,
		Labels: contractx.Labels{
			Sentiment: session.Sentiment,
			Tone:      session.Tone,
			Intention: st.Customer.Labels.Intention,
		},
	})
	if err != nil {
		return CloseResult{}, fmt.Errorf("record negotiation outcome: %w", err)
	}

	sales := m.generator.Complete(ctx, promptx.SalesFigures{LastMessage: last})
	if sales.Degraded {
		warnings = append(warnings, "sales figures unavailable")
	}
	warnings = append(warnings, m.metrics.Append(ctx, export.MetricsRow{
		CustomerName: session.CustomerName,
		SalesFigures: sales.Text,
		Outcome:      string(status),
		Tone:         session.Tone,
		Sentiment:    session.Sentiment,
		Notes:        notes.Text,
		At:           st.Now,
	})...)

	if err := m.store.Delete(ctx, session.CustomerID); err != nil {
		log.Warn().Err(err).Int64("customer_id", session.CustomerID).Msg("evict negotiation session failed")
		warnings = append(warnings, "negotiation session could not be evicted")
	}

	log.Info().
		Int64("customer_id", session.CustomerID).
		Str("session_id", session.SessionID).
		Str("status", string(status)).
		Msg("negotiation closed")

	return CloseResult{
		Session:       session,
		Status:        status,
		InteractionID: interactionID,
		Guidance:      closing.Text,
		Notes:         notes.Text,
		Warnings:      warnings,
	}, nil
}

// Session returns a snapshot of the open negotiation for the named customer.
func (m *Manager) Session(ctx context.Context, customerName string) (*statex.NegotiationSession, error) {
	name := strings.TrimSpace(customerName)
	if name == "" {
		return nil, ErrInvalidName
	}
	rec, err := nodex.ResolveCustomer(ctx, m.repo, name)
	if err != nil {
		return nil, err
	}
	session, err := nodex.LoadSession(ctx, m.store, rec.CustomerID)
	if errors.Is(err, ErrNotStarted) {
		return nil, fmt.Errorf("%w: no negotiation for %q", contractx.ErrNotFound, name)
	}
	return session, err
}

func phaseFor(outcome string) (statex.Phase, error) {
	switch strings.ToLower(strings.TrimSpace(outcome)) {
	case OutcomeClose:
		return statex.PhaseClosed, nil
	case OutcomeEnd:
		return statex.PhaseEnded, nil
	default:
		return "", ErrUnknownOutcome
	}
}

// resultFor names the terminal phase the way the guidance prompt expects.
func resultFor(phase statex.Phase) string {
	if phase == statex.PhaseEnded {
		return promptx.ResultEnd
	}
	return promptx.ResultClose
}

func queueKey(name string) string {
	return strings.ToLower(name)
}
