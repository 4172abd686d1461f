package interaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	nodex "github.com/tanpawarit/ai-sales-assistant/agent/nodes/interaction"
)

var (
	ErrInvalidName      = nodex.ErrInvalidName
	ErrMissingUtterance = nodex.ErrMissingUtterance
)

type (
	Outcome   = nodex.Outcome
	QueryMode = nodex.QueryMode
)

const (
	QueryModeProfile = nodex.QueryModeProfile
	QueryModeIntent  = nodex.QueryModeIntent
)

type Config struct {
	QueryMode string `envconfig:"QUERY_MODE" split_words:"true" default:"profile"`
}

func (c Config) Mode() (QueryMode, error) {
	switch QueryMode(c.QueryMode) {
	case "", QueryModeProfile:
		return QueryModeProfile, nil
	case QueryModeIntent:
		return QueryModeIntent, nil
	default:
		return "", fmt.Errorf("%w: unknown query mode %q", contractx.ErrValidation, c.QueryMode)
	}
}

type Orchestrator struct {
	repo       contractx.CustomerRepository
	classifier contractx.Classifier
	retriever  contractx.Retriever
	generator  contractx.Generator
	queryMode  QueryMode

	graphRunner compose.Runnable[nodex.GraphInput, nodex.Outcome]

	now func() time.Time
}

type Option func(*Orchestrator)

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func New(
	repo contractx.CustomerRepository,
	classifier contractx.Classifier,
	retriever contractx.Retriever,
	generator contractx.Generator,
	cfg Config,
	opts ...Option,
) (*Orchestrator, error) {
	if repo == nil {
		return nil, errors.New("customer repository is required")
	}
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	mode, err := cfg.Mode()
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		repo:       repo,
		classifier: classifier,
		retriever:  retriever,
		generator:  generator,
		queryMode:  mode,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	graphRunner, err := o.compileRunInteractionGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// RunInteraction resolves the customer, drafts recommendations and a
// salesperson script, and records the interaction.
func (o *Orchestrator) RunInteraction(ctx context.Context, customerName, utterance string) (Outcome, error) {
	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		CustomerName: customerName,
		Utterance:    utterance,
	})
	if err != nil {
		return Outcome{}, err
	}

	log.Info().
		Int64("customer_id", out.CustomerID).
		Bool("new_customer", out.NewCustomer).
		Int("documents", len(out.Documents)).
		Strs("warnings", out.Warnings).
		Msg("interaction completed")
	return out, nil
}
