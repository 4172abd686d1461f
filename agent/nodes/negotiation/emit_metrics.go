package negotiationnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	promptx "github.com/tanpawarit/ai-sales-assistant/agent/prompt"
	"github.com/tanpawarit/ai-sales-assistant/pkg/export"
)

// Metrics writes performance rows for negotiation steps.
type Metrics struct {
	RepID     string
	Generator contractx.Generator
	Sink      contractx.ExportSink
}

// EmitMetrics derives sales figures and notes from the latest transcript
// entry and appends a row. Failures become warnings.
func EmitMetrics(ctx context.Context, in *TurnState, m Metrics) (*TurnState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: turn session is nil", contractx.ErrValidation)
	}

	last := in.Session.LastEntry()
	sales := m.Generator.Complete(ctx, promptx.SalesFigures{LastMessage: last})
	if sales.Degraded {
		in.warn("sales figures unavailable")
	}
	notes := m.Generator.Complete(ctx, promptx.Notes{LastMessage: last})
	if notes.Degraded {
		in.warn("negotiation notes unavailable")
	}

	in.Warnings = append(in.Warnings, m.Append(ctx, export.MetricsRow{
		CustomerName: in.Session.CustomerName,
		SalesFigures: sales.Text,
		Outcome:      export.OutcomeNegotiating,
		Tone:         in.Labels.Tone,
		Sentiment:    in.Labels.Sentiment,
		Notes:        notes.Text,
		At:           in.Now,
	})...)
	return in, nil
}

// Append writes row to the sink and returns any warnings.
func (m Metrics) Append(ctx context.Context, row export.MetricsRow) []string {
	if m.Sink == nil {
		return nil
	}
	row.RepID = m.RepID
	if err := m.Sink.AppendRow(ctx, row.Fields()); err != nil {
		log.Warn().Err(err).Str("customer", row.CustomerName).Msg("export row failed")
		return []string{"performance metrics export failed"}
	}
	return nil
}
