package negotiation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	"github.com/tanpawarit/ai-sales-assistant/pkg/capture"
)

// Negotiator is the part of Manager the console loop drives.
type Negotiator interface {
	StartNegotiation(ctx context.Context, customerName string) (TurnResult, error)
	SubmitNegotiationTurn(ctx context.Context, customerName, utterance string) (TurnResult, error)
	CloseNegotiation(ctx context.Context, customerName, outcome string) (CloseResult, error)
}

var _ Negotiator = (*Manager)(nil)

// RunConsole starts (or resumes) a negotiation and feeds it every captured
// utterance until the seller says "close" or "end", or results run out. A
// negotiation left open by exhausted input stays in the session store.
func RunConsole(ctx context.Context, n Negotiator, results <-chan capture.Result, customerName string, out io.Writer) error {
	start, err := n.StartNegotiation(ctx, customerName)
	if err != nil {
		return err
	}
	if start.Resumed {
		fmt.Fprintf(out, "Resuming negotiation with %s.\n", customerName)
	}
	printTurn(out, start)
	fmt.Fprintf(out, "Type what the customer says. %q closes the deal, %q ends it.\n", OutcomeClose, OutcomeEnd)

	for res := range results {
		switch {
		case errors.Is(res.Err, capture.ErrListenTimeout):
			continue
		case errors.Is(res.Err, capture.ErrUnrecognized):
			fmt.Fprintln(out, "Sorry, I could not catch that. Please repeat.")
			continue
		case res.Err != nil:
			log.Warn().Err(res.Err).Msg("negotiation console: listen failed")
			continue
		}

		text := strings.TrimSpace(res.Text)
		if outcome := strings.ToLower(text); outcome == OutcomeClose || outcome == OutcomeEnd {
			closed, err := n.CloseNegotiation(ctx, customerName, outcome)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Negotiation finished: %s\n", closed.Status)
			if closed.Guidance != "" {
				fmt.Fprintln(out, closed.Guidance)
			}
			if closed.Notes != "" {
				fmt.Fprintf(out, "Notes: %s\n", closed.Notes)
			}
			printWarnings(out, closed.Warnings)
			return nil
		}

		turn, err := n.SubmitNegotiationTurn(ctx, customerName, text)
		if errors.Is(err, contractx.ErrValidation) {
			fmt.Fprintf(out, "Skipped: %v\n", err)
			continue
		}
		if err != nil {
			return err
		}
		printTurn(out, turn)
	}

	fmt.Fprintln(out, "Input ended. The negotiation stays open.")
	return nil
}

func printTurn(out io.Writer, r TurnResult) {
	fmt.Fprintf(out, "\nBot: %s\n\n", r.Guidance)
	printWarnings(out, r.Warnings)
}

func printWarnings(out io.Writer, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
}
