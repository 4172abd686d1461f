package negotiation

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	"github.com/tanpawarit/ai-sales-assistant/pkg/capture"
)

type scriptedNegotiator struct {
	turns    []string
	outcomes []string
	closeErr error
}

func (s *scriptedNegotiator) StartNegotiation(ctx context.Context, name string) (TurnResult, error) {
	return TurnResult{Guidance: "Offer 5% off."}, nil
}

func (s *scriptedNegotiator) SubmitNegotiationTurn(ctx context.Context, name, utterance string) (TurnResult, error) {
	s.turns = append(s.turns, utterance)
	return TurnResult{Guidance: "Hold at 10%.", Warnings: []string{"tone classification unavailable"}}, nil
}

func (s *scriptedNegotiator) CloseNegotiation(ctx context.Context, name, outcome string) (CloseResult, error) {
	s.outcomes = append(s.outcomes, outcome)
	if s.closeErr != nil {
		return CloseResult{}, s.closeErr
	}
	return CloseResult{Status: contractx.StatusClosedWon, Notes: "Agreed at 10%."}, nil
}

func feed(results ...capture.Result) <-chan capture.Result {
	ch := make(chan capture.Result, len(results))
	for _, r := range results {
		ch <- r
	}
	close(ch)
	return ch
}

func TestRunConsoleClosesOnKeyword(t *testing.T) {
	t.Parallel()

	n := &scriptedNegotiator{}
	var out bytes.Buffer
	results := feed(
		capture.Result{Err: capture.ErrListenTimeout},
		capture.Result{Text: "Can you do 15%?"},
		capture.Result{Err: capture.ErrUnrecognized},
		capture.Result{Text: " Close "},
		capture.Result{Text: "never read"},
	)

	if err := RunConsole(context.Background(), n, results, "Jane Smith", &out); err != nil {
		t.Fatalf("RunConsole() error = %v", err)
	}
	if len(n.turns) != 1 || n.turns[0] != "Can you do 15%?" {
		t.Fatalf("turns = %v", n.turns)
	}
	if len(n.outcomes) != 1 || n.outcomes[0] != OutcomeClose {
		t.Fatalf("outcomes = %v", n.outcomes)
	}
	for _, want := range []string{"Bot: Offer 5% off.", "Bot: Hold at 10%.", "could not catch", "warning: tone classification unavailable", "Closed-Won"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunConsoleLeavesSessionOpenWhenInputEnds(t *testing.T) {
	t.Parallel()

	n := &scriptedNegotiator{}
	var out bytes.Buffer
	if err := RunConsole(context.Background(), n, feed(capture.Result{Text: "Too expensive"}), "Jane Smith", &out); err != nil {
		t.Fatalf("RunConsole() error = %v", err)
	}
	if len(n.outcomes) != 0 {
		t.Fatalf("outcomes = %v, want none", n.outcomes)
	}
	if !strings.Contains(out.String(), "stays open") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestRunConsoleReturnsCloseError(t *testing.T) {
	t.Parallel()

	n := &scriptedNegotiator{closeErr: contractx.ErrPersistence}
	err := RunConsole(context.Background(), n, feed(capture.Result{Text: "end"}), "Jane Smith", &bytes.Buffer{})
	if !errors.Is(err, contractx.ErrPersistence) {
		t.Fatalf("RunConsole() error = %v, want ErrPersistence", err)
	}
	if n.outcomes[0] != OutcomeEnd {
		t.Fatalf("outcomes = %v", n.outcomes)
	}
}
