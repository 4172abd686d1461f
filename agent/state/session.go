package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
)

// NegotiationSession is the per-customer negotiation loop state.
// - Phase moves continue -> closed | ended and never back.
// - Transcript holds every utterance; Guidance holds only bot guidance.
type NegotiationSession struct {
	SessionID    string `json:"session_id"`
	CustomerID   int64  `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	Phase        Phase  `json:"phase"`

	Sentiment      string `json:"sentiment"`
	Tone           string `json:"tone"`
	Recommendation string `json:"recommendation"`

	CurrentDiscount int `json:"current_discount"`
	MaxDiscount     int `json:"max_discount"`

	Transcript []Turn    `json:"transcript,omitempty"`
	Guidance   []string  `json:"guidance,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Phase string

const (
	PhaseContinue Phase = "continue"
	PhaseClosed   Phase = "closed"
	PhaseEnded    Phase = "ended"
)

type Speaker string

const (
	SpeakerCustomer Speaker = "You"
	SpeakerBot      Speaker = "Bot"
)

type Turn struct {
	Speaker Speaker   `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// String renders the turn the way it appears in the transcript ("You: ...").
func (t Turn) String() string {
	return string(t.Speaker) + ": " + t.Text
}

const (
	DefaultCurrentDiscount = 5
	DefaultMaxDiscount     = 40
)

var (
	ErrNilSession        = errors.New("negotiation session is nil")
	ErrInvalidTransition = errors.New("invalid negotiation transition")
)

// NewSessionID returns a sortable unique session id.
func NewSessionID() string {
	return ulid.Make().String()
}

func NewNegotiationSession(sessionID string, customer contractx.CustomerRecord, now time.Time) *NegotiationSession {
	return &NegotiationSession{
		SessionID:       sessionID,
		CustomerID:      customer.CustomerID,
		CustomerName:    customer.Name,
		Phase:           PhaseContinue,
		Sentiment:       customer.Labels.Sentiment,
		Tone:            customer.Labels.Tone,
		Recommendation:  customer.RecommendedDeal,
		CurrentDiscount: DefaultCurrentDiscount,
		MaxDiscount:     DefaultMaxDiscount,
		StartedAt:       now.UTC(),
		UpdatedAt:       now.UTC(),
	}
}

func (s *NegotiationSession) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

func (s *NegotiationSession) IsOpen() bool {
	return s != nil && s.Phase == PhaseContinue
}

// AppendCustomer records a customer utterance.
func (s *NegotiationSession) AppendCustomer(text string, now time.Time) {
	s.Transcript = append(s.Transcript, Turn{Speaker: SpeakerCustomer, Text: text, At: now.UTC()})
	s.Touch(now)
}

// AppendGuidance records bot guidance in both the transcript and the history.
func (s *NegotiationSession) AppendGuidance(text string, now time.Time) {
	s.Transcript = append(s.Transcript, Turn{Speaker: SpeakerBot, Text: text, At: now.UTC()})
	s.Guidance = append(s.Guidance, text)
	s.Touch(now)
}

// LastEntry returns the latest transcript entry, or "" for an empty transcript.
func (s *NegotiationSession) LastEntry() string {
	if s == nil || len(s.Transcript) == 0 {
		return ""
	}
	return s.Transcript[len(s.Transcript)-1].String()
}

// LatestGuidance returns the most recent guidance, or "".
func (s *NegotiationSession) LatestGuidance() string {
	if s == nil || len(s.Guidance) == 0 {
		return ""
	}
	return s.Guidance[len(s.Guidance)-1]
}

// Transition moves an open session to a terminal phase.
func (s *NegotiationSession) Transition(to Phase, now time.Time) error {
	if s == nil {
		return ErrNilSession
	}
	if s.Phase != PhaseContinue || (to != PhaseClosed && to != PhaseEnded) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Phase, to)
	}
	s.Phase = to
	s.Touch(now)
	return nil
}

// Outcome maps the phase to the deal status persisted for it.
func (s *NegotiationSession) Outcome() contractx.DealStatus {
	switch s.Phase {
	case PhaseClosed:
		return contractx.StatusClosedWon
	case PhaseEnded:
		return contractx.StatusClosedLost
	default:
		return contractx.StatusNegotiation
	}
}

func (s *NegotiationSession) Validate() error {
	if s == nil {
		return ErrNilSession
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	if s.CustomerID <= 0 {
		return fmt.Errorf("%w: customer id must be > 0", ErrInvalidSession)
	}
	switch s.Phase {
	case PhaseContinue, PhaseClosed, PhaseEnded:
	default:
		return fmt.Errorf("%w: unknown phase %q", ErrInvalidSession, s.Phase)
	}
	if s.CurrentDiscount < 0 || s.CurrentDiscount > s.MaxDiscount {
		return fmt.Errorf("%w: discount %d outside 0..%d", ErrInvalidSession, s.CurrentDiscount, s.MaxDiscount)
	}
	return nil
}

// Clone returns a deep copy, so callers can hand out snapshots.
func (s *NegotiationSession) Clone() *NegotiationSession {
	if s == nil {
		return nil
	}
	out := *s
	out.Transcript = append([]Turn(nil), s.Transcript...)
	out.Guidance = append([]string(nil), s.Guidance...)
	return &out
}
