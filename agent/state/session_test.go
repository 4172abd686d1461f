package state

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNegotiationSessionTranscript(t *testing.T) {
	t.Parallel()

	s := newTestSession(1)
	if s.LastEntry() != "" || s.LatestGuidance() != "" {
		t.Fatal("new session should have an empty transcript")
	}
	if s.CurrentDiscount != DefaultCurrentDiscount || s.MaxDiscount != DefaultMaxDiscount {
		t.Fatalf("discounts = %d/%d", s.CurrentDiscount, s.MaxDiscount)
	}

	now := s.StartedAt.Add(time.Minute)
	s.AppendGuidance("Start at 5%", now)
	s.AppendCustomer("Too expensive", now)
	s.AppendGuidance("Offer 10%", now)

	if len(s.Transcript) != 3 || len(s.Guidance) != 2 {
		t.Fatalf("transcript=%d guidance=%d", len(s.Transcript), len(s.Guidance))
	}
	if s.Transcript[1].String() != "You: Too expensive" {
		t.Fatalf("Transcript[1] = %q", s.Transcript[1].String())
	}
	if s.LastEntry() != "Bot: Offer 10%" {
		t.Fatalf("LastEntry() = %q", s.LastEntry())
	}
	if s.LatestGuidance() != "Offer 10%" {
		t.Fatalf("LatestGuidance() = %q", s.LatestGuidance())
	}
	if !s.UpdatedAt.Equal(now) {
		t.Fatalf("UpdatedAt = %v, want %v", s.UpdatedAt, now)
	}
}

func TestNegotiationSessionTransitions(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := newTestSession(1)
	if err := s.Transition(PhaseContinue, now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Transition(continue) error = %v, want ErrInvalidTransition", err)
	}
	if err := s.Transition(PhaseClosed, now); err != nil {
		t.Fatalf("Transition(closed) error = %v", err)
	}
	if s.IsOpen() {
		t.Fatal("closed session reports open")
	}
	if s.Outcome() != "Closed-Won" {
		t.Fatalf("Outcome() = %q", s.Outcome())
	}
	if err := s.Transition(PhaseEnded, now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Transition(ended) after close error = %v", err)
	}

	ended := newTestSession(2)
	if err := ended.Transition(PhaseEnded, now); err != nil {
		t.Fatalf("Transition(ended) error = %v", err)
	}
	if ended.Outcome() != "Closed-Lost" {
		t.Fatalf("Outcome() = %q", ended.Outcome())
	}
}

func TestNegotiationSessionCloneIsDeep(t *testing.T) {
	t.Parallel()

	s := newTestSession(1)
	s.AppendGuidance("first", time.Now())
	c := s.Clone()
	c.Transcript[0].Text = "changed"
	c.Guidance[0] = "changed"
	if s.Transcript[0].Text != "first" || s.Guidance[0] != "first" {
		t.Fatal("Clone() shares slices with the original")
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := NewMemoryStore(time.Hour, clock)
	ctx := context.Background()

	if _, err := store.Load(ctx, 1); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("Load() error = %v, want ErrStateNotFound", err)
	}

	s := newTestSession(1)
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	s.AppendGuidance("mutated after save", now)

	got, err := store.Load(ctx, 1)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got.Guidance) != 0 {
		t.Fatal("store should keep its own copy")
	}

	if err := store.Save(ctx, newTestSession(2)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	now = now.Add(time.Hour)
	if _, err := store.Load(ctx, 1); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("Load() after ttl error = %v, want ErrStateNotFound", err)
	}
	if removed := store.Sweep(); removed != 1 {
		t.Fatalf("Sweep() = %d, want 1", removed)
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(0, nil)
	if err := store.Save(context.Background(), nil); !errors.Is(err, ErrNilSession) {
		t.Fatalf("Save(nil) error = %v", err)
	}
	bad := newTestSession(1)
	bad.SessionID = ""
	if err := store.Save(context.Background(), bad); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Save() error = %v, want ErrInvalidSession", err)
	}
}
