package state

import (
	"context"
	"errors"
)

var (
	ErrStateNotFound  = errors.New("negotiation session not found")
	ErrInvalidSession = errors.New("invalid negotiation session")
)

// Store keeps at most one negotiation session per customer id. Implementations
// expire sessions that have not been saved for their TTL.
type Store interface {
	Load(ctx context.Context, customerID int64) (*NegotiationSession, error)
	Save(ctx context.Context, s *NegotiationSession) error
	Delete(ctx context.Context, customerID int64) error
}

var (
	_ Store = (*UpstashRedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
