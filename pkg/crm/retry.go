package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
)

// ErrStoreLocked is returned once a write has exhausted its lock retries.
var ErrStoreLocked = fmt.Errorf("%w: store is locked", contractx.ErrPersistence)

type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 5, Delay: time.Second}
}

// IsLocked reports whether err is lock contention that a retry can resolve.
func IsLocked(err error) bool {
	if err == nil {
		return false
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Field('C') {
		case "55P03", "40001", "40P01":
			return true
		}
		return false
	}

	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// write runs fn in a transaction. Lock contention rolls the whole transaction
// back and retries it after the policy delay.
func (r *Repository) write(ctx context.Context, op string, fn func(ctx context.Context, tx bun.Tx) error) error {
	attempts := max(r.retry.Attempts, 1)

	for attempt := 1; ; attempt++ {
		err := r.db.RunInTx(ctx, nil, fn)
		if err == nil {
			return nil
		}
		if !IsLocked(err) {
			return err
		}

		log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Dur("delay", r.retry.Delay).Msg("crm: store locked, retrying")
		if serr := r.sleep(ctx, r.retry.Delay); serr != nil {
			return fmt.Errorf("%w: %s: %v", contractx.ErrPersistence, op, serr)
		}
		if attempt >= attempts {
			return fmt.Errorf("%w: %s failed after %d attempts: %v", ErrStoreLocked, op, attempt, err)
		}
	}
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", contractx.ErrPersistence, op, err)
}
