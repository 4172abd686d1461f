package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const TimestampLayout = "2006-01-02 15:04:05"

// OutcomeNegotiating labels rows emitted while a negotiation is still open.
const OutcomeNegotiating = "negotiating"

// MetricsRow is one performance-metrics line.
type MetricsRow struct {
	RepID        string
	CustomerName string
	SalesFigures string
	Outcome      string
	Tone         string
	Sentiment    string
	Notes        string
	At           time.Time
}

// Fields renders the row in sheet column order.
func (r MetricsRow) Fields() []string {
	return []string{
		r.RepID,
		r.CustomerName,
		r.SalesFigures,
		r.Outcome,
		r.Tone,
		r.Sentiment,
		r.Notes,
		r.At.Format(TimestampLayout),
	}
}

// FeedbackRow is one live coaching line: what the customer said, how it was
// classified, and the advice given to the seller.
type FeedbackRow struct {
	Text      string
	Sentiment string
	Tone      string
	Feedback  string
}

func (r FeedbackRow) Fields() []string {
	return []string{r.Text, r.Sentiment, r.Tone, r.Feedback}
}

type Sink interface {
	AppendRow(ctx context.Context, fields []string) error
}

// Fanout writes every row to each sink. A failing sink does not stop the
// others; their errors are joined.
type Fanout []Sink

func (f Fanout) AppendRow(ctx context.Context, fields []string) error {
	var errs []error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.AppendRow(ctx, fields); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes rows to the structured log.
type LogSink struct{}

func (LogSink) AppendRow(ctx context.Context, fields []string) error {
	log.Info().Strs("fields", fields).Msg("export row")
	return nil
}

// Publisher enqueues a JSON body for delivery.
type Publisher interface {
	Publish(ctx context.Context, destination string, body any) (string, error)
}

type rowMessage struct {
	Fields []string `json:"fields"`
}

// QueueSink hands rows to a message queue for asynchronous delivery.
type QueueSink struct {
	publisher   Publisher
	destination string
}

func NewQueueSink(publisher Publisher, destination string) (*QueueSink, error) {
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, errors.New("queue destination is required")
	}
	return &QueueSink{publisher: publisher, destination: destination}, nil
}

func (q *QueueSink) AppendRow(ctx context.Context, fields []string) error {
	id, err := q.publisher.Publish(ctx, q.destination, rowMessage{Fields: fields})
	if err != nil {
		return fmt.Errorf("publish export row: %w", err)
	}
	log.Debug().Str("message_id", id).Msg("export row queued")
	return nil
}
