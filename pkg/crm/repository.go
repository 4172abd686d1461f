package crm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
)

const (
	UnknownEmail = "unknown@example.com"
	UnknownPhone = "0000000000"
)

var (
	_ contractx.CustomerRepository = (*Repository)(nil)
	_ contractx.ProductCatalog     = (*Repository)(nil)
)

type Option func(*Repository)

func WithRetryPolicy(p RetryPolicy) Option {
	return func(r *Repository) {
		r.retry = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// WithSleep replaces the wait between lock retries.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Repository) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// Repository is the only writer of customer, interaction and recommendation rows.
type Repository struct {
	db    *bun.DB
	retry RetryPolicy
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRepository(db *bun.DB, opts ...Option) *Repository {
	r := &Repository{
		db:    db,
		retry: DefaultRetryPolicy(),
		now:   time.Now,
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) DB() *bun.DB {
	return r.db
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Second)
}

// currentInteractionJoin resolves the pointer, falling back to the latest row
// for customers written before the pointer existed.
const currentInteractionJoin = `LEFT JOIN "InteractionHistory" AS ih ON ih."InteractionID" = COALESCE(
	c."CurrentInteractionID",
	(SELECT i2."InteractionID" FROM "InteractionHistory" AS i2
		WHERE i2."CustomerID" = c."CustomerID"
		ORDER BY i2."InteractionDate" DESC, i2."InteractionID" DESC LIMIT 1)
)`

func (r *Repository) selectCustomers(db bun.IDB) *bun.SelectQuery {
	return db.NewSelect().
		TableExpr(`"Customers" AS c`).
		ColumnExpr(`c."CustomerID", c."Name", c."Email", c."Phone"`).
		ColumnExpr(`ih."InteractionID", ih."LastDealStatus", ih."InteractionDate", ih."Notes"`).
		ColumnExpr(`ih."Intention", ih."Sentiment", ih."Tone"`).
		Join(currentInteractionJoin)
}

func (r *Repository) FindLatestByName(ctx context.Context, name string) (contractx.CustomerRecord, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return contractx.CustomerRecord{}, false, fmt.Errorf("%w: customer name is required", contractx.ErrValidation)
	}

	var rows []customerRow
	err := r.selectCustomers(r.db).
		Where(`c."Name" = ?`, name).
		OrderExpr(`CASE WHEN ih."InteractionDate" IS NULL THEN 1 ELSE 0 END`).
		OrderExpr(`ih."InteractionDate" DESC`).
		OrderExpr(`c."CustomerID" DESC`).
		Limit(1).
		Scan(ctx, &rows)
	if err != nil {
		return contractx.CustomerRecord{}, false, persistErr("find customer", err)
	}
	if len(rows) == 0 {
		return contractx.CustomerRecord{}, false, nil
	}

	rec := rows[0].record()
	latest, ok, err := r.latestRecommendation(ctx, r.db, rec.CustomerID)
	if err != nil {
		return contractx.CustomerRecord{}, false, persistErr("find recommendation", err)
	}
	if ok {
		rec.RecommendedDeal = latest.RecommendedDeal
		rec.RecommendationDate = latest.Date
	}
	return rec, true, nil
}

func (r *Repository) ListCustomers(ctx context.Context) ([]contractx.CustomerRecord, error) {
	var rows []customerRow
	if err := r.selectCustomers(r.db).
		OrderExpr(`c."Name" ASC`).
		OrderExpr(`c."CustomerID" ASC`).
		Scan(ctx, &rows); err != nil {
		return nil, persistErr("list customers", err)
	}

	var recs []recommendationModel
	if err := r.db.NewSelect().
		Model(&recs).
		OrderExpr(`r."CustomerID" ASC, r."Date" DESC, r."RecommendationID" DESC`).
		Scan(ctx); err != nil {
		return nil, persistErr("list recommendations", err)
	}
	latest := make(map[int64]recommendationModel, len(recs))
	for _, rec := range recs {
		if _, ok := latest[rec.CustomerID]; !ok {
			latest[rec.CustomerID] = rec
		}
	}

	out := make([]contractx.CustomerRecord, 0, len(rows))
	for _, row := range rows {
		rec := row.record()
		if l, ok := latest[rec.CustomerID]; ok {
			rec.RecommendedDeal = l.RecommendedDeal
			rec.RecommendationDate = l.Date
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *Repository) CreateCustomer(ctx context.Context, in contractx.NewCustomer) (int64, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return 0, fmt.Errorf("%w: customer name is required", contractx.ErrValidation)
	}
	email := orDefault(in.Email, UnknownEmail)
	phone := orDefault(in.Phone, UnknownPhone)

	var customerID int64
	err := r.write(ctx, "create customer", func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Table("Customers").Where(`"Name" = ?`, name).Exists(ctx)
		if err != nil {
			return persistErr("check customer name", err)
		}
		if exists {
			return fmt.Errorf("%w: customer %q already exists", contractx.ErrConflict, name)
		}

		var next int64
		if err := tx.NewSelect().
			Table("Customers").
			ColumnExpr(`COALESCE(MAX("CustomerID"), 0) + 1`).
			Scan(ctx, &next); err != nil {
			return persistErr("allocate customer id", err)
		}

		customer := &customerModel{CustomerID: next, Name: name, Email: email, Phone: phone}
		if _, err := tx.NewInsert().Model(customer).Exec(ctx); err != nil {
			return persistErr("insert customer", err)
		}

		now := r.timestamp()
		if _, err := r.appendInteraction(ctx, tx, next, contractx.StatusNew, in.Notes, in.Labels, now); err != nil {
			return err
		}
		if err := r.upsertRecommendation(ctx, tx, next, in.Recommendation, now); err != nil {
			return err
		}

		customerID = next
		return nil
	})
	if err != nil {
		return 0, err
	}
	return customerID, nil
}

func (r *Repository) UpdateLatestInteraction(ctx context.Context, in contractx.InteractionUpdate) (int64, error) {
	if in.CustomerID <= 0 {
		return 0, fmt.Errorf("%w: customer id is required", contractx.ErrValidation)
	}
	if !in.Status.Valid() {
		return 0, fmt.Errorf("%w: invalid deal status %q", contractx.ErrValidation, in.Status)
	}

	var interactionID int64
	err := r.write(ctx, "update interaction", func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Table("Customers").Where(`"CustomerID" = ?`, in.CustomerID).Exists(ctx)
		if err != nil {
			return persistErr("check customer", err)
		}
		if !exists {
			return fmt.Errorf("%w: customer %d", contractx.ErrNotFound, in.CustomerID)
		}

		now := r.timestamp()
		id, err := r.appendInteraction(ctx, tx, in.CustomerID, in.Status, in.Notes, in.Labels, now)
		if err != nil {
			return err
		}
		if strings.TrimSpace(in.Recommendation) != "" {
			if err := r.upsertRecommendation(ctx, tx, in.CustomerID, in.Recommendation, now); err != nil {
				return err
			}
		}

		interactionID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return interactionID, nil
}

// appendInteraction inserts a history row and moves the customer's pointer to
// it unless the pointed row is newer.
func (r *Repository) appendInteraction(
	ctx context.Context,
	tx bun.Tx,
	customerID int64,
	status contractx.DealStatus,
	notes string,
	labels contractx.Labels,
	at time.Time,
) (int64, error) {
	row := &interactionModel{
		CustomerID:      customerID,
		LastDealStatus:  string(status),
		InteractionDate: at,
		Notes:           notes,
		Intention:       labels.Intention,
		Sentiment:       labels.Sentiment,
		Tone:            labels.Tone,
	}
	if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
		return 0, persistErr("insert interaction", err)
	}

	var current []time.Time
	if err := tx.NewSelect().
		TableExpr(`"Customers" AS c`).
		Join(`JOIN "InteractionHistory" AS ih ON ih."InteractionID" = c."CurrentInteractionID"`).
		ColumnExpr(`ih."InteractionDate"`).
		Where(`c."CustomerID" = ?`, customerID).
		Scan(ctx, &current); err != nil {
		return 0, persistErr("load current interaction", err)
	}
	if len(current) > 0 && at.Before(current[0]) {
		return row.InteractionID, nil
	}

	if _, err := tx.NewUpdate().
		Model((*customerModel)(nil)).
		Set(`"CurrentInteractionID" = ?`, row.InteractionID).
		Where(`"CustomerID" = ?`, customerID).
		Exec(ctx); err != nil {
		return 0, persistErr("advance current interaction", err)
	}
	return row.InteractionID, nil
}

func (r *Repository) upsertRecommendation(ctx context.Context, tx bun.Tx, customerID int64, deal string, at time.Time) error {
	latest, ok, err := r.latestRecommendation(ctx, tx, customerID)
	if err != nil {
		return persistErr("load recommendation", err)
	}
	if ok {
		if _, err := tx.NewUpdate().
			Model((*recommendationModel)(nil)).
			Set(`"RecommendedDeal" = ?`, deal).
			Set(`"Date" = ?`, at).
			Where(`"RecommendationID" = ?`, latest.RecommendationID).
			Exec(ctx); err != nil {
			return persistErr("update recommendation", err)
		}
		return nil
	}

	rec := &recommendationModel{CustomerID: customerID, RecommendedDeal: deal, Date: at}
	if _, err := tx.NewInsert().Model(rec).Exec(ctx); err != nil {
		return persistErr("insert recommendation", err)
	}
	return nil
}

func (r *Repository) latestRecommendation(ctx context.Context, db bun.IDB, customerID int64) (recommendationModel, bool, error) {
	var rec recommendationModel
	err := db.NewSelect().
		Model(&rec).
		Where(`r."CustomerID" = ?`, customerID).
		OrderExpr(`r."Date" DESC, r."RecommendationID" DESC`).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return recommendationModel{}, false, nil
	}
	if err != nil {
		return recommendationModel{}, false, err
	}
	return rec, true, nil
}

// History returns every interaction row of a customer, oldest first.
func (r *Repository) History(ctx context.Context, customerID int64) ([]contractx.CustomerRecord, error) {
	var rows []interactionModel
	if err := r.db.NewSelect().
		Model(&rows).
		Where(`ih."CustomerID" = ?`, customerID).
		OrderExpr(`ih."InteractionDate" ASC, ih."InteractionID" ASC`).
		Scan(ctx); err != nil {
		return nil, persistErr("list history", err)
	}

	out := make([]contractx.CustomerRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, contractx.CustomerRecord{
			CustomerID:      row.CustomerID,
			InteractionID:   row.InteractionID,
			LastDealStatus:  contractx.DealStatus(row.LastDealStatus),
			InteractionDate: row.InteractionDate,
			Notes:           row.Notes,
			Labels: contractx.Labels{
				Sentiment: row.Sentiment,
				Tone:      row.Tone,
				Intention: row.Intention,
			},
		})
	}
	return out, nil
}

func orDefault(v, fallback string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return fallback
}
