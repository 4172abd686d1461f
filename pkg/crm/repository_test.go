package crm

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

func (c *stepClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func setupRepo(t *testing.T, opts ...Option) (*Repository, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "crm.db")
	db, err := OpenDatabase(context.Background(), Config{Driver: DriverSQLite, Path: path, BusyTimeout: 0})
	require.NoError(t, err)

	repo := NewRepository(db, opts...)
	t.Cleanup(func() { _ = repo.Close() })
	return repo, path
}

func countRows(t *testing.T, repo *Repository, table string) int {
	t.Helper()
	n, err := repo.DB().NewSelect().Table(table).Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestOpenDatabaseUsesWAL(t *testing.T) {
	t.Parallel()

	repo, _ := setupRepo(t)

	var mode string
	require.NoError(t, repo.DB().QueryRowContext(context.Background(), "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	for _, table := range []string{"Customers", "InteractionHistory", "Recommendations", "Products"} {
		assert.Equal(t, 0, countRows(t, repo, table), table)
	}
}

func TestCreateCustomerAndFind(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	repo, _ := setupRepo(t, WithClock(clock.Now))
	ctx := context.Background()

	_, found, err := repo.FindLatestByName(ctx, "New Guy")
	require.NoError(t, err)
	assert.False(t, found)

	id, err := repo.CreateCustomer(ctx, contractx.NewCustomer{
		Name:           "New Guy",
		Labels:         contractx.Labels{Sentiment: "POSITIVE", Tone: "joy", Intention: "Purchase"},
		Notes:          "wants an SUV",
		Recommendation: "Toyota Fortuner 2016",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	rec, found, err := repo.FindLatestByName(ctx, "  New Guy ")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, id, rec.CustomerID)
	assert.Equal(t, UnknownEmail, rec.Email)
	assert.Equal(t, UnknownPhone, rec.Phone)
	assert.Equal(t, contractx.StatusNew, rec.LastDealStatus)
	assert.Equal(t, "wants an SUV", rec.Notes)
	assert.Equal(t, "joy", rec.Labels.Tone)
	assert.Equal(t, "Toyota Fortuner 2016", rec.RecommendedDeal)
	assert.NotZero(t, rec.InteractionID)
	assert.True(t, rec.InteractionDate.Equal(time.Date(2025, 3, 1, 9, 1, 0, 0, time.UTC)), rec.InteractionDate)

	assert.Equal(t, 1, countRows(t, repo, "InteractionHistory"))
	assert.Equal(t, 1, countRows(t, repo, "Recommendations"))
}

func TestCreateCustomerRejectsDuplicateName(t *testing.T) {
	t.Parallel()

	repo, _ := setupRepo(t)
	ctx := context.Background()

	_, err := repo.CreateCustomer(ctx, contractx.NewCustomer{Name: "Jane Smith"})
	require.NoError(t, err)

	_, err = repo.CreateCustomer(ctx, contractx.NewCustomer{Name: "Jane Smith"})
	require.ErrorIs(t, err, contractx.ErrConflict)
	assert.Equal(t, 1, countRows(t, repo, "Customers"))
	assert.Equal(t, 1, countRows(t, repo, "InteractionHistory"))
}

func TestCreateCustomerAllocatesMaxPlusOne(t *testing.T) {
	t.Parallel()

	repo, _ := setupRepo(t)
	ctx := context.Background()

	n, err := repo.Seed(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	id, err := repo.CreateCustomer(ctx, contractx.NewCustomer{Name: "New Guy"})
	require.NoError(t, err)
	assert.Equal(t, int64(6), id)
}

func TestUpdateLatestInteractionAppendsHistory(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	repo, _ := setupRepo(t, WithClock(clock.Now))
	ctx := context.Background()

	_, err := repo.Seed(ctx)
	require.NoError(t, err)

	before, found, err := repo.FindLatestByName(ctx, "Jane Smith")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, contractx.StatusClosedLost, before.LastDealStatus)

	interactionID, err := repo.UpdateLatestInteraction(ctx, contractx.InteractionUpdate{
		CustomerID:     before.CustomerID,
		Status:         contractx.StatusActive,
		Notes:          "Summary: wants a hatchback",
		Recommendation: "Maruti Swift 2018",
		Labels:         contractx.Labels{Sentiment: "POSITIVE", Tone: "joy", Intention: "Purchase"},
	})
	require.NoError(t, err)

	after, found, err := repo.FindLatestByName(ctx, "Jane Smith")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, interactionID, after.InteractionID)
	assert.Equal(t, contractx.StatusActive, after.LastDealStatus)
	assert.Equal(t, "Purchase", after.Labels.Intention)
	assert.Equal(t, "Maruti Swift 2018", after.RecommendedDeal)

	history, err := repo.History(ctx, before.CustomerID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, contractx.StatusClosedLost, history[0].LastDealStatus)
	assert.Equal(t, contractx.StatusActive, history[1].LastDealStatus)

	var recs int
	require.NoError(t, repo.DB().NewSelect().Table("Recommendations").
		ColumnExpr("COUNT(*)").Where(`"CustomerID" = ?`, before.CustomerID).Scan(ctx, &recs))
	assert.Equal(t, 1, recs)
}

func TestUpdateLatestInteractionKeepsNewerPointer(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	repo, _ := setupRepo(t, WithClock(clock.Now))
	ctx := context.Background()

	id, err := repo.CreateCustomer(ctx, contractx.NewCustomer{Name: "Clock Skew"})
	require.NoError(t, err)

	clock.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	_, err = repo.UpdateLatestInteraction(ctx, contractx.InteractionUpdate{
		CustomerID: id,
		Status:     contractx.StatusFollowUp,
	})
	require.NoError(t, err)

	rec, found, err := repo.FindLatestByName(ctx, "Clock Skew")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, contractx.StatusNew, rec.LastDealStatus)
	assert.Equal(t, 2, countRows(t, repo, "InteractionHistory"))
}

func TestUpdateLatestInteractionValidation(t *testing.T) {
	t.Parallel()

	repo, _ := setupRepo(t)
	ctx := context.Background()

	_, err := repo.UpdateLatestInteraction(ctx, contractx.InteractionUpdate{CustomerID: 99, Status: contractx.StatusActive})
	require.ErrorIs(t, err, contractx.ErrNotFound)

	_, err = repo.UpdateLatestInteraction(ctx, contractx.InteractionUpdate{CustomerID: 1, Status: "Bogus"})
	require.ErrorIs(t, err, contractx.ErrValidation)

	_, _, err = repo.FindLatestByName(ctx, " ")
	require.ErrorIs(t, err, contractx.ErrValidation)
}

func TestListCustomersAndProducts(t *testing.T) {
	t.Parallel()

	repo, _ := setupRepo(t)
	ctx := context.Background()

	_, err := repo.Seed(ctx)
	require.NoError(t, err)
	n, err := repo.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	customers, err := repo.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 5)
	assert.Equal(t, "Alice Brown", customers[0].Name)
	assert.Equal(t, "Robert White", customers[4].Name)
	assert.Equal(t, contractx.StatusPending, customers[0].LastDealStatus)
	assert.NotEmpty(t, customers[0].RecommendedDeal)

	products, err := repo.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, len(DemoProducts))
	assert.Equal(t, "Laptop", products[0].Name)
	assert.Equal(t, 450.0, products[0].PriceLimit)
}

func TestWriteRetriesThenFailsWhileLocked(t *testing.T) {
	t.Parallel()

	var sleeps int
	repo, path := setupRepo(t, WithSleep(func(ctx context.Context, d time.Duration) error {
		sleeps++
		assert.Equal(t, time.Second, d)
		return nil
	}))
	ctx := context.Background()

	blocker, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=0")
	require.NoError(t, err)
	defer blocker.Close()

	conn, err := blocker.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.ExecContext(ctx, "BEGIN IMMEDIATE")
	require.NoError(t, err)

	_, err = repo.CreateCustomer(ctx, contractx.NewCustomer{Name: "Locked Out"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreLocked), err)
	assert.True(t, errors.Is(err, contractx.ErrPersistence), err)
	assert.Equal(t, 5, sleeps)

	_, err = conn.ExecContext(ctx, "ROLLBACK")
	require.NoError(t, err)

	assert.Equal(t, 0, countRows(t, repo, "Customers"))
	assert.Equal(t, 0, countRows(t, repo, "InteractionHistory"))
	assert.Equal(t, 0, countRows(t, repo, "Recommendations"))
}

func TestWriteSucceedsAfterLockReleased(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var (
		sleeps int
		conn   *sql.Conn
	)
	repo, path := setupRepo(t, WithSleep(func(ctx context.Context, d time.Duration) error {
		sleeps++
		if sleeps == 2 {
			_, err := conn.ExecContext(ctx, "ROLLBACK")
			return err
		}
		return nil
	}))

	blocker, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=0")
	require.NoError(t, err)
	defer blocker.Close()

	conn, err = blocker.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.ExecContext(ctx, "BEGIN IMMEDIATE")
	require.NoError(t, err)

	id, err := repo.CreateCustomer(ctx, contractx.NewCustomer{Name: "Patient"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, 2, sleeps)
	assert.Equal(t, 1, countRows(t, repo, "InteractionHistory"))
}

func TestIsLocked(t *testing.T) {
	t.Parallel()

	assert.False(t, IsLocked(nil))
	assert.False(t, IsLocked(errors.New("syntax error")))
	assert.True(t, IsLocked(errors.New("database is locked")))
	assert.True(t, IsLocked(persistErr("insert", errors.New("database is locked"))))
}
