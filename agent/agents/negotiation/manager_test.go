package negotiation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	promptx "github.com/tanpawarit/ai-sales-assistant/agent/prompt"
	statex "github.com/tanpawarit/ai-sales-assistant/agent/state"
)

type fakeRepo struct {
	mu        sync.Mutex
	records   map[string]contractx.CustomerRecord
	updateErr error
	updates   []contractx.InteractionUpdate
}

func (f *fakeRepo) FindLatestByName(ctx context.Context, name string) (contractx.CustomerRecord, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[name]
	return rec, ok, nil
}

func (f *fakeRepo) CreateCustomer(ctx context.Context, in contractx.NewCustomer) (int64, error) {
	return 0, errors.New("not used")
}

func (f *fakeRepo) UpdateLatestInteraction(ctx context.Context, in contractx.InteractionUpdate) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return 0, f.updateErr
	}
	f.updates = append(f.updates, in)
	return int64(100 + len(f.updates)), nil
}

func (f *fakeRepo) ListCustomers(ctx context.Context) ([]contractx.CustomerRecord, error) {
	return nil, nil
}

type fakeClassifier struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeClassifier) Classify(ctx context.Context, text string, kind contractx.LabelKind) string {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	switch kind {
	case contractx.LabelSentiment:
		return "NEGATIVE"
	case contractx.LabelTone:
		return "anger"
	default:
		return "Negotiate"
	}
}

type fakeGenerator struct {
	mu      sync.Mutex
	calls   []contractx.PromptTemplate
	degrade map[string]bool
}

func (f *fakeGenerator) Complete(ctx context.Context, tmpl contractx.PromptTemplate) contractx.Completion {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, tmpl)
	if f.degrade[tmpl.Name()] {
		return contractx.Completion{Text: "Unable to generate a response. Please try again.", Degraded: true}
	}
	return contractx.Completion{Text: fmt.Sprintf("%s #%d", tmpl.Name(), len(f.calls))}
}

func (f *fakeGenerator) byName(name string) []contractx.PromptTemplate {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []contractx.PromptTemplate
	for _, c := range f.calls {
		if c.Name() == name {
			out = append(out, c)
		}
	}
	return out
}

type fakeSink struct {
	mu   sync.Mutex
	rows [][]string
	err  error
}

func (f *fakeSink) AppendRow(ctx context.Context, fields []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, fields)
	return f.err
}

type fixture struct {
	repo       *fakeRepo
	classifier *fakeClassifier
	generator  *fakeGenerator
	store      *statex.MemoryStore
	sink       *fakeSink
	manager    *Manager
}

var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo: &fakeRepo{records: map[string]contractx.CustomerRecord{
			"Jane Smith": {
				CustomerID:      2,
				Name:            "Jane Smith",
				Labels:          contractx.Labels{Sentiment: "POSITIVE", Tone: "joy", Intention: "Purchase"},
				RecommendedDeal: "Honda City 2014, 4.5 lakhs",
			},
		}},
		classifier: &fakeClassifier{},
		generator:  &fakeGenerator{},
		store:      statex.NewMemoryStore(time.Hour, func() time.Time { return testNow }),
		sink:       &fakeSink{},
	}

	m, err := New(f.repo, f.classifier, f.generator, f.store, f.sink,
		Config{RepID: "rep-7", CurrentDiscount: 5, MaxDiscount: 40},
		WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	f.manager = m
	return f
}

func TestStartNegotiationUnknownCustomer(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.manager.StartNegotiation(context.Background(), "Nobody")
	if !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("StartNegotiation() error = %v, want ErrNotFound", err)
	}
}

func TestStartNegotiationDraftsInitialGuidance(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	res, err := f.manager.StartNegotiation(context.Background(), " Jane Smith ")
	if err != nil {
		t.Fatalf("StartNegotiation() error = %v", err)
	}

	if res.Resumed || res.Guidance == "" {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Session.Transcript) != 1 || len(res.Session.Guidance) != 1 {
		t.Fatalf("transcript=%d guidance=%d", len(res.Session.Transcript), len(res.Session.Guidance))
	}

	calls := f.generator.byName(promptx.NameNegotiation)
	if len(calls) != 1 {
		t.Fatalf("guidance calls = %d", len(calls))
	}
	g := calls[0].(promptx.Guidance)
	if g.Query != "" || g.PreviousGuidance != "" || g.Sentiment != "POSITIVE" || g.Tone != "joy" {
		t.Fatalf("guidance template = %+v", g)
	}
	if g.Vars()["customer_query"] != promptx.NoPreviousQuery {
		t.Fatalf("customer_query = %v", g.Vars()["customer_query"])
	}
	if g.CurrentDiscount != 5 || g.MaxDiscount != 40 {
		t.Fatalf("discounts = %d/%d", g.CurrentDiscount, g.MaxDiscount)
	}

	if _, err := f.store.Load(context.Background(), 2); err != nil {
		t.Fatalf("store.Load() error = %v", err)
	}
	if len(f.sink.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(f.sink.rows))
	}
	row := f.sink.rows[0]
	if row[0] != "rep-7" || row[1] != "Jane Smith" || row[3] != "negotiating" || row[7] != "2025-03-01 09:00:00" {
		t.Fatalf("row = %v", row)
	}
	if f.classifier.calls != 0 {
		t.Fatalf("classifier calls = %d, want 0", f.classifier.calls)
	}
}

func TestStartNegotiationIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	first, err := f.manager.StartNegotiation(context.Background(), "Jane Smith")
	if err != nil {
		t.Fatalf("StartNegotiation() error = %v", err)
	}
	calls := len(f.generator.calls)

	again, err := f.manager.StartNegotiation(context.Background(), "Jane Smith")
	if err != nil {
		t.Fatalf("StartNegotiation() second error = %v", err)
	}
	if !again.Resumed || again.Session.SessionID != first.Session.SessionID {
		t.Fatalf("second start = %+v", again)
	}
	if len(f.generator.calls) != calls || len(f.sink.rows) != 1 {
		t.Fatal("idempotent start must not generate or export again")
	}
}

func TestSubmitNegotiationTurnValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if _, err := f.manager.SubmitNegotiationTurn(context.Background(), "Jane Smith", "  "); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("SubmitNegotiationTurn() error = %v, want ErrValidation", err)
	}
	if _, err := f.manager.SubmitNegotiationTurn(context.Background(), "Jane Smith", "too pricey"); !errors.Is(err, contractx.ErrConflict) {
		t.Fatalf("SubmitNegotiationTurn() error = %v, want ErrConflict", err)
	}
}

func TestSubmitNegotiationTurn(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	start, err := f.manager.StartNegotiation(context.Background(), "Jane Smith")
	if err != nil {
		t.Fatalf("StartNegotiation() error = %v", err)
	}

	res, err := f.manager.SubmitNegotiationTurn(context.Background(), "Jane Smith", "That is too expensive")
	if err != nil {
		t.Fatalf("SubmitNegotiationTurn() error = %v", err)
	}

	s := res.Session
	if len(s.Transcript) != 3 || len(s.Guidance) != 2 {
		t.Fatalf("transcript=%d guidance=%d", len(s.Transcript), len(s.Guidance))
	}
	if s.Transcript[1].String() != "You: That is too expensive" {
		t.Fatalf("Transcript[1] = %q", s.Transcript[1].String())
	}
	if s.Sentiment != "POSITIVE" || s.Tone != "joy" {
		t.Fatal("turn labels must not overwrite stored labels")
	}

	calls := f.generator.byName(promptx.NameNegotiation)
	g := calls[len(calls)-1].(promptx.Guidance)
	if g.Query != "That is too expensive" || g.PreviousGuidance != start.Guidance {
		t.Fatalf("guidance template = %+v", g)
	}
	if g.Sentiment != "NEGATIVE" || g.Tone != "anger" {
		t.Fatalf("turn labels = %s/%s", g.Sentiment, g.Tone)
	}

	if len(f.sink.rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(f.sink.rows))
	}
	if row := f.sink.rows[1]; row[4] != "anger" || row[5] != "NEGATIVE" {
		t.Fatalf("row = %v", row)
	}
	sales := f.generator.byName(promptx.NameSalesFigures)
	if got := sales[len(sales)-1].(promptx.SalesFigures).LastMessage; got != s.LastEntry() {
		t.Fatalf("sales figures input = %q", got)
	}
}

func TestSubmitNegotiationTurnSinkFailureIsWarning(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if _, err := f.manager.StartNegotiation(context.Background(), "Jane Smith"); err != nil {
		t.Fatalf("StartNegotiation() error = %v", err)
	}
	f.sink.err = errors.New("sheet unavailable")

	res, err := f.manager.SubmitNegotiationTurn(context.Background(), "Jane Smith", "ok")
	if err != nil {
		t.Fatalf("SubmitNegotiationTurn() error = %v", err)
	}
	if len(res.Warnings) != 1 || res.Warnings[0] != "performance metrics export failed" {
		t.Fatalf("warnings = %v", res.Warnings)
	}
}

func TestSubmitNegotiationTurnsAreSerialized(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if _, err := f.manager.StartNegotiation(context.Background(), "Jane Smith"); err != nil {
		t.Fatalf("StartNegotiation() error = %v", err)
	}

	const turns = 12
	var wg sync.WaitGroup
	errs := make(chan error, turns)
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.manager.SubmitNegotiationTurn(context.Background(), "Jane Smith", fmt.Sprintf("offer %d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("SubmitNegotiationTurn() error = %v", err)
		}
	}

	s, err := f.manager.Session(context.Background(), "Jane Smith")
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if len(s.Transcript) != 1+2*turns || len(s.Guidance) != 1+turns {
		t.Fatalf("transcript=%d guidance=%d, lost updates", len(s.Transcript), len(s.Guidance))
	}
}

func TestCloseNegotiation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if _, err := f.manager.StartNegotiation(context.Background(), "Jane Smith"); err != nil {
		t.Fatalf("StartNegotiation() error = %v", err)
	}

	res, err := f.manager.CloseNegotiation(context.Background(), "Jane Smith", "close")
	if err != nil {
		t.Fatalf("CloseNegotiation() error = %v", err)
	}
	if res.Status != contractx.StatusClosedWon || res.Session.Phase != statex.PhaseClosed || res.InteractionID != 101 {
		t.Fatalf("result = %+v", res)
	}

	if len(f.repo.updates) != 1 {
		t.Fatalf("updates = %d", len(f.repo.updates))
	}
	update := f.repo.updates[0]
	if update.Status != contractx.StatusClosedWon || update.Notes != res.Notes || update.Labels.Intention != "Purchase" {
		t.Fatalf("update = %+v", update)
	}

	guidance := f.generator.byName(promptx.NameNegotiation)
	closing := guidance[len(guidance)-1].(promptx.Guidance)
	if closing.Result != promptx.ResultClose {
		t.Fatalf("closing guidance result = %q, want %q", closing.Result, promptx.ResultClose)
	}
	if res.Guidance == "" || res.Session.LatestGuidance() != res.Guidance {
		t.Fatalf("closing guidance = %q, session latest = %q", res.Guidance, res.Session.LatestGuidance())
	}

	last := f.sink.rows[len(f.sink.rows)-1]
	if last[3] != "Closed-Won" {
		t.Fatalf("final row outcome = %q", last[3])
	}

	if _, err := f.manager.Session(context.Background(), "Jane Smith"); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("Session() after close error = %v, want ErrNotFound", err)
	}
	if _, err := f.manager.SubmitNegotiationTurn(context.Background(), "Jane Smith", "hello?"); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("SubmitNegotiationTurn() after close error = %v", err)
	}
}

func TestCloseNegotiationEnd(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if _, err := f.manager.StartNegotiation(context.Background(), "Jane Smith"); err != nil {
		t.Fatalf("StartNegotiation() error = %v", err)
	}
	res, err := f.manager.CloseNegotiation(context.Background(), "Jane Smith", "END")
	if err != nil {
		t.Fatalf("CloseNegotiation() error = %v", err)
	}
	if res.Status != contractx.StatusClosedLost {
		t.Fatalf("Status = %q", res.Status)
	}
	guidance := f.generator.byName(promptx.NameNegotiation)
	if got := guidance[len(guidance)-1].(promptx.Guidance).Result; got != promptx.ResultEnd {
		t.Fatalf("closing guidance result = %q, want %q", got, promptx.ResultEnd)
	}
}

func TestCloseNegotiationPersistenceFailureKeepsSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if _, err := f.manager.StartNegotiation(context.Background(), "Jane Smith"); err != nil {
		t.Fatalf("StartNegotiation() error = %v", err)
	}
	f.repo.updateErr = fmt.Errorf("%w: store is locked", contractx.ErrPersistence)

	if _, err := f.manager.CloseNegotiation(context.Background(), "Jane Smith", "close"); !errors.Is(err, contractx.ErrPersistence) {
		t.Fatalf("CloseNegotiation() error = %v, want ErrPersistence", err)
	}
	s, err := f.manager.Session(context.Background(), "Jane Smith")
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if !s.IsOpen() {
		t.Fatal("session must stay open after a failed close")
	}
}

func TestCloseNegotiationValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if _, err := f.manager.CloseNegotiation(context.Background(), "Jane Smith", "maybe"); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("CloseNegotiation() error = %v, want ErrValidation", err)
	}
	if _, err := f.manager.CloseNegotiation(context.Background(), "Jane Smith", "close"); !errors.Is(err, contractx.ErrConflict) {
		t.Fatalf("CloseNegotiation() without start error = %v, want ErrConflict", err)
	}
}

func TestTurnQueueIsFIFO(t *testing.T) {
	t.Parallel()

	q := newTurnQueue()
	release := q.acquire("jane")

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 1; i <= 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			done := q.acquire("jane")
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			done()
		}(i)
		waitForTickets(t, q, "jane", uint64(i+1))
	}

	other := q.acquire("john")
	other()

	release()
	wg.Wait()

	if fmt.Sprint(order) != "[1 2 3]" {
		t.Fatalf("order = %v, want [1 2 3]", order)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.lines) != 0 {
		t.Fatalf("lines = %d, want 0", len(q.lines))
	}
}

func waitForTickets(t *testing.T, q *turnQueue, key string, n uint64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		q.mu.Lock()
		line := q.lines[key]
		q.mu.Unlock()
		if line != nil {
			line.mu.Lock()
			issued := line.next
			line.mu.Unlock()
			if issued >= n {
				return
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d tickets", n)
}
