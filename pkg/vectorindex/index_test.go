package vectorindex

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v3"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// letterEmbedder maps text to a 26-dim letter histogram.
type letterEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *letterEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, 26)
		for _, r := range strings.ToLower(text) {
			if r >= 'a' && r <= 'z' {
				vec[r-'a']++
			}
		}
		out[i] = vec
	}
	return out, nil
}

func openMemoryIndex(t *testing.T, embedder Embedder) *Index {
	t.Helper()
	idx, err := OpenWithOptions(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil), embedder)
	if err != nil {
		t.Fatalf("OpenWithOptions() error = %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestRebuildDedupesAndSearches(t *testing.T) {
	t.Parallel()

	idx := openMemoryIndex(t, &letterEmbedder{})
	n, err := idx.Rebuild(context.Background(), []string{
		"Name: aaaa",
		"Name: zzzz",
		"Name: aaaa",
		"   ",
		"Name: mmmm",
	}, 2)
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if n != 3 || idx.Len() != 3 {
		t.Fatalf("Rebuild() = %d, Len() = %d, want 3", n, idx.Len())
	}

	hits, err := idx.Search(context.Background(), "zzz", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Search() len = %d, want 2", len(hits))
	}
	if hits[0].Text != "Name: zzzz" {
		t.Fatalf("top hit = %q, want Name: zzzz", hits[0].Text)
	}
	if hits[0].ID != DocumentID("Name: zzzz") {
		t.Fatalf("top hit id = %q", hits[0].ID)
	}
	if hits[0].Score < hits[1].Score {
		t.Fatalf("hits not sorted: %#v", hits)
	}
}

func TestRebuildReplacesCorpus(t *testing.T) {
	t.Parallel()

	idx := openMemoryIndex(t, &letterEmbedder{})
	if _, err := idx.Rebuild(context.Background(), []string{"old one", "old two"}, 10); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if _, err := idx.Rebuild(context.Background(), []string{"new"}, 10); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if idx.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", idx.Len())
	}

	if err := idx.load(); err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if idx.Len() != 1 {
		t.Fatalf("Len() after reload = %d, want 1", idx.Len())
	}
}

func TestSearchEmptyIndexAndQuery(t *testing.T) {
	t.Parallel()

	embedder := &letterEmbedder{}
	idx := openMemoryIndex(t, embedder)

	hits, err := idx.Search(context.Background(), "anything", 5)
	if err != nil || len(hits) != 0 {
		t.Fatalf("Search() = %v, %v, want empty", hits, err)
	}
	if embedder.calls != 0 {
		t.Fatalf("embedder calls = %d, want 0", embedder.calls)
	}

	if _, err := idx.Search(context.Background(), "  ", 5); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("Search() error = %v, want ErrEmptyQuery", err)
	}
}

func TestRebuildEmbedFailureKeepsCorpus(t *testing.T) {
	t.Parallel()

	embedder := &letterEmbedder{}
	idx := openMemoryIndex(t, embedder)
	if _, err := idx.Rebuild(context.Background(), []string{"keep me"}, 10); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	embedder.err = errors.New("quota")
	if _, err := idx.Rebuild(context.Background(), []string{"replacement"}, 10); err == nil {
		t.Fatal("Rebuild() error = nil, want error")
	}
	if idx.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", idx.Len())
	}
}

// cancelingEmbedder cancels the rebuild once the corpus has been embedded,
// so the failure lands after the new generation is written.
type cancelingEmbedder struct {
	letterEmbedder
	cancel context.CancelFunc
}

func (e *cancelingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out, err := e.letterEmbedder.Embed(ctx, texts)
	if e.cancel != nil {
		e.cancel()
	}
	return out, err
}

func countKeys(t *testing.T, idx *Index, prefix []byte) int {
	t.Helper()
	n := 0
	err := idx.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("count keys: %v", err)
	}
	return n
}

func TestRebuildFailureAfterStagingKeepsCorpus(t *testing.T) {
	t.Parallel()

	embedder := &cancelingEmbedder{}
	idx := openMemoryIndex(t, embedder)
	if _, err := idx.Rebuild(context.Background(), []string{"keep me", "and me"}, 10); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	gen := idx.generation

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	embedder.cancel = cancel
	if _, err := idx.Rebuild(ctx, []string{"replacement"}, 10); !errors.Is(err, context.Canceled) {
		t.Fatalf("Rebuild() error = %v, want context.Canceled", err)
	}

	if idx.Len() != 2 || idx.generation != gen {
		t.Fatalf("Len() = %d generation = %d, want 2 and %d", idx.Len(), idx.generation, gen)
	}
	if n := countKeys(t, idx, generationPrefix(gen+1)); n != 0 {
		t.Fatalf("staging keys = %d, want 0", n)
	}

	if err := idx.load(); err != nil {
		t.Fatalf("load() error = %v", err)
	}
	hits, err := idx.Search(context.Background(), "keep", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if idx.Len() != 2 || len(hits) != 1 || hits[0].Text != "keep me" {
		t.Fatalf("after reload Len() = %d hits = %#v", idx.Len(), hits)
	}
}

func TestRebuildDropsPreviousGeneration(t *testing.T) {
	t.Parallel()

	idx := openMemoryIndex(t, &letterEmbedder{})
	if _, err := idx.Rebuild(context.Background(), []string{"old one", "old two"}, 10); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	first := idx.generation
	if _, err := idx.Rebuild(context.Background(), []string{"new"}, 10); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	if n := countKeys(t, idx, generationPrefix(first)); n != 0 {
		t.Fatalf("previous generation keys = %d, want 0", n)
	}
	if n := countKeys(t, idx, generationPrefix(idx.generation)); n != 1 {
		t.Fatalf("current generation keys = %d, want 1", n)
	}
}

func TestOpenAIEmbedderOrdersByIndex(t *testing.T) {
	t.Parallel()

	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		gotModel = body.Model
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "text-embedding-3-small",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0, 1]},
				{"object": "embedding", "index": 0, "embedding": [1, 0]}
			],
			"usage": {"prompt_tokens": 2, "total_tokens": 2}
		}`))
	}))
	defer srv.Close()

	client := openai.NewClient(option.WithBaseURL(srv.URL), option.WithAPIKey("test"), option.WithMaxRetries(0))
	embedder, err := NewOpenAIEmbedder(&client, "")
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder() error = %v", err)
	}

	vectors, err := embedder.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if gotModel != "text-embedding-3-small" {
		t.Fatalf("model = %q", gotModel)
	}
	if len(vectors) != 2 || vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Fatalf("vectors = %#v", vectors)
	}
}
