package vectorindex

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	docPrefix     = "doc:"
	generationKey = "meta:generation"
)

var ErrEmptyQuery = errors.New("query is empty")

type Config struct {
	Dir string `split_words:"true"`
}

// Embedder turns texts into vectors. The i-th vector belongs to the i-th text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Hit is one search result. Score is cosine similarity.
type Hit struct {
	ID    string
	Text  string
	Score float64
}

type record struct {
	Text   string    `msgpack:"text"`
	Vector []float32 `msgpack:"vector"`
}

type entry struct {
	id     string
	text   string
	vector []float32
	norm   float64
}

// Index is a badger-backed document store with an in-memory flat vector scan.
// Each rebuild writes a new generation of documents and switches to it only
// once every document is stored.
type Index struct {
	db       *badger.DB
	embedder Embedder

	mu         sync.RWMutex
	generation uint64
	entries    []entry
}

// Open opens (or creates) the index under dir.
func Open(dir string, embedder Embedder) (*Index, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("index dir is required")
	}
	return OpenWithOptions(badger.DefaultOptions(dir).WithLogger(nil), embedder)
}

func OpenWithOptions(opts badger.Options, embedder Embedder) (*Index, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	idx := &Index{db: db, embedder: embedder}
	if err := idx.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return idx, nil
}

func (i *Index) Close() error {
	return i.db.Close()
}

// Len returns the number of indexed documents.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

func generationPrefix(gen uint64) []byte {
	return []byte(docPrefix + strconv.FormatUint(gen, 10) + ":")
}

func (i *Index) load() error {
	var (
		gen     uint64
		entries []entry
	)
	err := i.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(generationKey))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if gen, err = strconv.ParseUint(string(raw), 10, 64); err != nil {
				return fmt.Errorf("decode generation: %w", err)
			}
		}

		prefix := generationPrefix(gen)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var rec record
			if err := msgpack.Unmarshal(raw, &rec); err != nil {
				return fmt.Errorf("decode %s: %w", item.Key(), err)
			}
			id := strings.TrimPrefix(string(item.Key()), string(prefix))
			entries = append(entries, newEntry(id, rec))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}

	i.mu.Lock()
	i.generation = gen
	i.entries = entries
	i.mu.Unlock()
	return nil
}

// Rebuild replaces the whole corpus with texts. Duplicate and blank texts are
// skipped. It returns the number of stored documents. On failure the previous
// corpus stays in place, both in memory and on disk.
func (i *Index) Rebuild(ctx context.Context, texts []string, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 64
	}

	seen := make(map[string]struct{}, len(texts))
	ids := make([]string, 0, len(texts))
	docs := make([]string, 0, len(texts))
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		id := DocumentID(text)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		docs = append(docs, text)
	}

	vectors := make([][]float32, 0, len(docs))
	for start := 0; start < len(docs); start += batchSize {
		end := min(start+batchSize, len(docs))
		batch, err := i.embedder.Embed(ctx, docs[start:end])
		if err != nil {
			return 0, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if len(batch) != end-start {
			return 0, fmt.Errorf("embed batch %d-%d: got %d vectors", start, end, len(batch))
		}
		vectors = append(vectors, batch...)
		log.Debug().Int("done", end).Int("total", len(docs)).Msg("vectorindex: embedded batch")
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	next := i.generation + 1
	staging := generationPrefix(next)
	// Leftovers of an interrupted rebuild.
	if err := i.db.DropPrefix(staging); err != nil {
		return 0, fmt.Errorf("clear staging: %w", err)
	}

	entries, err := i.writeGeneration(staging, ids, docs, vectors)
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		err = i.db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(generationKey), []byte(strconv.FormatUint(next, 10)))
		})
	}
	if err != nil {
		if dropErr := i.db.DropPrefix(staging); dropErr != nil {
			log.Warn().Err(dropErr).Uint64("generation", next).Msg("vectorindex: staging cleanup failed")
		}
		return 0, fmt.Errorf("rebuild index: %w", err)
	}

	previous := generationPrefix(i.generation)
	i.generation = next
	i.entries = entries
	if err := i.db.DropPrefix(previous); err != nil {
		log.Warn().Err(err).Msg("vectorindex: dropping previous generation failed")
	}
	return len(entries), nil
}

func (i *Index) writeGeneration(prefix []byte, ids, docs []string, vectors [][]float32) ([]entry, error) {
	wb := i.db.NewWriteBatch()
	defer wb.Cancel()

	entries := make([]entry, 0, len(ids))
	for n, id := range ids {
		rec := record{Text: docs[n], Vector: vectors[n]}
		raw, err := msgpack.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", id, err)
		}
		if err := wb.Set(append(append([]byte(nil), prefix...), id...), raw); err != nil {
			return nil, fmt.Errorf("write %s: %w", id, err)
		}
		entries = append(entries, newEntry(id, rec))
	}
	if err := wb.Flush(); err != nil {
		return nil, fmt.Errorf("flush index: %w", err)
	}
	return entries, nil
}

// Search returns the k documents most similar to query, best first.
func (i *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 || i.Len() == 0 {
		return nil, nil
	}

	vectors, err := i.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vectors))
	}
	q := vectors[0]
	qNorm := norm(q)
	if qNorm == 0 {
		return nil, nil
	}

	i.mu.RLock()
	hits := make([]Hit, 0, len(i.entries))
	for _, e := range i.entries {
		if e.norm == 0 || len(e.vector) != len(q) {
			continue
		}
		hits = append(hits, Hit{ID: e.id, Text: e.text, Score: dot(q, e.vector) / (qNorm * e.norm)})
	}
	i.mu.RUnlock()

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DocumentID is the content hash that keys a document.
func DocumentID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func newEntry(id string, rec record) entry {
	return entry{id: id, text: rec.Text, vector: rec.Vector, norm: norm(rec.Vector)}
}

func dot(a, b []float32) float64 {
	var s float64
	for n := range a {
		s += float64(a[n]) * float64(b[n])
	}
	return s
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
