package gateway

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	"github.com/tanpawarit/ai-sales-assistant/pkg/vectorindex"
)

// Searcher is the subset of the vector index the retriever needs.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]vectorindex.Hit, error)
}

type Retriever struct {
	index   Searcher
	timeout time.Duration
}

func NewRetriever(index Searcher, timeout time.Duration) *Retriever {
	return &Retriever{index: index, timeout: timeout}
}

// Search never fails. A missing index or a search error yields no documents.
func (r *Retriever) Search(ctx context.Context, query string, k int) []contractx.Document {
	if r == nil || r.index == nil {
		log.Warn().Msg("retriever: no index configured")
		return nil
	}

	callCtx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	hits, err := r.index.Search(callCtx, query, k)
	if err != nil {
		log.Warn().Err(err).Int("k", k).Msg("retriever: search failed")
		return nil
	}

	docs := make([]contractx.Document, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, contractx.Document{ID: h.ID, Content: h.Text, Score: h.Score})
	}
	return docs
}
