// Package lookup is an in-memory full-text index over the tracked series
// list, rebuilt whenever the list is refreshed.
package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/listenupapp/listenup-tracker/internal/domain"
)

const (
	batchSize    = 500
	defaultLimit = 20
	maxLimit     = 100
)

// Index wraps a memory-only Bleve index of tracked series.
//
// All methods are safe for concurrent use. Replace builds a fresh index and
// swaps it in, so searches never observe a half-built list.
type Index struct {
	index  bleve.Index
	logger *slog.Logger
	mu     sync.RWMutex
}

// Params configures a lookup.
type Params struct {
	Query  string
	Status domain.UserSeriesStatus // empty matches every status
	Limit  int
}

// Hit is a matching series id with its relevance score.
type Hit struct {
	UserID int     `json:"user_id"`
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
}

// New creates an empty index.
func New(logger *slog.Logger) (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Index{index: idx, logger: logger}, nil
}

// Close releases the index.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.index.Close()
}

// DocCount returns the number of indexed series.
func (x *Index) DocCount() (uint64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.index.DocCount()
}

// Replace rebuilds the index from series. Its signature matches the
// refresh hook used by collection sessions.
func (x *Index) Replace(ctx context.Context, series []domain.Series) error {
	next, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	for start := 0; start < len(series); start += batchSize {
		if err := ctx.Err(); err != nil {
			next.Close()
			return err
		}
		end := min(start+batchSize, len(series))

		batch := next.NewBatch()
		for _, s := range series[start:end] {
			if err := batch.Index(strconv.Itoa(s.UserID), toDocument(s)); err != nil {
				next.Close()
				return fmt.Errorf("index series %d: %w", s.UserID, err)
			}
		}
		if err := next.Batch(batch); err != nil {
			next.Close()
			return fmt.Errorf("execute batch: %w", err)
		}
	}

	x.mu.Lock()
	prev := x.index
	x.index = next
	x.mu.Unlock()

	if err := prev.Close(); err != nil {
		x.logger.Warn("failed to close previous lookup index", "error", err)
	}
	x.logger.Debug("lookup index rebuilt", "count", len(series))
	return nil
}

// Upsert reindexes a single series. Its signature matches the update hook
// used by collection sessions, so statuses stay current between refreshes.
func (x *Index) Upsert(_ context.Context, series domain.Series) error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if err := x.index.Index(strconv.Itoa(series.UserID), toDocument(series)); err != nil {
		return fmt.Errorf("index series %d: %w", series.UserID, err)
	}
	return nil
}

// Search returns tracked series whose title matches params.Query, best first.
func (x *Index) Search(ctx context.Context, params Params) ([]Hit, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	req := bleve.NewSearchRequestOptions(buildQuery(params), limit, 0, false)
	req.Fields = []string{"title"}

	x.mu.RLock()
	defer x.mu.RUnlock()

	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := strconv.Atoi(h.ID)
		if err != nil {
			continue
		}
		hit := Hit{UserID: id, Score: h.Score}
		if title, ok := h.Fields["title"].(string); ok {
			hit.Title = title
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func toDocument(s domain.Series) map[string]any {
	return map[string]any{
		"title":   s.Title,
		"status":  string(s.Status),
		"type":    string(s.Type),
		"subtype": string(s.Subtype),
	}
}

// buildQuery matches the title exactly, fuzzily and by prefix, optionally
// restricted to one status.
func buildQuery(params Params) query.Query {
	q := strings.TrimSpace(params.Query)
	if q == "" {
		return bleve.NewMatchNoneQuery()
	}

	match := bleve.NewMatchQuery(q)
	match.SetField("title")
	match.SetBoost(3.0)

	fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
	fuzzy.SetField("title")
	fuzzy.SetFuzziness(1)
	fuzzy.SetBoost(0.8)

	text := []query.Query{match, fuzzy}
	if len(q) >= 2 {
		prefix := bleve.NewPrefixQuery(strings.ToLower(q))
		prefix.SetField("title")
		prefix.SetBoost(0.5)
		text = append(text, prefix)
	}

	var result query.Query = bleve.NewDisjunctionQuery(text...)
	if params.Status != "" {
		status := bleve.NewTermQuery(string(params.Status))
		status.SetField("status")
		result = bleve.NewConjunctionQuery(result, status)
	}
	return result
}
