package sources

import (
	"context"
	"log/slog"
	"strings"

	"confronto/internal/cache"
	"confronto/internal/core"
)

// Cached wraps a source with a range-keyed cache. Only successful fetches
// are stored.
type Cached struct {
	next  TransactionSource
	cache cache.Cache[[]core.RawTransaction]
}

var _ TransactionSource = (*Cached)(nil)

func NewCached(next TransactionSource, c cache.Cache[[]core.RawTransaction]) *Cached {
	return &Cached{next: next, cache: c}
}

func (c *Cached) FetchTransactions(ctx context.Context, start, end core.Date) ([]core.RawTransaction, error) {
	key := rangeKey(start, end)
	if txs, ok := c.cache.Get(key); ok {
		slog.DebugContext(ctx, "Transactions served from cache", "range", key, "count", len(txs))
		return txs, nil
	}

	txs, err := c.next.FetchTransactions(ctx, start, end)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, txs)
	return txs, nil
}

// Invalidate drops every cached range that overlaps [start, end].
func (c *Cached) Invalidate(start, end core.Date) {
	for _, key := range c.cache.Keys() {
		from, to, ok := parseRangeKey(key)
		if ok && (from.After(end) || to.Before(start)) {
			continue
		}
		c.cache.Delete(key)
	}
}

func rangeKey(start, end core.Date) string {
	return start.String() + ".." + end.String()
}

func parseRangeKey(key string) (start, end core.Date, ok bool) {
	a, b, found := strings.Cut(key, "..")
	if !found {
		return core.Date{}, core.Date{}, false
	}
	start, err := core.ParseDate(a)
	if err != nil {
		return core.Date{}, core.Date{}, false
	}
	end, err = core.ParseDate(b)
	if err != nil {
		return core.Date{}, core.Date{}, false
	}
	return start, end, true
}
