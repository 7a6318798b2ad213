package collector

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"NewsRanker/internal/domain"
	"NewsRanker/internal/ports"
)

// Cached memoizes collector responses per lane and query for a TTL. Errors
// are never cached.
type Cached struct {
	next  ports.Collector
	store *cache.Cache
}

var _ ports.Collector = (*Cached)(nil)

// NewCached wraps next. A non-positive ttl returns next unchanged.
func NewCached(next ports.Collector, ttl time.Duration) ports.Collector {
	if ttl <= 0 {
		return next
	}
	return &Cached{next: next, store: cache.New(ttl, 2*ttl)}
}

// Lane reports the wrapped collector's lane.
func (c *Cached) Lane() domain.Lane { return c.next.Lane() }

// Collect serves q from the cache or the wrapped collector.
func (c *Cached) Collect(ctx context.Context, q ports.Query) ([]domain.RawRecord, error) {
	key := cacheKey(c.next.Lane(), q)
	if hit, ok := c.store.Get(key); ok {
		return cloneRecords(hit.([]domain.RawRecord)), nil
	}

	records, err := c.next.Collect(ctx, q)
	if err != nil {
		return nil, err
	}
	c.store.Set(key, cloneRecords(records), cache.DefaultExpiration)
	return records, nil
}

func cacheKey(lane domain.Lane, q ports.Query) string {
	var b strings.Builder
	b.WriteString(string(lane))
	b.WriteByte('|')
	b.WriteString(strings.ToLower(strings.TrimSpace(q.Text)))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(q.Count))
	for _, f := range q.Feeds {
		b.WriteByte('|')
		b.WriteString(f)
	}
	return b.String()
}

func cloneRecords(in []domain.RawRecord) []domain.RawRecord {
	if in == nil {
		return nil
	}
	return append([]domain.RawRecord(nil), in...)
}
