package http

import (
	"bytes"
	"context"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/metrics"
)

// chartCache keeps encoded PNGs. Keys include the ledger state version, so
// any write to the store, from this process or another, makes older entries
// unreachable and they age out.
type chartCache struct {
	lru   *cache.LRU[[]byte]
	group singleflight.Group
}

func newChartCache(size int, ttl time.Duration) *chartCache {
	return &chartCache{lru: cache.NewLRU[[]byte](size, ttl)}
}

func chartKey(chart, theme string, c core.FilterCriteria, version string) string {
	return strings.Join([]string{chart, theme, version, c.Key()}, "|")
}

// get returns the cached PNG for key or renders it. Concurrent misses on the
// same key share one render. The bool reports a cache hit.
func (cc *chartCache) get(ctx context.Context, key string, render func(context.Context, *bytes.Buffer) error) ([]byte, bool, error) {
	if png, ok := cc.lru.Get(key); ok {
		metrics.ChartCacheLookups.WithLabelValues(metrics.ResultHit).Inc()
		return png, true, nil
	}
	metrics.ChartCacheLookups.WithLabelValues(metrics.ResultMiss).Inc()

	v, err, _ := cc.group.Do(key, func() (any, error) {
		var buf bytes.Buffer
		// the shared render ignores any single caller's cancellation
		if err := render(context.WithoutCancel(ctx), &buf); err != nil {
			return nil, err
		}
		png := buf.Bytes()
		cc.lru.Set(key, png)
		return png, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), false, nil
}
