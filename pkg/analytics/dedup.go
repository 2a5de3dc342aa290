package analytics

import (
	"context"
	"time"

	"github.com/wp-poweranalytics/power-analytics/pkg/kvcache"
)

const (
	// DedupTTL is the snapshot window.
	DedupTTL   = 6 * time.Hour
	dedupValue = "exists"
)

// DedupGate lets one snapshot through per product and window. The cache's
// Set is the only serialization point: two processes racing on an empty key
// may both send, which costs a duplicate snapshot and nothing else.
type DedupGate struct {
	cache     kvcache.Cache
	namespace string
	logger    *analyticsLogger
}

func NewDedupGate(cache kvcache.Cache, namespace string, logger *analyticsLogger) *DedupGate {
	return &DedupGate{cache: cache, namespace: namespace, logger: logger}
}

func (g *DedupGate) key(productUUID string) string {
	return g.namespace + "-" + productUUID
}

// ShouldSendSnapshot reports whether a snapshot is due and, if so, opens a
// new window. Any value under the key counts as "already sent".
func (g *DedupGate) ShouldSendSnapshot(ctx context.Context, productUUID string) bool {
	key := g.key(productUUID)

	_, found, err := g.cache.Get(ctx, key)
	if err != nil {
		g.logger.Debug("Dedup flag unreadable, treating as absent", "key", key, "error", err)
	}
	if found {
		return false
	}

	if err := g.cache.Set(ctx, key, dedupValue, DedupTTL); err != nil {
		g.logger.Debug("Failed to store dedup flag", "key", key, "error", err)
	}
	return true
}
