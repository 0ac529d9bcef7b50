// Package cache remembers the most recently processed Intent for each node.
// It is a de-duplication optimization only: it is never authoritative and a
// miss must always fall back to re-deriving from the node's markers.
package cache

import (
	"time"

	"github.com/basalt-os/shepherd/pkg/intent"

	"github.com/karlseguin/ccache"
)

const (
	lastSeenTTL = time.Second * 15

	maxCachedIntents = 1000
	pruneCount       = 100
)

// LastCache provides access to the last cached Intent that came from the
// same source as the provided Intent.
type LastCache interface {
	Last(*intent.Intent) *intent.Intent
	Record(*intent.Intent)
}

type lastCache struct {
	cache *ccache.Cache
	ttl   time.Duration
}

// NewLastCache creates a bounded cache suitable for storing and retrieving
// the last observed Intent for each node. Entries expire after 15 seconds
// and the oldest entries are pruned first when the item cap is reached.
func NewLastCache() LastCache {
	return newLastCacheTTL(lastSeenTTL)
}

func newLastCacheTTL(ttl time.Duration) *lastCache {
	return &lastCache{
		cache: ccache.New(ccache.Configure().MaxSize(maxCachedIntents).ItemsToPrune(pruneCount)),
		ttl:   ttl,
	}
}

// Last returns a copy of the last Intent recorded for the provided Intent's
// node, or nil when absent or expired. Callers are free to mutate the
// result without affecting the cache.
func (l *lastCache) Last(in *intent.Intent) *intent.Intent {
	if in == nil {
		return nil
	}
	val := l.cache.Get(in.GetName())
	if val == nil || val.Expired() {
		return nil
	}
	cached, ok := val.Value().(*intent.Intent)
	if !ok {
		return nil
	}
	// Copy to protect against mutation of the cached in-memory Intent.
	return cached.Clone()
}

// Record caches a copy of the provided Intent as the most recent handled
// for its node.
func (l *lastCache) Record(in *intent.Intent) {
	if in == nil {
		return
	}
	l.cache.Set(in.GetName(), in.Clone(), l.ttl)
}
