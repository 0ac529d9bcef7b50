package cache

import (
	"testing"
	"time"

	"github.com/basalt-os/shepherd/pkg/intent"
	"github.com/basalt-os/shepherd/pkg/marker"

	"gotest.tools/assert"
)

func testIntent(node string) *intent.Intent {
	return &intent.Intent{
		NodeName: node,
		Wanted:   marker.NodeActionStabilize,
		Active:   marker.NodeActionStabilize,
		State:    marker.NodeStateReady,
	}
}

func TestLastRoundTrip(t *testing.T) {
	c := NewLastCache()
	in := testIntent("node-a")

	c.Record(in)

	got := c.Last(in)
	assert.Assert(t, got != nil)
	assert.DeepEqual(t, got, in)
}

func TestLastMiss(t *testing.T) {
	c := NewLastCache()
	assert.Assert(t, c.Last(testIntent("absent")) == nil)
}

func TestNilSafety(t *testing.T) {
	c := NewLastCache()
	c.Record(nil)
	assert.Assert(t, c.Last(nil) == nil)
}

// Mutating the returned copy must not change what a subsequent Last call
// returns.
func TestCopyIsolation(t *testing.T) {
	c := NewLastCache()
	in := testIntent("node-a")
	c.Record(in)

	first := c.Last(in)
	first.Wanted = marker.NodeActionRebootUpdate
	first.State = marker.NodeStateError

	second := c.Last(in)
	assert.Equal(t, second.Wanted, marker.NodeActionStabilize)
	assert.Equal(t, second.State, marker.NodeStateReady)

	// The recorded source is equally isolated from the cache.
	in.Active = marker.NodeActionPerformUpdate
	assert.Equal(t, c.Last(in).Active, marker.NodeActionStabilize)
}

func TestExpiry(t *testing.T) {
	c := newLastCacheTTL(5 * time.Millisecond)
	in := testIntent("node-a")
	c.Record(in)

	assert.Assert(t, c.Last(in) != nil)
	time.Sleep(10 * time.Millisecond)
	assert.Assert(t, c.Last(in) == nil)
}

func TestKeyedByNode(t *testing.T) {
	c := NewLastCache()
	a := testIntent("node-a")
	b := testIntent("node-b")
	b.Wanted = marker.NodeActionPrepareUpdate

	c.Record(a)
	c.Record(b)

	assert.Equal(t, c.Last(a).Wanted, marker.NodeActionStabilize)
	assert.Equal(t, c.Last(b).Wanted, marker.NodeActionPrepareUpdate)
}
