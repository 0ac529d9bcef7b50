package intent

import (
	"fmt"
	"testing"

	"github.com/basalt-os/shepherd/pkg/marker"

	"gotest.tools/assert"
)

func testIntent() *Intent {
	return &Intent{
		NodeName: "test",
		Wanted:   marker.NodeActionStabilize,
		Active:   marker.NodeActionStabilize,
		State:    marker.NodeStateReady,
	}
}

// predicate pairs a capability method with its name for test reporting.
// Dispatch is through typed func values, so a misspelled predicate is a
// compile error.
type predicate struct {
	name string
	fn   func(*Intent) bool
}

var (
	predRealized  = predicate{"Realized", (*Intent).Realized}
	predWaiting   = predicate{"Waiting", (*Intent).Waiting}
	predStuck     = predicate{"Stuck", (*Intent).Stuck}
	predIntrusive = predicate{"Intrusive", (*Intent).Intrusive}
	predErrored   = predicate{"Errored", (*Intent).Errored}
	predDegraded  = predicate{"DegradedPath", (*Intent).DegradedPath}
	predInProg    = predicate{"InProgress", (*Intent).InProgress}
	predTerminal  = predicate{"Terminal", (*Intent).Terminal}
)

func TestIntentTruths(t *testing.T) {
	testcases := []struct {
		name    string
		intents []Intent
		truthy  []predicate
		falsy   []predicate
	}{
		{
			name: "reset",
			intents: []Intent{
				func(i *Intent) Intent { i.reset(); return *i }(testIntent()),
			},
			truthy: []predicate{predRealized, predWaiting, predStuck},
			falsy:  []predicate{predIntrusive},
		},
		{
			name: "stabilized",
			intents: []Intent{
				{Wanted: marker.NodeActionStabilize, Active: marker.NodeActionStabilize, State: marker.NodeStateReady},
			},
			truthy: []predicate{predRealized, predWaiting, predTerminal},
			falsy:  []predicate{predErrored, predIntrusive, predInProg, predDegraded},
		},
		{
			name: "mid-update",
			intents: []Intent{
				{Wanted: marker.NodeActionPerformUpdate, Active: marker.NodeActionPrepareUpdate, State: marker.NodeStateReady},
			},
			truthy: []predicate{predInProg, predWaiting},
			falsy:  []predicate{predRealized, predErrored, predStuck},
		},
		{
			name: "update-errored",
			intents: []Intent{
				{Wanted: marker.NodeActionRebootUpdate, Active: marker.NodeActionRebootUpdate, State: marker.NodeStateError},
			},
			truthy: []predicate{predErrored, predWaiting},
			falsy:  []predicate{predRealized, predInProg},
		},
		{
			name: "reboot-pending",
			intents: []Intent{
				{Wanted: marker.NodeActionRebootUpdate, Active: marker.NodeActionPerformUpdate, State: marker.NodeStateReady},
			},
			truthy: []predicate{predIntrusive, predInProg},
			falsy:  []predicate{predRealized, predStuck},
		},
	}

	for _, tc := range testcases {
		for _, in := range tc.intents {
			in := in
			name := fmt.Sprintf("%s(%s)", tc.name, in.DisplayString())
			t.Run(name, func(t *testing.T) {
				in.NodeName = "state-machine"

				seen := map[string]struct{}{}
				noOverlap := func(p predicate) {
					_, overlapping := seen[p.name]
					assert.Assert(t, !overlapping, "the predicate %q was asserted twice", p.name)
					seen[p.name] = struct{}{}
				}

				for _, p := range tc.truthy {
					noOverlap(p)
					assert.Check(t, p.fn(&in), "%q expected to be true", p.name)
				}
				for _, p := range tc.falsy {
					noOverlap(p)
					assert.Check(t, !p.fn(&in), "%q expected to be false", p.name)
				}
			})
		}
	}
}

func TestReset(t *testing.T) {
	i := testIntent()
	s := testIntent()

	s.reset()

	// first action after reset
	assert.Equal(t, s.Projected().Wanted, marker.NodeActionStabilize)
	assert.Check(t, i.Active != s.Active)
}

func TestGivenDuplicate(t *testing.T) {
	i := testIntent()
	s := Given(i)
	assert.DeepEqual(t, i, s)
}

func TestClone(t *testing.T) {
	i := testIntent()
	i.State = marker.NodeStateUnknown
	s := i.Clone()
	assert.DeepEqual(t, i, s)

	// Clones are independent of their source.
	s.Wanted = marker.NodeActionRebootUpdate
	assert.Check(t, i.Wanted != s.Wanted)
}

func TestProjectionMatches(t *testing.T) {
	i := Intent{
		Wanted: marker.NodeActionPerformUpdate,
		Active: marker.NodeActionStabilize,
		State:  marker.NodeStateReady,
	}
	assert.Equal(t, i.projectActive().Wanted, i.Active)
}

func TestProjectedKeepsProgress(t *testing.T) {
	i := Intent{
		Wanted: marker.NodeActionPrepareUpdate,
		Active: marker.NodeActionPrepareUpdate,
		State:  marker.NodeStateReady,
	}
	p := i.Projected()
	assert.Equal(t, p.Wanted, marker.NodeActionPerformUpdate)
	assert.Equal(t, p.Active, marker.NodeActionPrepareUpdate)
}

// An Active recorded ahead of Wanted on the progression cannot have been
// commanded; it must be treated as stale rather than trusted.
func TestStaleActiveDegradesPath(t *testing.T) {
	stale := Intent{
		Wanted: marker.NodeActionStabilize,
		Active: marker.NodeActionPerformUpdate,
		State:  marker.NodeStateReady,
	}
	assert.Check(t, stale.staleActive())
	assert.Check(t, stale.DegradedPath())

	ordered := Intent{
		Wanted: marker.NodeActionPerformUpdate,
		Active: marker.NodeActionPrepareUpdate,
		State:  marker.NodeStateReady,
	}
	assert.Check(t, !ordered.staleActive())
}

func TestEquivalent(t *testing.T) {
	a := testIntent()
	b := testIntent()
	assert.Check(t, Equivalent(a, b))

	b.Active = marker.NodeActionPerformUpdate
	assert.Check(t, !Equivalent(a, b))

	c := testIntent()
	c.State = marker.NodeStateBusy
	assert.Check(t, !Equivalent(a, c))

	assert.Check(t, !Equivalent(nil, a))
	assert.Check(t, Equivalent(nil, nil))
}

func TestGivenUnrecognizedMarkers(t *testing.T) {
	in := Given(&Intent{
		NodeName: "garbled",
		Wanted:   "not-a-real-action",
		Active:   "",
		State:    "arst",
	})
	// Decoding never errors; the values resolve through unknown handling.
	assert.Equal(t, in.Wanted, "not-a-real-action")
	next, err := Next(in.Wanted)
	assert.Assert(t, err != nil)
	assert.Equal(t, next, marker.NodeActionUnknown)
}
