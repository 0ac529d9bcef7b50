package intent

import (
	"github.com/basalt-os/shepherd/pkg/marker"
	"github.com/pkg/errors"
)

// FallbackNodeAction is the action used to re-enter the progression from an
// indeterminate point.
const FallbackNodeAction = marker.NodeActionStabilize

// nextLinear is the authoritative transition table. It is fixed at compile
// time and total over the declared action domain plus the empty value.
var nextLinear = map[marker.NodeAction]marker.NodeAction{
	// Stabilization from known points.
	"":                         marker.NodeActionStabilize,
	marker.NodeActionStabilize: marker.NodeActionStabilize,
	marker.NodeActionUnknown:   marker.NodeActionStabilize,

	// Linear progression.
	marker.NodeActionReset:         marker.NodeActionStabilize,
	marker.NodeActionPrepareUpdate: marker.NodeActionPerformUpdate,
	marker.NodeActionPerformUpdate: marker.NodeActionRebootUpdate,
	// FIN. The actor must know what to do next to bring itself around again
	// if that's what's appropriate.
	marker.NodeActionRebootUpdate: marker.NodeActionRebootUpdate,
}

// linearOrder positions each real action on the fixed progression. Actions
// outside the progression (unknown, empty) have no position.
var linearOrder = map[marker.NodeAction]int{
	marker.NodeActionStabilize:     1,
	marker.NodeActionReset:         2,
	marker.NodeActionPrepareUpdate: 3,
	marker.NodeActionPerformUpdate: 4,
	marker.NodeActionRebootUpdate:  5,
}

// Next returns the permitted successor of the provided action. For any
// action not present in the table the result is NodeActionUnknown alongside
// a descriptive error; callers must not treat this as fatal - they log and
// retry on the next observation.
//
// Next is a pure function with no shared state and is safe for concurrent
// use without synchronization.
func Next(action marker.NodeAction) (marker.NodeAction, error) {
	next, ok := nextLinear[action]
	if !ok {
		return marker.NodeActionUnknown, errors.Errorf("no next action from %q, resolving as unknown", action)
	}
	return next, nil
}
