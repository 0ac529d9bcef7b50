package intent

import (
	"fmt"

	"github.com/basalt-os/shepherd/pkg/marker"
)

// Intent is a pseudo-Container of Labels and Annotations.
var _ marker.Container = (*Intent)(nil)

// Intent is the sole communicator of state progression and desired
// intentions for an agent to act upon and to communicate its progress. It is
// decoded from a Node's markers on every observation and mutated only
// through copies; no two components may alias the same in-memory Intent.
type Intent struct {
	// NodeName is the Resource name that addresses it.
	NodeName string
	// Wanted is the currently instructed action on the node.
	Wanted marker.NodeAction
	// Active is the action acknowledged and acted upon by the node.
	Active marker.NodeAction
	// State is the reported status of the node, generally for the Active
	// action.
	State marker.NodeState
	// UpdateAvailable is the node's status of having an update ready to
	// apply.
	UpdateAvailable marker.NodeUpdate
}

// GetName returns the name of the Intent's target.
func (i *Intent) GetName() string {
	return i.NodeName
}

// GetAnnotations transposes the Intent into a map of annotations suitable
// for merging onto a Resource.
func (i *Intent) GetAnnotations() map[string]string {
	return map[string]string{
		marker.DesiredStateKey:    i.Wanted,
		marker.NodeStateKey:       i.Active,
		marker.NodeStatusKey:      i.State,
		marker.UpdateAvailableKey: i.UpdateAvailable,
	}
}

// GetLabels transposes the Intent into a map of labels suitable for merging
// onto a Resource. Update availability is duplicated as a label so that
// updatable nodes remain label-selectable.
func (i *Intent) GetLabels() map[string]string {
	return map[string]string{
		marker.UpdateAvailableKey: i.UpdateAvailable,
	}
}

// Waiting reports true when a node is settled and waiting to make further
// commanded progress towards completing an update. This doesn't indicate
// whether the intent reached its waiting state successfully; combine with
// other predicates for that.
func (i *Intent) Waiting() bool {
	switch i.State {
	case marker.NodeStateReady:
		// Ready for action, probably waiting for the next command.
		return true
	case "", marker.NodeStateUnknown:
		// No state yet, likely because nothing was asked of the node so far.
		return true
	case marker.NodeStateError:
		// Errored and waiting on a next step.
		return true
	default:
		return false
	}
}

// Intrusive indicates that the intention will disrupt the node's workload if
// realized.
func (i *Intent) Intrusive() bool {
	return i.Wanted == marker.NodeActionRebootUpdate && !i.Realized()
}

// Errored indicates that the intention was attempted but failed.
func (i *Intent) Errored() bool {
	return i.State == marker.NodeStateError
}

// Stuck intents are those that cannot be realized or are terminal in their
// current state and need outside action to be unstuck. Callers needing
// terminal handling should check Terminal directly.
func (i *Intent) Stuck() bool {
	// The end of the state machine has been reached.
	exhausted := i.Terminal() && i.Realized()
	// A step failed and may not be retriable without intervening action.
	failure := i.Errored()
	// The actions reached a static position that the state machine's steps
	// cannot drive further.
	degradedStatic := !i.Waiting() && (exhausted || failure)
	// The actions were transitioned to unknown handling and wait for
	// instructions.
	stuckUnknown := i.inUnknownState() && !i.InProgress()
	wantingUnknown := i.Wanted == marker.NodeActionUnknown && i.Waiting()
	degradedUnknown := stuckUnknown || wantingUnknown
	// The action's step was out of line and would derail.
	degradedPath := i.DegradedPath()
	// The action was not one of progress and yet was acted upon.
	degradedBusy := !i.isProgressAction(i.Wanted) && i.Wanted == i.Active && i.State == marker.NodeStateBusy

	return degradedStatic || degradedUnknown || degradedPath || degradedBusy
}

// DegradedPath indicates that the intent will derail and step into an
// unknown step if it has not already.
func (i *Intent) DegradedPath() bool {
	// An Active ahead of Wanted on the progression cannot have been
	// commanded; the recorded Active is stale and the path is re-derived
	// from Wanted.
	if i.staleActive() {
		return true
	}
	anticipated := i.projectActive()
	// The path is misaligned when we're starting anew.
	starting := i.SetBeginUpdate().Wanted == i.Wanted
	untargeted := anticipated.Wanted == marker.NodeActionUnknown
	inconsistent := !i.Realized() && anticipated.Wanted != i.Wanted
	return (!starting || i.Terminal()) && (untargeted || inconsistent)
}

// staleActive reports whether the recorded Active action sits later on the
// fixed progression than the Wanted action.
func (i *Intent) staleActive() bool {
	wanted, ok := linearOrder[i.Wanted]
	if !ok {
		return false
	}
	active, ok := linearOrder[i.Active]
	if !ok {
		return false
	}
	return active > wanted
}

// Realized indicates that the Intent reached the intended state.
func (i *Intent) Realized() bool {
	return !i.InProgress() && !i.Errored()
}

// InProgress reports true when the Intent is for a node actively making
// progress towards completing an update.
func (i *Intent) InProgress() bool {
	// Waiting for handling of the intent.
	pendingNode := i.Wanted != i.Active && i.Waiting() && !i.Errored()
	// Waiting on the handler to complete its intent handling.
	pendingFinish := i.Wanted == i.Active && !i.Waiting()
	return pendingNode || pendingFinish
}

// isProgressAction indicates that the provided action may be able to make
// progress towards another state.
func (i *Intent) isProgressAction(action marker.NodeAction) bool {
	_, ok := linearOrder[action]
	return ok
}

// HasUpdateAvailable indicates the node has flagged itself as having an
// update ready to apply.
func (i *Intent) HasUpdateAvailable() bool {
	return i.UpdateAvailable == marker.NodeUpdateAvailable
}

// SetBeginUpdate returns a copy of the Intent that starts the update
// progression.
func (i *Intent) SetBeginUpdate() *Intent {
	u := i.Clone()
	u.Wanted = marker.NodeActionPrepareUpdate
	return u
}

// SetUpdateAvailable records the provided availability on the Intent.
func (i *Intent) SetUpdateAvailable(available bool) *Intent {
	if available {
		i.UpdateAvailable = marker.NodeUpdateAvailable
	} else {
		i.UpdateAvailable = marker.NodeUpdateUnavailable
	}
	return i
}

// Actionable indicates that the intent is in need of progress being made.
func (i *Intent) Actionable() bool {
	needsAction := (i.Waiting() || i.Realized()) && !i.Terminal()
	return needsAction && !i.Stuck() && !i.InProgress()
}

// Projected returns the n+1 step projection of a would-be Intent. It does
// not check whether the next step is appropriate given current progress (it
// will not error if the node hasn't actually completed its step).
func (i *Intent) Projected() *Intent {
	p := i.Clone()
	if p.inUnknownState() {
		p.reset()
	}
	p.Wanted, _ = Next(p.Wanted)
	return p
}

// projectActive projects from the Active action, anticipating what a node
// that completed its acknowledged step would be told next.
func (i *Intent) projectActive() *Intent {
	prior := i.Clone()
	prior.Wanted = i.Active
	return prior.Projected()
}

func (i *Intent) inUnknownState() bool {
	return i.State == "" || i.State == marker.NodeStateUnknown
}

// Terminal indicates that the intent reached a point in the progression
// from which no progress can be made without outside action.
func (i *Intent) Terminal() bool {
	next, err := Next(i.Wanted)
	if err != nil {
		return false
	}
	// The next turn of the state machine is the same as the realized Wanted
	// and Active states, so a terminal point was reached.
	return next == i.Wanted && i.Wanted == i.Active
}

// Reset returns a copy of the intent repositioned at the start of the
// progression, from where it may resolve issues and fall into a valid
// state.
func (i *Intent) Reset() *Intent {
	p := i.Clone()
	p.reset()
	return p.Projected()
}

// reset reverts the Intent to its origin point from which an Intent is able
// to be driven to a terminal point.
func (i *Intent) reset() {
	i.Wanted = marker.NodeActionUnknown
	i.Active = marker.NodeActionUnknown
	i.State = marker.NodeStateUnknown
	i.UpdateAvailable = marker.NodeUpdateUnknown
}

func (i *Intent) DisplayString() string {
	if i == nil {
		return ",,"
	}
	return fmt.Sprintf("%s,%s,%s", i.Wanted, i.Active, i.State)
}

// Clone returns a copy of the Intent to mutate independently of the source
// instance.
func (i Intent) Clone() *Intent {
	return Given(&i)
}

// Equivalent compares intentional state to determine equivalency.
func Equivalent(i, j *Intent) bool {
	if i == nil || j == nil {
		return i == j
	}
	return i.Wanted == j.Wanted &&
		i.Active == j.Active &&
		i.State == j.State
}

// Given decodes the communicated intent from a node without projecting it
// into its next steps. Unrecognized or missing marker values pass through as
// their raw (possibly empty) strings and resolve through the unknown
// handling paths; decoding never fails.
func Given(input Input) *Intent {
	annos := input.GetAnnotations()

	return &Intent{
		NodeName:        input.GetName(),
		Active:          annos[marker.NodeStateKey],
		Wanted:          annos[marker.DesiredStateKey],
		State:           annos[marker.NodeStatusKey],
		UpdateAvailable: annos[marker.UpdateAvailableKey],
	}
}

// Input is a suitable container of data for interpreting an Intent from.
// This effectively is a subset of the kubernetes v1.Node accessors, scoped
// to those used.
type Input interface {
	marker.Container
	// GetName returns the Input's addressable name.
	GetName() string
}
