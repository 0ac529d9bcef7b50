package marker

type Key = string

const (
	// Prefix is the common base for shepherd's node markers.
	Prefix = "shepherd.basalt.dev"

	// NodeSelectorLabel identifies managed nodes in Kubernetes selectors.
	NodeSelectorLabel = PlatformVersionKey

	// UpdateAvailableKey flags a Node as having an update available. The
	// value is a tri-state string, see NodeUpdate.
	UpdateAvailableKey Key = Prefix + "/update-available"
	// PlatformVersionKey carries the host platform compatibility version for
	// the Node. It is posted as both a label (for selection) and an
	// annotation.
	PlatformVersionKey Key = Prefix + "/platform-version"
	// OperatorVersionKey carries the compatibility version of the
	// controller/agent protocol understood by the Node.
	OperatorVersionKey Key = Prefix + "/operator-version"
	// DesiredStateKey is written by the controller to instruct the Node's
	// next action.
	DesiredStateKey Key = Prefix + "/desired-state"
	// NodeStateKey is written by the agent to acknowledge the action it is
	// acting, or has acted, upon.
	NodeStateKey Key = Prefix + "/node-state"
	// NodeStatusKey is written by the agent to report the run status of the
	// acknowledged action.
	NodeStatusKey Key = Prefix + "/node-status"
	// ChaoticLabel is set by operators to exclude a Node from normal
	// selection, for opt-out and chaos testing. Nodes carrying the label are
	// never streamed to either role.
	ChaoticLabel Key = Prefix + "/chaotic"
)
