package marker

// NodeAction is one step in the fixed update progression permitted to be
// taken on a Node by its agent.
type NodeAction = string

const (
	NodeActionUnknown       NodeAction = "unknown"
	NodeActionStabilize     NodeAction = "stabilize"
	NodeActionReset         NodeAction = "reset-state"
	NodeActionPrepareUpdate NodeAction = "prepare-update"
	NodeActionPerformUpdate NodeAction = "perform-update"
	NodeActionRebootUpdate  NodeAction = "reboot-update"
)

// NodeState is the run status of attempting the acknowledged action, as
// reported by the Node's agent.
type NodeState = string

const (
	NodeStateUnknown NodeState = "unknown"
	NodeStateBusy    NodeState = "busy"
	NodeStateReady   NodeState = "ready"
	NodeStateError   NodeState = "error"
)

// NodeUpdate is the tri-state availability of an update for a Node.
type NodeUpdate = string

const (
	NodeUpdateAvailable   NodeUpdate = "true"
	NodeUpdateUnavailable NodeUpdate = "false"
	NodeUpdateUnknown     NodeUpdate = "unknown"
)

// OperatorVersion describes compatibility versioning of the protocol spoken
// between the controller and the node agents.
type OperatorVersion = string

const (
	// OperatorVersionUnknown is incompatible with all versions, it should
	// normally be unused.
	OperatorVersionUnknown OperatorVersion = "0.0.0-unknown"

	OperatorV1Alpha OperatorVersion = "1.0.0-alpha"
)

// OperatorBuildVersion is the protocol version of this build.
var OperatorBuildVersion = OperatorV1Alpha

// PlatformVersion describes compatibility versioning at the host platform
// level (the quarry integration).
//
// Note: the values placed on resources are plain strings, not an internal
// enum type.
type PlatformVersion = string

const (
	// PlatformVersionUnknown is incompatible with all versions, it should
	// normally be unused.
	PlatformVersionUnknown PlatformVersion = "0.0.0"

	// PlatformV1Alpha is the initial quarry integration with a
	// to-be-stabilized interface.
	PlatformV1Alpha PlatformVersion = "1.0.0-alpha"
)

// PlatformVersionBuild is the platform compatibility version of this build.
var PlatformVersionBuild = PlatformV1Alpha
