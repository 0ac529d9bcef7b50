// Package agent communicates bidirectionally with the host platform -
// Basalt, by way of quarry - and its managing controller to execute update
// operations in a coordinated manner. The agent is responsible for
// publishing its update state and host state, and for executing permitted
// actions as instructed by the controller.
//
// The agent is intentionally simplistic: it makes no decision about its next
// steps short of interpreting what's communicated through the agreed upon
// state transition markers.
package agent
