// Package controller manages the state transitions of the fleet's node
// agents, which themselves integrate with the Basalt platform. The
// controller takes cluster state into account and manages nodes at arm's
// length by encoding agreed upon state transitions into labels and
// annotations stored on each Node resource.
//
// Currently, this controller is capable of:
//
// - coordinating host updates such that a bounded number of nodes performs
//   an update simultaneously
//
// - keeping architectures marked exclusive from updating concurrently with
//   the rest of the fleet
//
// The controller IS NOT capable of (yet!):
//
// - ensuring that workloads are sufficiently replicated or distributed to
//   avoid service outages
//
// - executing transitions during a set maintenance period or with a bake
//   time
package controller
