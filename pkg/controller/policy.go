package controller

import (
	"github.com/basalt-os/shepherd/pkg/intent"
	"github.com/basalt-os/shepherd/pkg/logging"
	"github.com/basalt-os/shepherd/pkg/marker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	v1 "k8s.io/api/core/v1"
	"k8s.io/client-go/tools/cache"
)

const (
	// maxClusterActive bounds how many nodes may make update progress at
	// once. Wave sizing beyond this fixed bound belongs to the update
	// client, not this reconciler.
	maxClusterActive = 1
)

// exclusiveArchitectures never update concurrently with nodes of any other
// architecture, bounding the blast radius of an update that turns out to be
// bad for one architecture.
var exclusiveArchitectures = map[string]bool{
	"arm64": true,
}

// Policy admits or defers intended actions. The transition table is pure;
// every fleet-level gate lives behind this interface.
type Policy interface {
	// Check determines if the policy permits continuing with an intended
	// action.
	Check(*PolicyCheck) (bool, error)
}

// PolicyCheck is a point-in-time view of the cluster assembled for a single
// intended action.
type PolicyCheck struct {
	Intent        *intent.Intent
	ClusterActive int
	ClusterCount  int
	// Architecture is the candidate node's architecture.
	Architecture string
	// ActiveArchitectures counts active nodes by architecture.
	ActiveArchitectures map[string]int
}

func newPolicyCheck(in *intent.Intent, resources cache.Store) (*PolicyCheck, error) {
	ress := resources.List()
	clusterCount := len(ress)
	clusterActive := 0
	activeArchitectures := map[string]int{}
	candidateArchitecture := ""

	for _, res := range ress {
		node, ok := res.(*v1.Node)
		if !ok {
			clusterCount--
			continue
		}
		arch := nodeArchitecture(node)
		if node.GetName() == in.GetName() {
			candidateArchitecture = arch
		}
		cin := intent.Given(node)
		if isClusterActive(cin) {
			clusterActive++
			activeArchitectures[arch]++
		}
	}

	if clusterCount <= 0 {
		return nil, errors.Errorf("%d resources listed of inappropriate type", len(ress))
	}

	return &PolicyCheck{
		Intent:              in,
		ClusterActive:       clusterActive,
		ClusterCount:        clusterCount,
		Architecture:        candidateArchitecture,
		ActiveArchitectures: activeArchitectures,
	}, nil
}

// nodeArchitecture resolves a node's architecture from its well-known
// labels, falling back to the kubelet-reported node info.
func nodeArchitecture(node *v1.Node) string {
	labels := node.GetLabels()
	if arch, ok := labels["kubernetes.io/arch"]; ok {
		return arch
	}
	if arch, ok := labels["beta.kubernetes.io/arch"]; ok {
		return arch
	}
	return node.Status.NodeInfo.Architecture
}

// isClusterActive matches intents that the cluster shouldn't run
// concurrently.
func isClusterActive(i *intent.Intent) bool {
	stabilizing := i.Wanted == marker.NodeActionStabilize
	return !stabilizing && !i.Stuck()
}

type defaultPolicy struct {
	log logging.Logger
}

func (p *defaultPolicy) Check(ck *PolicyCheck) (bool, error) {
	// Policy checks are applied to intended actions, Intents that are next
	// in line to be executed. Projections are made without considering the
	// policy at projection time, so the startup of the update process has
	// to be checked here.
	startingUpdate := ck.Intent.Active == marker.NodeActionStabilize

	// If already active, continue to handle it.
	if ck.Intent.InProgress() && !startingUpdate {
		p.trace(ck, "permit already in progress")
		return true, nil
	}

	// A completed update occupies an active slot itself until its success
	// handling runs, so the threshold must not gate its own wind-down.
	if successfulUpdate(ck.Intent) {
		p.trace(ck, "permit successful update handling")
		return true, nil
	}

	// Exclusive architectures never run an update round alongside other
	// architectures, in either direction.
	if p.architectureConflict(ck) {
		p.trace(ck, "deny on architecture exclusivity")
		return false, nil
	}

	// Permit when the fleet has headroom for another active node.
	if ck.ClusterActive < maxClusterActive {
		p.trace(ck, "permit according to active threshold")
		return true, nil
	}

	return false, nil
}

func (p *defaultPolicy) architectureConflict(ck *PolicyCheck) bool {
	for arch, count := range ck.ActiveArchitectures {
		if count == 0 || arch == ck.Architecture {
			continue
		}
		if exclusiveArchitectures[arch] || exclusiveArchitectures[ck.Architecture] {
			return true
		}
	}
	return false
}

func (p *defaultPolicy) trace(ck *PolicyCheck, msg string) {
	if !logging.Debuggable || p.log == nil {
		return
	}
	p.log.WithFields(logrus.Fields{
		"node":           ck.Intent.GetName(),
		"intent":         ck.Intent.DisplayString(),
		"cluster-active": ck.ClusterActive,
		"allowed-active": maxClusterActive,
		"architecture":   ck.Architecture,
	}).Debug(msg)
}
