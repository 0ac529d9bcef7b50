package controller

import (
	"fmt"
	"testing"

	"github.com/basalt-os/shepherd/pkg/intent"
	"github.com/basalt-os/shepherd/pkg/internal/intents"
	"github.com/basalt-os/shepherd/pkg/internal/testlog"
	"github.com/basalt-os/shepherd/pkg/marker"

	"gotest.tools/assert"
	v1 "k8s.io/api/core/v1"
	v1meta "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/tools/cache"
)

func TestPolicyCheck(t *testing.T) {
	cases := []struct {
		Name         string
		PolicyCheck  *PolicyCheck
		ShouldPermit bool
		ShouldError  bool
	}{
		// should not update when threshold would be exceeded
		{
			Name:         "update-available-maxactive",
			ShouldPermit: false,
			PolicyCheck: &PolicyCheck{
				Intent:        intents.Stabilized(intents.WithUpdateAvailable(marker.NodeUpdateUnavailable)),
				ClusterActive: maxClusterActive,
				ClusterCount:  maxClusterActive + 1,
			},
		},
		// stabilize should always be permitted
		{
			Name:         "stabilize-new-maxactive",
			ShouldPermit: true,
			PolicyCheck: &PolicyCheck{
				Intent:        intents.PendingStabilizing(),
				ClusterActive: maxClusterActive,
				ClusterCount:  maxClusterActive + 1,
			},
		},
		{
			Name:         "stabilize-new-quiet",
			ShouldPermit: true,
			PolicyCheck: &PolicyCheck{
				Intent:        intents.PendingStabilizing(),
				ClusterActive: 0,
				ClusterCount:  maxClusterActive + 1,
			},
		},
		{
			Name:         "perform-maxactive",
			ShouldPermit: false,
			PolicyCheck: &PolicyCheck{
				Intent:        intents.PendingPrepareUpdate(),
				ClusterActive: maxClusterActive,
				ClusterCount:  maxClusterActive + 1,
			},
		},
		// success handling occupies its own active slot and must be let
		// through to wind down
		{
			Name:         "updated",
			ShouldPermit: true,
			PolicyCheck: &PolicyCheck{
				Intent:        intents.UpdateSuccess(),
				ClusterActive: maxClusterActive,
				ClusterCount:  maxClusterActive + 1,
			},
		},
		// exclusive architectures do not mix with active nodes of others
		{
			Name:         "arch-exclusive-conflict",
			ShouldPermit: false,
			PolicyCheck: &PolicyCheck{
				Intent:              intents.Stabilized(intents.WithUpdateAvailable(marker.NodeUpdateAvailable)),
				ClusterActive:       1,
				ClusterCount:        4,
				Architecture:        "arm64",
				ActiveArchitectures: map[string]int{"amd64": 1},
			},
		},
		{
			Name:         "arch-exclusive-conflict-reversed",
			ShouldPermit: false,
			PolicyCheck: &PolicyCheck{
				Intent:              intents.Stabilized(intents.WithUpdateAvailable(marker.NodeUpdateAvailable)),
				ClusterActive:       1,
				ClusterCount:        4,
				Architecture:        "amd64",
				ActiveArchitectures: map[string]int{"arm64": 1},
			},
		},
		// same-architecture activity falls through to the active threshold
		{
			Name:         "arch-same-under-threshold",
			ShouldPermit: true,
			PolicyCheck: &PolicyCheck{
				Intent:              intents.Stabilized(intents.WithUpdateAvailable(marker.NodeUpdateAvailable)),
				ClusterActive:       maxClusterActive - 1,
				ClusterCount:        4,
				Architecture:        "arm64",
				ActiveArchitectures: map[string]int{"arm64": maxClusterActive - 1},
			},
		},
		// non-exclusive architectures may mix, subject to the threshold
		{
			Name:         "arch-mixed-nonexclusive",
			ShouldPermit: false,
			PolicyCheck: &PolicyCheck{
				Intent:              intents.Stabilized(intents.WithUpdateAvailable(marker.NodeUpdateAvailable)),
				ClusterActive:       maxClusterActive,
				ClusterCount:        4,
				Architecture:        "amd64",
				ActiveArchitectures: map[string]int{"amd64": maxClusterActive},
			},
		},
	}

	for _, tc := range cases {
		check := tc.PolicyCheck
		t.Run(fmt.Sprintf("%s(%s) %d/%d", tc.Name, check.Intent.DisplayString(), check.ClusterActive, check.ClusterCount),
			func(t *testing.T) {
				policy := defaultPolicy{
					log: testlog.Logger(t, "policy-check"),
				}

				permit, err := policy.Check(check)
				assert.Equal(t, tc.ShouldPermit, permit)
				if tc.ShouldError {
					assert.Error(t, err, "")
				} else {
					assert.NilError(t, err)
				}
			})
	}
}

func TestIsClusterActiveIntents(t *testing.T) {
	cases := []struct {
		Intent   *intent.Intent
		Expected bool
	}{
		// Nodes beginning updates are actively working towards a goal,
		// they're active and should be counted.
		{Intent: intents.PendingPrepareUpdate(), Expected: true},
		{Intent: intents.Stabilized().SetBeginUpdate(), Expected: true},
		// Update success is yet to be handled, so it occupies a slot in the
		// active count.
		{Intent: intents.UpdateSuccess(), Expected: true},
		// Errors should prevent others from making progress and occupy a
		// slot in the active count.
		{Intent: intents.UpdateError(), Expected: true},
		// Resets and stabilization are normative, non-intrusive operations
		// and shouldn't add to the active count.
		{Intent: intents.PendingStabilizing(), Expected: false},
		{Intent: intents.Reset(), Expected: false},
	}

	for _, tc := range cases {
		t.Run(tc.Intent.DisplayString(), func(t *testing.T) {
			actual := isClusterActive(tc.Intent)
			assert.Equal(t, tc.Expected, actual)
		})
	}
}

func testNode(name, arch string, markers map[string]string) *v1.Node {
	labels := map[string]string{"kubernetes.io/arch": arch}
	return &v1.Node{
		ObjectMeta: v1meta.ObjectMeta{
			Name:        name,
			Labels:      labels,
			Annotations: markers,
		},
	}
}

func intentMarkers(in *intent.Intent) map[string]string {
	return in.GetAnnotations()
}

func TestNewPolicyCheck(t *testing.T) {
	store := cache.NewStore(cache.MetaNamespaceKeyFunc)

	candidate := intents.Stabilized(
		intents.WithUpdateAvailable(marker.NodeUpdateAvailable),
		intents.WithNodeName("node-a"))

	assert.NilError(t, store.Add(testNode("node-a", "amd64", intentMarkers(candidate))))
	assert.NilError(t, store.Add(testNode("node-b", "arm64",
		intentMarkers(intents.PendingPrepareUpdate(intents.WithNodeName("node-b"))))))
	assert.NilError(t, store.Add(testNode("node-c", "amd64",
		intentMarkers(intents.Stabilized(intents.WithNodeName("node-c"))))))

	check, err := newPolicyCheck(candidate, store)
	assert.NilError(t, err)

	assert.Equal(t, check.ClusterCount, 3)
	assert.Equal(t, check.ClusterActive, 1)
	assert.Equal(t, check.Architecture, "amd64")
	assert.Equal(t, check.ActiveArchitectures["arm64"], 1)
}

func TestNewPolicyCheckEmptyStore(t *testing.T) {
	store := cache.NewStore(cache.MetaNamespaceKeyFunc)
	check, err := newPolicyCheck(intents.Stabilized(), store)
	assert.Check(t, check == nil)
	assert.Check(t, err != nil)
}
