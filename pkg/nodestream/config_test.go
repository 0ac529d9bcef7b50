package nodestream

import (
	"strings"
	"testing"
	"time"

	"github.com/basalt-os/shepherd/pkg/marker"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"gotest.tools/assert"
)

func applySelector(c *Config) metav1.ListOptions {
	var opts metav1.ListOptions
	c.selector()(&opts)
	return opts
}

func TestSelectorDefault(t *testing.T) {
	opts := applySelector(&Config{})

	assert.Assert(t, strings.Contains(opts.LabelSelector, marker.NodeSelectorLabel))
	assert.Assert(t, strings.Contains(opts.LabelSelector, "!"+marker.ChaoticLabel),
		"chaotic nodes must be excluded from selection")
	assert.Equal(t, opts.FieldSelector, "")
}

func TestSelectorNodeName(t *testing.T) {
	opts := applySelector(&Config{NodeName: "worker-0"})
	assert.Equal(t, opts.FieldSelector, "metadata.name=worker-0")
}

func TestSelectorVersions(t *testing.T) {
	opts := applySelector(&Config{
		PlatformVersion: marker.PlatformV1Alpha,
		OperatorVersion: marker.OperatorV1Alpha,
	})
	assert.Assert(t, strings.Contains(opts.LabelSelector,
		marker.PlatformVersionKey+"="+marker.PlatformV1Alpha))
	assert.Assert(t, strings.Contains(opts.LabelSelector,
		marker.OperatorVersionKey+"="+marker.OperatorV1Alpha))
}

func TestSelectorExtras(t *testing.T) {
	opts := applySelector(&Config{
		NodeName:           "worker-0",
		LabelSelectorExtra: "zone=us-west-2a",
		FieldSelectorExtra: "spec.unschedulable=false",
	})
	assert.Assert(t, strings.HasSuffix(opts.LabelSelector, ",zone=us-west-2a"))
	assert.Equal(t, opts.FieldSelector, "metadata.name=worker-0,spec.unschedulable=false")
}

func TestResyncPeriodDefault(t *testing.T) {
	c := &Config{}
	assert.Equal(t, c.resyncPeriod(), defaultResyncPeriod)

	c.ResyncPeriod = time.Minute
	assert.Equal(t, c.resyncPeriod(), time.Minute)
}
