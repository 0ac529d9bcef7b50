package nodestream

import (
	"time"

	"github.com/basalt-os/shepherd/pkg/marker"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// defaultResyncPeriod forces periodic full re-delivery even without
	// changes, so a role that missed an event still reconciles eventually.
	defaultResyncPeriod = time.Minute * 10
)

type Config struct {
	// NodeName limits the nodestream to a single Node resource with the
	// provided name.
	NodeName string
	// ResyncPeriod is the time between complete resynchronizations of the
	// cached resource data.
	ResyncPeriod time.Duration
	// PlatformVersion, when specified, limits the nodestream to Nodes
	// labeled with the provided PlatformVersion.
	PlatformVersion marker.PlatformVersion
	// OperatorVersion, when specified, limits the nodestream to Nodes
	// labeled with the provided OperatorVersion.
	OperatorVersion marker.OperatorVersion
	// LabelSelectorExtra is a free-form selector appended to the calculated
	// label selector.
	LabelSelectorExtra string
	// FieldSelectorExtra is a free-form selector appended to the calculated
	// field selector.
	FieldSelectorExtra string
}

func (c *Config) selector() func(options *metav1.ListOptions) {
	var (
		fieldSelector string
		labelSelector string
	)
	if c.NodeName != "" {
		// Limit the streamed updates to the specified node.
		fieldSelector = "metadata.name=" + c.NodeName
	}

	// Managed nodes carry the platform version label; nodes opting out with
	// the chaotic label are never selected.
	labelSelector = marker.NodeSelectorLabel
	if c.PlatformVersion != "" {
		labelSelector += "=" + c.PlatformVersion
	}
	labelSelector += ",!" + marker.ChaoticLabel

	if c.OperatorVersion != "" {
		labelSelector += "," + marker.OperatorVersionKey + "=" + c.OperatorVersion
	}

	if c.LabelSelectorExtra != "" {
		labelSelector += "," + c.LabelSelectorExtra
	}

	if c.FieldSelectorExtra != "" {
		if fieldSelector != "" {
			fieldSelector += ","
		}
		fieldSelector += c.FieldSelectorExtra
	}

	return func(options *metav1.ListOptions) {
		options.LabelSelector = labelSelector
		options.FieldSelector = fieldSelector
	}
}

func (c *Config) resyncPeriod() time.Duration {
	if c.ResyncPeriod == 0 {
		return defaultResyncPeriod
	}
	return c.ResyncPeriod
}
