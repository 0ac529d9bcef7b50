package k8sutil

import (
	"github.com/basalt-os/shepherd/pkg/logging"
	"github.com/basalt-os/shepherd/pkg/marker"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	v1meta "k8s.io/apimachinery/pkg/apis/meta/v1"
	v1 "k8s.io/client-go/kubernetes/typed/core/v1"
)

// PostMetadata merges the container's markers onto the named Node and
// updates it. Writers race optimistically; the merge preserves unrelated
// keys so concurrent writers to different marker subsets are safe, and the
// next resync re-converges same-key races.
func PostMetadata(log logging.Logger, nc v1.NodeInterface, nodeName string, cont marker.Container) error {
	node, err := nc.Get(nodeName, v1meta.GetOptions{})
	if err != nil {
		return errors.WithMessage(err, "unable to get node")
	}
	marker.OverwriteFrom(cont, node)
	if logging.Debuggable && log != nil {
		log.WithFields(logrus.Fields{
			"node":        nodeName,
			"annotations": node.GetAnnotations(),
			"labels":      node.GetLabels(),
		}).Debug("merged in new metadata")
	}
	_, err = nc.Update(node)
	if err != nil {
		return errors.WithMessage(err, "unable to update node")
	}
	return nil
}
