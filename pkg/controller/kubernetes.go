package controller

import (
	"github.com/basalt-os/shepherd/pkg/intent"
	"github.com/basalt-os/shepherd/pkg/k8sutil"
	"github.com/basalt-os/shepherd/pkg/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	v1 "k8s.io/api/core/v1"
	v1meta "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	corev1 "k8s.io/client-go/kubernetes/typed/core/v1"
	"k8s.io/kubectl/pkg/drain"
)

// k8sNodeManager drives workload handling through the same helpers kubectl
// uses for cordon and drain.
type k8sNodeManager struct {
	log  logging.Logger
	kube kubernetes.Interface
}

func (k *k8sNodeManager) forNode(nodeName string) (*v1.Node, error) {
	node, err := k.kube.CoreV1().Nodes().Get(nodeName, v1meta.GetOptions{})
	if err != nil {
		return nil, errors.WithMessage(err, "unable to retrieve node from api")
	}
	return node, nil
}

func (k *k8sNodeManager) setCordon(nodeName string, cordoned bool) error {
	log := k.log.WithFields(logrus.Fields{"node": nodeName, "cordoned": cordoned})
	node, err := k.forNode(nodeName)
	if err != nil {
		return err
	}
	helper := drain.NewCordonHelper(node)
	if !helper.UpdateIfRequired(cordoned) {
		log.Debug("node already in requested scheduling state")
		return nil
	}
	err, patchErr := helper.PatchOrReplace(k.kube)
	if patchErr != nil {
		return errors.WithMessage(patchErr, "unable to generate patch for node")
	}
	if err != nil {
		return errors.WithMessage(err, "unable to submit node patch")
	}
	log.Debug("updated node scheduling state")
	return nil
}

func (k *k8sNodeManager) Cordon(nodeName string) error {
	return k.setCordon(nodeName, true)
}

func (k *k8sNodeManager) Uncordon(nodeName string) error {
	return k.setCordon(nodeName, false)
}

func (k *k8sNodeManager) Drain(nodeName string) error {
	log := k.log.WithField("node", nodeName)
	log.Debug("draining workload")
	helper := drain.Helper{
		Client:              k.kube,
		Out:                 k.log.WriterLevel(logrus.InfoLevel),
		ErrOut:              k.log.WriterLevel(logrus.ErrorLevel),
		IgnoreAllDaemonSets: true,
	}
	pods, errs := helper.GetPodsForDeletion(nodeName)
	if len(errs) != 0 {
		for _, e := range errs {
			log.Error(e)
		}
		return errors.New("errors encountered while listing pods for deletion")
	}
	npods := len(pods.Pods())
	if npods == 0 {
		log.Debug("no workload present")
		return nil
	}
	log.Debugf("%d pods present, removing workload", npods)
	if err := helper.DeleteOrEvictPods(pods.Pods()); err != nil {
		return errors.WithMessage(err, "unable to evict workload")
	}
	log.Debug("workload drained successfully")
	return nil
}

// CheckReady verifies that the named node reports itself Ready, used after an
// update round before returning workload to the node.
func (k *k8sNodeManager) CheckReady(nodeName string) error {
	node, err := k.forNode(nodeName)
	if err != nil {
		return err
	}
	for _, cond := range node.Status.Conditions {
		if cond.Type != v1.NodeReady {
			continue
		}
		if cond.Status == v1.ConditionTrue {
			return nil
		}
		return errors.Errorf("node condition %q is %q: %s", cond.Type, cond.Status, cond.Message)
	}
	return errors.Errorf("node has no %q condition reported", v1.NodeReady)
}

type k8sPoster struct {
	log        logging.Logger
	nodeclient corev1.NodeInterface
}

func (k *k8sPoster) Post(i *intent.Intent) error {
	nodeName := i.GetName()
	err := k8sutil.PostMetadata(k.log, k.nodeclient, nodeName, i)
	if err != nil {
		return err
	}
	k.log.WithFields(logrus.Fields{
		"node":   nodeName,
		"intent": i.DisplayString(),
	}).Debug("posted intent")
	return nil
}
