package controller

import (
	"context"

	"github.com/basalt-os/shepherd/pkg/logging"
	"github.com/basalt-os/shepherd/pkg/nodestream"
	"github.com/basalt-os/shepherd/pkg/workgroup"
	"k8s.io/client-go/kubernetes"
)

// Controller coordinates Basalt update progress across the nodes of a
// cluster, each running the Shepherd agent.
type Controller struct {
	log     logging.Logger
	kube    kubernetes.Interface
	manager *actionManager
}

// New creates a Controller using the provided Kubernetes client.
func New(log logging.Logger, kube kubernetes.Interface) (*Controller, error) {
	return &Controller{
		log:     log,
		kube:    kube,
		manager: newManager(log.WithField("worker", "manager"), kube),
	}, nil
}

// Run executes the event loop for the Controller until signaled to exit.
func (c *Controller) Run(ctx context.Context) error {
	worker, cancel := context.WithCancel(ctx)
	defer cancel()

	c.log.Debug("starting workers")

	group := workgroup.WithContext(worker)

	// The nodestream scopes resource events to the Nodes we should care
	// about, those labeled with markers.
	ns := nodestream.New(c.log.WithField("worker", "informer"), c.kube, nodestream.Config{}, c.manager)
	// Couple the informer's reflector in the manager for accessing the
	// cached cluster state.
	c.manager.SetStoreProvider(ns.GetInformer())

	group.Work(ns.Run)
	group.Work(c.manager.Run)

	c.log.Debug("running control loop")
	<-ctx.Done()
	c.log.Info("signaled to stop")
	return group.Wait()
}
