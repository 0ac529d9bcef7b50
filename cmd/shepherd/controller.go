package main

import (
	"context"
	"syscall"

	"github.com/basalt-os/shepherd/pkg/controller"
	"github.com/basalt-os/shepherd/pkg/k8sutil"
	"github.com/basalt-os/shepherd/pkg/sigcontext"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var controllerCmd = &cobra.Command{
	Use:   "controller",
	Short: "Run the cluster-wide update coordinator",
	Long: `Run the controller component. One controller (or a leader among
replicas) watches the labeled Basalt nodes of the cluster and schedules
their update progress according to policy.`,
	RunE: runController,
}

func runController(cmd *cobra.Command, args []string) error {
	logs := newLoggerFactory()
	log := logs.Component("controller")
	warnDebuggable(log)

	kube, err := k8sutil.DefaultKubernetesClient()
	if err != nil {
		return errors.WithMessage(err, "kubernetes client")
	}

	ctx, cancel := sigcontext.WithSignalCancel(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c, err := controller.New(log, kube)
	if err != nil {
		return errors.WithMessage(err, "initialization error")
	}
	log.Info("running controller")
	return errors.WithMessage(c.Run(ctx), "run error")
}
