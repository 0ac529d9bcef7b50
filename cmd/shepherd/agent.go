package main

import (
	"context"
	"os"
	"syscall"

	"github.com/basalt-os/shepherd/pkg/agent"
	"github.com/basalt-os/shepherd/pkg/k8sutil"
	"github.com/basalt-os/shepherd/pkg/platform/quarry"
	"github.com/basalt-os/shepherd/pkg/sigcontext"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var flagNodeName string

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run the on-host update agent",
	Long: `Run the agent component on a Basalt node. The agent carries out
the update steps the controller schedules for its node, driving the host's
update client and reporting progress back through the node's markers.`,
	RunE: runAgent,
}

func init() {
	agentCmd.Flags().StringVar(&flagNodeName, "node-name", "",
		"name of the Node this agent runs on (defaults to $NODE_NAME)")
}

func runAgent(cmd *cobra.Command, args []string) error {
	logs := newLoggerFactory()
	log := logs.Component("agent")
	warnDebuggable(log)

	nodeName := flagNodeName
	if nodeName == "" {
		// The deployment passes the node's name through the downward API.
		nodeName = os.Getenv("NODE_NAME")
	}
	if nodeName == "" {
		return errors.New("node name must be provided with --node-name or $NODE_NAME")
	}

	kube, err := k8sutil.DefaultKubernetesClient()
	if err != nil {
		return errors.WithMessage(err, "kubernetes client")
	}

	ctx, cancel := sigcontext.WithSignalCancel(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	plat, err := quarry.New(logs.Component("platform"))
	if err != nil {
		return errors.WithMessage(err, "could not setup platform for agent")
	}

	a, err := agent.New(log, kube, plat, nodeName)
	if err != nil {
		return errors.WithMessage(err, "initialization error")
	}
	log.WithField("node", nodeName).Info("running agent")
	return errors.WithMessage(a.Run(ctx), "run error")
}
