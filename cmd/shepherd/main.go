package main

import (
	"fmt"
	"os"
	"time"

	"github.com/basalt-os/shepherd/pkg/logging"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

var (
	flagLogLevel string
	flagDebug    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "shepherd",
	Short: "Shepherd - coordinated Basalt OS updates for Kubernetes clusters",
	Long: `Shepherd coordinates Basalt OS updates across the nodes of a
Kubernetes cluster. The controller schedules update progress cluster-wide
while an agent on each Basalt node carries the steps out against the host.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Shepherd version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "logging level")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "shorthand for --log-level=debug")

	rootCmd.AddCommand(controllerCmd)
	rootCmd.AddCommand(agentCmd)
}

// newLoggerFactory builds the process's logger factory from the persistent
// flags.
func newLoggerFactory() *logging.Factory {
	level := flagLogLevel
	if flagDebug {
		level = "debug"
	}
	return logging.NewFactory(logging.WithLevel(level))
}

// warnDebuggable calls out "debuggable" builds, which produce extensive
// low-level output beyond what --debug enables and need a distinct build to
// turn off.
func warnDebuggable(log logging.Logger) {
	if !logging.Debuggable {
		return
	}
	log.Info("low-level debuggable logging is enabled in this build")
	log.Warn("debuggable builds produce large volumes of logs")
	delay := 3 * time.Second
	log.WithField("delay", delay).Warn("delaying start of debuggable build")
	time.Sleep(delay)
}
