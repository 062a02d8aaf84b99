// alfred - a butler that turns plain instructions into script invocations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sipeed/alfred/cmd/alfred/internal"
	"github.com/sipeed/alfred/cmd/alfred/internal/agent"
	"github.com/sipeed/alfred/cmd/alfred/internal/history"
	"github.com/sipeed/alfred/cmd/alfred/internal/rules"
	"github.com/sipeed/alfred/cmd/alfred/internal/run"
	"github.com/sipeed/alfred/cmd/alfred/internal/status"
	"github.com/sipeed/alfred/cmd/alfred/internal/version"
)

func NewAlfredCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "alfred",
		Short:         fmt.Sprintf("%s alfred - turns instructions into orders and runs them", internal.Logo),
		Version:       internal.FormatVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			internal.SetConfigPath(configPath)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.json (default $ALFRED_HOME/config.json)")

	cmd.AddCommand(
		agent.NewAgentCommand(),
		rules.NewRulesCommand(),
		run.NewRunCommand(),
		history.NewHistoryCommand(),
		status.NewStatusCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	// rules has its own PersistentPreRunE; the root hook must still apply --config.
	cobra.EnableTraverseRunHooks = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewAlfredCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
