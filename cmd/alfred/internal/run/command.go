package run

import (
	"github.com/spf13/cobra"
)

func NewRunCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run [json]",
		Short: "Dispatch an order payload directly",
		Long: `Dispatch one order or an {"orders": [...]} batch without resolving text.
The payload is read from standard input when no argument is given. The
exit status is non-zero unless every order succeeded. With --dry-run the
normalized payload is printed and nothing is run.`,
		Example: `alfred run '{"domain":"spotify","command":"play","args":{"song":"So What"}}'`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := ""
			if len(args) == 1 {
				payload = args[0]
			}
			return runCmd(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), payload, dryRun)
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print the normalized orders without running them")

	return cmd
}
