package status

import (
	"github.com/spf13/cobra"
)

func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"s"},
		Short:   "Show alfred status",
		Run: func(cmd *cobra.Command, _ []string) {
			statusCmd(cmd.OutOrStdout())
		},
	}

	return cmd
}
