package rules

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sipeed/alfred/pkg/rules"
)

func newDeleteCommand(store func() *rules.Store) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rulesDeleteCmd(cmd.OutOrStdout(), store(), args[0])
		},
	}
}

func rulesDeleteCmd(out io.Writer, store *rules.Store, id string) error {
	key, err := store.Delete(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Deleted rule %s from %s\n", id, key)
	return nil
}
