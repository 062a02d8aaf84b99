package rules

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sipeed/alfred/cmd/alfred/internal"
	"github.com/sipeed/alfred/pkg/rules"
)

func NewRulesCommand() *cobra.Command {
	var store *rules.Store

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage learned and authored rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg := internal.LoadConfig()
			store = rules.NewStore(cfg.RulesPath())
			if err := store.Load(); err != nil && !errors.Is(err, rules.ErrCorrupt) {
				return fmt.Errorf("error loading rules: %w", err)
			}
			return nil
		},
	}

	get := func() *rules.Store { return store }
	cmd.AddCommand(
		newListCommand(get),
		newDeleteCommand(get),
		newEditCommand(get),
		newAdjustCommand(get, rules.AdjustIncrease),
		newAdjustCommand(get, rules.AdjustDecrease),
	)

	return cmd
}
