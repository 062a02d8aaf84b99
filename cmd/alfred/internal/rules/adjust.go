package rules

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sipeed/alfred/pkg/feedback"
	"github.com/sipeed/alfred/pkg/rules"
)

func newAdjustCommand(store func() *rules.Store, mode rules.AdjustMode) *cobra.Command {
	name, short, def := "boost", "Raise a rule's weight", feedback.DefaultPositiveDelta
	if mode == rules.AdjustDecrease {
		name, short, def = "demote", "Lower a rule's weight", feedback.DefaultNegativeDelta
	}

	var by float64
	cmd := &cobra.Command{
		Use:   name + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rulesAdjustCmd(cmd.OutOrStdout(), store(), args[0], by, mode)
		},
	}
	cmd.Flags().Float64Var(&by, "by", def, "Amount to move the weight")

	return cmd
}

func rulesAdjustCmd(out io.Writer, store *rules.Store, id string, by float64, mode rules.AdjustMode) error {
	res, err := store.Adjust(id, by, mode)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ %s weight is now %.2f\n", res.Key, res.Weight)
	return nil
}
