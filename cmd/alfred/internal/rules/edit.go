package rules

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sipeed/alfred/pkg/rules"
)

func newEditCommand(store func() *rules.Store) *cobra.Command {
	var (
		pattern string
		argSet  []string
	)

	cmd := &cobra.Command{
		Use:     "edit <id>",
		Short:   "Change a rule's pattern or argument map",
		Example: `alfred rules edit 3f2a --pattern "pon *" --arg song='$1'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p *string
			if cmd.Flags().Changed("pattern") {
				p = &pattern
			}
			argsMap, err := parseArgFlags(argSet)
			if err != nil {
				return err
			}
			return rulesEditCmd(cmd.OutOrStdout(), store(), args[0], p, argsMap)
		},
	}

	cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "New pattern, * matches any text")
	cmd.Flags().StringArrayVarP(&argSet, "arg", "a", nil, "Argument as name=value; replaces the whole map when given")

	return cmd
}

func rulesEditCmd(out io.Writer, store *rules.Store, id string, pattern *string, argsMap map[string]string) error {
	if pattern == nil && argsMap == nil {
		return errors.New("nothing to change: pass --pattern or --arg")
	}
	key, err := store.Update(id, pattern, argsMap)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Updated rule %s (%s)\n", id, key)
	return nil
}

// parseArgFlags turns name=value pairs into a map. No pairs gives nil.
func parseArgFlags(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --arg %q, want name=value", p)
		}
		out[name] = value
	}
	return out, nil
}
