package rules

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sipeed/alfred/pkg/rules"
)

func newListCommand(store func() *rules.Store) *cobra.Command {
	return &cobra.Command{
		Use:     "list [filter]",
		Short:   "List rules, optionally filtered by key or pattern",
		Example: `alfred rules list spotify`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}
			rulesListCmd(cmd.OutOrStdout(), store(), filter)
			return nil
		},
	}
}

func rulesListCmd(out io.Writer, store *rules.Store, filter string) {
	list := store.List()
	filter = strings.ToLower(filter)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Key < list[j].Key })

	shown := 0
	for _, r := range list {
		if filter != "" && !strings.Contains(r.Key, filter) && !strings.Contains(r.Pattern, filter) {
			continue
		}
		shown++
		fmt.Fprintf(out, "%s  %-24s %.2f  %q", r.ID, r.Key, r.Weight, r.Pattern)
		if len(r.ArgsMap) > 0 {
			keys := make([]string, 0, len(r.ArgsMap))
			for k := range r.ArgsMap {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, 0, len(keys))
			for _, k := range keys {
				parts = append(parts, k+"="+r.ArgsMap[k])
			}
			fmt.Fprintf(out, "  %s", strings.Join(parts, " "))
		}
		fmt.Fprintln(out)
	}
	if shown == 0 {
		fmt.Fprintln(out, "No rules.")
	}
}
