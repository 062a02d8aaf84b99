package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sipeed/alfred/cmd/alfred/internal"
	"github.com/sipeed/alfred/pkg/history"
	"github.com/sipeed/alfred/pkg/utils"
)

func historyCmd(ctx context.Context, out io.Writer, limit int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := internal.LoadConfig()
	if !cfg.History.Enabled {
		return errors.New("history is disabled in the config")
	}

	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	printEntries(out, entries)
	return nil
}

func printEntries(out io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No dispatches recorded.")
		return
	}
	for _, e := range entries {
		mark := "✓"
		if !e.OK {
			mark = "✗"
		}
		line := fmt.Sprintf("%s %s %-24s", e.CreatedAt.Local().Format(time.DateTime), mark, e.Order.Key())
		if e.DurationMs != nil {
			line += fmt.Sprintf(" %6dms", *e.DurationMs)
		}
		if e.Error != "" {
			line += "  " + utils.Truncate(e.Error, 80)
		}
		fmt.Fprintln(out, line)
	}
}
