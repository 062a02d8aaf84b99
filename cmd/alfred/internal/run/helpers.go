package run

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sipeed/alfred/cmd/alfred/internal"
	"github.com/sipeed/alfred/pkg/catalog"
	"github.com/sipeed/alfred/pkg/config"
	"github.com/sipeed/alfred/pkg/dispatch"
	"github.com/sipeed/alfred/pkg/history"
	"github.com/sipeed/alfred/pkg/logger"
	"github.com/sipeed/alfred/pkg/order"
)

var errOrdersFailed = errors.New("one or more orders failed")

func runCmd(ctx context.Context, in io.Reader, out io.Writer, payload string, dryRun bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(payload) == "" {
		data, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("read payload: %w", err)
		}
		payload = string(data)
	}
	if dryRun {
		return printOrders(out, payload)
	}

	cfg := internal.LoadConfig()
	if err := internal.SetupLogging(cfg, false); err != nil {
		return err
	}
	return dispatchPayload(ctx, cfg, out, payload)
}

// printOrders writes the payload back in canonical form: string args, a
// single object for one order and an {"orders": [...]} batch otherwise.
func printOrders(out io.Writer, payload string) error {
	orders, err := order.Parse(payload)
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	data, err := order.Marshal(orders)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func dispatchPayload(ctx context.Context, cfg *config.Config, out io.Writer, payload string) error {
	orders, err := order.Parse(payload)
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	d := dispatch.NewDispatcher(catalog.FileSource(cfg.CatalogPath()), time.Duration(cfg.Dispatch.TimeoutSeconds)*time.Second)
	d.Root = cfg.Paths.Root
	if cfg.History.Enabled {
		hs, err := history.Open(cfg.HistoryPath())
		if err != nil {
			logger.WarnCF("history", "History disabled", map[string]any{"error": err.Error()})
		} else {
			defer hs.Close()
			d.Recorder = hs
		}
	}

	summary := d.DispatchAll(ctx, orders)
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	if !summary.OK {
		return errOrdersFailed
	}
	return nil
}
