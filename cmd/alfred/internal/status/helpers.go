package status

import (
	"fmt"
	"io"
	"os"

	"github.com/sipeed/alfred/cmd/alfred/internal"
	"github.com/sipeed/alfred/pkg/catalog"
	"github.com/sipeed/alfred/pkg/config"
	"github.com/sipeed/alfred/pkg/rules"
)

func statusCmd(out io.Writer) {
	configPath := internal.GetConfigPath()
	cfg := internal.LoadConfig()

	fmt.Fprintf(out, "%s alfred Status\n", internal.Logo)
	fmt.Fprintf(out, "Version: %s\n", internal.FormatVersion())
	build, _ := internal.FormatBuildInfo()
	if build != "" {
		fmt.Fprintf(out, "Build: %s\n", build)
	}
	fmt.Fprintln(out)

	printPath(out, "Config", configPath)
	printStatus(out, cfg)
}

func printStatus(out io.Writer, cfg *config.Config) {
	if cat, err := catalog.LoadFile(cfg.CatalogPath()); err == nil {
		fmt.Fprintf(out, "Catalog: %s ✓ (%d domains)\n", cfg.CatalogPath(), len(cat.Domains))
	} else {
		fmt.Fprintf(out, "Catalog: %s ✗ (%v)\n", cfg.CatalogPath(), err)
	}

	store := rules.NewStore(cfg.RulesPath())
	if err := store.Load(); err == nil {
		fmt.Fprintf(out, "Rules: %s ✓ (%d rules)\n", cfg.RulesPath(), store.Count())
	} else {
		fmt.Fprintf(out, "Rules: %s ✗ (%v)\n", cfg.RulesPath(), err)
	}

	if cfg.History.Enabled {
		printPath(out, "History", cfg.HistoryPath())
	} else {
		fmt.Fprintln(out, "History: disabled")
	}

	if cfg.NL.Enabled {
		fmt.Fprintf(out, "NL: %s %s at %s\n", cfg.NL.Provider, cfg.NL.Model, cfg.NL.BaseURL)
	} else {
		fmt.Fprintln(out, "NL: disabled")
	}
	fmt.Fprintf(out, "Dispatch timeout: %ds\n", cfg.Dispatch.TimeoutSeconds)
}

func printPath(out io.Writer, label, path string) {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintln(out, label+":", path, "✓")
	} else {
		fmt.Fprintln(out, label+":", path, "✗")
	}
}
