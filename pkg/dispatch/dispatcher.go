// Package dispatch turns orders into child-process invocations and
// normalizes whatever the child prints into a Result.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/sipeed/alfred/pkg/catalog"
	"github.com/sipeed/alfred/pkg/logger"
	"github.com/sipeed/alfred/pkg/order"
)

// Recorder receives every dispatched order and its result.
type Recorder interface {
	Record(ctx context.Context, o order.Order, res Result) error
}

type Dispatcher struct {
	Catalogs catalog.Source
	Runner   *Runner
	// Root overrides the catalog directory as the place scripts are looked
	// up and run in.
	Root     string
	Recorder Recorder
}

func NewDispatcher(catalogs catalog.Source, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		Catalogs: catalogs,
		Runner:   &Runner{Timeout: timeout},
	}
}

// Dispatch runs one order. Catalog problems, unknown names and build errors
// come back as failed results.
func (d *Dispatcher) Dispatch(ctx context.Context, o order.Order) Result {
	res := d.dispatch(ctx, o)
	if d.Recorder != nil {
		if err := d.Recorder.Record(ctx, o, res); err != nil {
			logger.WarnCF("dispatch", "Failed to record result", map[string]any{
				"order": o.Key(),
				"error": err.Error(),
			})
		}
	}
	return res
}

func (d *Dispatcher) dispatch(ctx context.Context, o order.Order) Result {
	if o.Domain == "" || o.Command == "" {
		return Failure("order is missing domain or command")
	}
	if d.Catalogs == nil {
		return Failure("no catalog configured")
	}
	cat, err := d.Catalogs.Load()
	if err != nil {
		return Failure(fmt.Sprintf("could not read catalog: %v", err))
	}

	_, domain, cmd, err := cat.Lookup(o.Domain, o.Command)
	if err != nil {
		return d.withOrigin(Failure(err.Error()), cat, o)
	}

	root := d.Root
	if root == "" {
		root = cat.Root()
	}
	inv, err := Build(root, domain, cmd, o.Args)
	if err != nil {
		return d.withOrigin(Failure(err.Error()), cat, o)
	}

	runner := Runner{Root: root}
	if d.Runner != nil {
		runner.Timeout = d.Runner.Timeout
		if d.Runner.Root != "" {
			runner.Root = d.Runner.Root
		}
	}
	logger.InfoCF("dispatch", "Running order", map[string]any{
		"order":  o.Key(),
		"script": inv.Path,
	})
	return d.withOrigin(runner.Run(ctx, inv), cat, o)
}

func (d *Dispatcher) withOrigin(res Result, cat *catalog.Catalog, o order.Order) Result {
	meta := res.Meta()
	meta["catalog"] = cat.Path
	meta["domain"] = o.Domain
	meta["command"] = o.Command
	return res
}

// DispatchAll runs orders one after another.
func (d *Dispatcher) DispatchAll(ctx context.Context, orders []order.Order) Summary {
	sum := Summary{OK: len(orders) > 0, Results: make([]Result, 0, len(orders))}
	for _, o := range orders {
		res := d.Dispatch(ctx, o)
		sum.Results = append(sum.Results, res)
		sum.OK = sum.OK && res.OK()
	}
	return sum
}
