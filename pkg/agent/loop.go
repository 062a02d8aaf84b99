// Package agent ties the resolver, dispatcher, feedback and slash commands
// into the single entry point the CLI talks to.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sipeed/alfred/pkg/catalog"
	"github.com/sipeed/alfred/pkg/commands"
	"github.com/sipeed/alfred/pkg/config"
	"github.com/sipeed/alfred/pkg/dispatch"
	"github.com/sipeed/alfred/pkg/feedback"
	"github.com/sipeed/alfred/pkg/history"
	"github.com/sipeed/alfred/pkg/logger"
	"github.com/sipeed/alfred/pkg/nl"
	"github.com/sipeed/alfred/pkg/order"
	"github.com/sipeed/alfred/pkg/providers"
	"github.com/sipeed/alfred/pkg/resolver"
	"github.com/sipeed/alfred/pkg/rules"
	"github.com/sipeed/alfred/pkg/session"
)

// Response is what one call to ProcessDirect produced. Exactly one of
// Command, Goodbye or Orders describes the path taken.
type Response struct {
	Text      string
	Command   string
	Goodbye   bool
	Orders    []order.Order
	Warnings  []string
	Summary   *dispatch.Summary
	Narration string
}

type Loop struct {
	cfg        *config.Config
	rules      *rules.Store
	catalogs   *catalog.Cache
	nl         *nl.Service
	resolver   *resolver.Resolver
	dispatcher *dispatch.Dispatcher
	feedback   *feedback.Adjuster
	commands   *commands.Dispatcher
	sessions   *session.SessionManager
	history    *history.Store
	stopWatch  context.CancelFunc
}

// NewLoop wires every component from cfg. Only an unusable history database
// is fatal; an unreadable rule store, a missing catalog or NL backend degrades
// with a warning.
func NewLoop(cfg *config.Config) (*Loop, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	store := rules.NewStore(cfg.RulesPath())
	if err := store.Load(); err != nil {
		if !rules.IsSoftLoadError(err) {
			return nil, fmt.Errorf("load rules: %w", err)
		}
		logger.WarnCF("agent", "Rule store unusable, starting empty", map[string]any{
			"path":  store.Path(),
			"error": err.Error(),
		})
	}
	if _, err := store.EnsureIDs(); err != nil {
		logger.WarnCF("agent", "Could not persist rule ids", map[string]any{"error": err.Error()})
	}

	cache := catalog.NewCache(cfg.CatalogPath())

	var svc *nl.Service
	if cfg.NL.Enabled {
		gen, err := providers.CreateGenerator(cfg.NL)
		if err != nil {
			logger.WarnCF("agent", "NL backend disabled", map[string]any{"error": err.Error()})
		} else {
			svc = nl.NewService(gen, nl.Options{
				Timeout:           time.Duration(cfg.NL.TimeoutSeconds) * time.Second,
				RequestsPerMinute: cfg.NL.RequestsPerMinute,
				NarrateModel:      cfg.Narrate.Model,
			})
		}
	}

	d := dispatch.NewDispatcher(cache, time.Duration(cfg.Dispatch.TimeoutSeconds)*time.Second)
	d.Root = cfg.Paths.Root

	l := &Loop{
		cfg:        cfg,
		rules:      store,
		catalogs:   cache,
		nl:         svc,
		dispatcher: d,
		sessions:   session.NewSessionManager(cfg.SessionsDir()),
	}

	if cfg.History.Enabled {
		hs, err := history.Open(cfg.HistoryPath())
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		l.history = hs
		d.Recorder = hs
	}

	// A nil *nl.Service must not become a non-nil interface.
	if svc != nil {
		l.resolver = resolver.New(store, cache, svc)
	} else {
		l.resolver = resolver.New(store, cache, nil)
	}

	fb := feedback.NewAdjuster(store)
	if cfg.Feedback.PositiveDelta > 0 {
		fb.PositiveDelta = cfg.Feedback.PositiveDelta
	}
	if cfg.Feedback.NegativeDelta > 0 {
		fb.NegativeDelta = cfg.Feedback.NegativeDelta
	}
	l.feedback = fb

	l.commands = commands.NewDispatcher(commands.NewRegistry(
		commands.BuiltinDefinitions(commands.Deps{Feedback: fb, Rules: store}),
	))

	logger.InfoCF("agent", "Agent initialized", l.GetStartupInfo())
	return l, nil
}

// StartWatching invalidates the cached catalog whenever its file changes,
// until Close is called.
func (l *Loop) StartWatching(ctx context.Context) {
	if l.stopWatch != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	l.stopWatch = cancel
	go func() {
		if err := l.catalogs.Watch(ctx); err != nil {
			logger.WarnCF("agent", "Catalog watcher stopped", map[string]any{"error": err.Error()})
		}
	}()
}

func (l *Loop) Close() error {
	if l.stopWatch != nil {
		l.stopWatch()
	}
	var errs []error
	if err := l.sessions.Save(); err != nil {
		errs = append(errs, err)
	}
	if l.history != nil {
		errs = append(errs, l.history.Close())
	}
	return errors.Join(errs...)
}

func (l *Loop) Rules() *rules.Store { return l.rules }

func (l *Loop) Catalogs() *catalog.Cache { return l.catalogs }

func (l *Loop) Dispatcher() *dispatch.Dispatcher { return l.dispatcher }

// History is nil when history recording is disabled.
func (l *Loop) History() *history.Store { return l.history }

// ProcessDirect handles one line of user input for sessionKey: a goodbye, a
// slash command, or an instruction that is resolved and dispatched.
func (l *Loop) ProcessDirect(ctx context.Context, text, sessionKey string) (*Response, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, resolver.ErrEmptyInput
	}
	sess := l.sessions.GetOrCreate(sessionKey)

	if IsGoodbye(text) {
		return &Response{Goodbye: true, Text: goodbyeMessage}, nil
	}

	if commands.IsCommand(text) {
		var out strings.Builder
		res := l.commands.Dispatch(ctx, commands.Request{
			Session: sess,
			Text:    text,
			Reply: func(s string) error {
				out.WriteString(s)
				return nil
			},
		})
		if res.Handled {
			l.saveSessions()
			if res.Err != nil {
				return nil, fmt.Errorf("/%s: %w", res.Command, res.Err)
			}
			return &Response{Command: res.Command, Text: out.String()}, nil
		}
		if res.Command != "" {
			return &Response{Command: res.Command, Text: fmt.Sprintf("Unknown command /%s. Try /help.", res.Command)}, nil
		}
	}

	resolution, err := l.resolver.Resolve(ctx, sess, text)
	if err != nil {
		logger.InfoCF("agent", "Nothing to dispatch", map[string]any{
			"text":  text,
			"error": err.Error(),
		})
		return nil, err
	}
	l.saveSessions()

	summary := l.dispatcher.DispatchAll(ctx, resolution.Orders)
	resp := &Response{
		Orders:   resolution.Orders,
		Warnings: resolution.Warnings,
		Summary:  &summary,
		Text:     FormatSummary(resolution.Orders, summary),
	}

	if l.cfg.Narrate.Enabled {
		resp.Narration = l.narrate(ctx, resolution.Orders, summary)
	}

	logger.InfoCF("agent", "Input processed", map[string]any{
		"session":  sessionKey,
		"orders":   len(resolution.Orders),
		"warnings": len(resolution.Warnings),
		"ok":       summary.OK,
	})
	return resp, nil
}

func (l *Loop) narrate(ctx context.Context, orders []order.Order, summary dispatch.Summary) string {
	lines := make([]string, 0, len(summary.Results))
	for i, res := range summary.Results {
		var payload any
		if i < len(orders) {
			payload = orders[i]
		}
		if l.nl == nil {
			lines = append(lines, nl.FallbackNarration(res))
			continue
		}
		lines = append(lines, l.nl.Narrate(ctx, payload, res))
	}
	return strings.Join(lines, "\n")
}

func (l *Loop) saveSessions() {
	if err := l.sessions.Save(); err != nil {
		logger.WarnCF("agent", "Failed to save sessions", map[string]any{"error": err.Error()})
	}
}

// GetStartupInfo describes the loaded configuration for logging and status
// output.
func (l *Loop) GetStartupInfo() map[string]any {
	info := map[string]any{
		"catalog": l.catalogs.Path(),
		"rules": map[string]any{
			"path":  l.rules.Path(),
			"count": l.rules.Count(),
		},
		"history": l.history != nil,
		"narrate": l.cfg.Narrate.Enabled,
	}
	if cat, err := l.catalogs.Load(); err == nil {
		info["domains"] = len(cat.Domains)
	}
	if l.nl != nil {
		info["nl"] = map[string]any{
			"provider": l.cfg.NL.Provider,
			"model":    l.cfg.NL.Model,
		}
	} else {
		info["nl"] = false
	}
	return info
}
