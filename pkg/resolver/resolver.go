// Package resolver turns a line of free text into orders. The whole line is
// first tried as a JSON order payload; otherwise it is cut into chunks and
// each chunk goes through rule matching, the catalog grammar and finally the
// NL fallback, stopping at the first stage that yields something.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/sipeed/alfred/pkg/catalog"
	"github.com/sipeed/alfred/pkg/logger"
	"github.com/sipeed/alfred/pkg/nl"
	"github.com/sipeed/alfred/pkg/order"
	"github.com/sipeed/alfred/pkg/rules"
	"github.com/sipeed/alfred/pkg/session"
)

// RuleMatcher is the part of the rule store the resolver reads and teaches.
type RuleMatcher interface {
	Match(text string) (*rules.Match, bool)
	Learn(pattern, domain, command string, argsMap map[string]string) (rules.Rule, error)
}

// NLService is the external text-to-orders fallback.
type NLService interface {
	ResolveOrders(ctx context.Context, cat *catalog.Catalog, chunk string) ([]order.Order, error)
	ProposeAlias(ctx context.Context, cat *catalog.Catalog, chunk string) (*nl.AliasProposal, error)
}

type Stage string

const (
	StageDirect  Stage = "direct"
	StageRule    Stage = "rule"
	StageGrammar Stage = "grammar"
	StageNL      Stage = "nl"
)

// ChunkResult records how one chunk was resolved.
type ChunkResult struct {
	Text   string
	Stage  Stage
	Orders []order.Order
	RuleID string
}

type Resolution struct {
	Orders     []order.Order
	Warnings   []string
	LastRuleID string
	Chunks     []ChunkResult
}

type Resolver struct {
	store    RuleMatcher
	catalogs catalog.Source
	nl       NLService
}

// New builds a resolver. store and nl may be nil, which disables the
// matching stages that need them.
func New(store RuleMatcher, catalogs catalog.Source, nl NLService) *Resolver {
	return &Resolver{store: store, catalogs: catalogs, nl: nl}
}

// Resolve produces the orders for text. Per-chunk failures become warnings;
// only when no chunk yields anything is a *NoOrdersError returned. A rule id
// recorded during resolution is stored on sess for later feedback.
func (r *Resolver) Resolve(ctx context.Context, sess *session.Session, text string) (*Resolution, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	if orders, err := order.Parse(text); err == nil {
		logger.DebugCF("resolver", "Direct payload", map[string]any{"orders": len(orders)})
		return &Resolution{
			Orders: orders,
			Chunks: []ChunkResult{{Text: text, Stage: StageDirect, Orders: orders}},
		}, nil
	}

	res := &Resolution{}
	cat := r.loadCatalog(res)

	for _, chunk := range SplitChunks(text) {
		cr, ok := r.resolveChunk(ctx, cat, chunk)
		if !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("no rule, grammar or NL result for %q (ignored)", chunk))
			logger.InfoCF("resolver", "Chunk not resolved", map[string]any{"chunk": chunk})
			continue
		}
		res.Orders = append(res.Orders, cr.Orders...)
		res.Chunks = append(res.Chunks, cr)
		if cr.RuleID != "" {
			res.LastRuleID = cr.RuleID
		}
	}

	if len(res.Orders) == 0 {
		return nil, &NoOrdersError{Warnings: res.Warnings}
	}
	if res.LastRuleID != "" {
		sess.SetLastRuleID(res.LastRuleID)
	}
	return res, nil
}

func (r *Resolver) loadCatalog(res *Resolution) *catalog.Catalog {
	if r.catalogs == nil {
		return catalog.New(nil)
	}
	cat, err := r.catalogs.Load()
	if err != nil || cat == nil {
		msg := "catalog unavailable"
		if err != nil {
			msg = fmt.Sprintf("catalog unavailable: %v", err)
		}
		res.Warnings = append(res.Warnings, msg)
		logger.WarnCF("resolver", "Catalog unavailable, continuing with an empty one", map[string]any{
			"error": fmt.Sprint(err),
		})
		return catalog.New(nil)
	}
	return cat
}

func (r *Resolver) resolveChunk(ctx context.Context, cat *catalog.Catalog, chunk string) (ChunkResult, bool) {
	if r.store != nil {
		if m, ok := r.store.Match(chunk); ok {
			logger.DebugCF("resolver", "Rule matched", map[string]any{
				"chunk":  chunk,
				"rule":   m.RuleID,
				"key":    m.Key,
				"weight": m.Weight,
			})
			return ChunkResult{Text: chunk, Stage: StageRule, Orders: []order.Order{m.Order}, RuleID: m.RuleID}, true
		}
	}

	if o, ok := parseGrammar(cat, chunk); ok {
		return ChunkResult{Text: chunk, Stage: StageGrammar, Orders: []order.Order{o}}, true
	}

	if r.nl == nil {
		return ChunkResult{}, false
	}
	orders, err := r.nl.ResolveOrders(ctx, cat, chunk)
	if err != nil || len(orders) == 0 {
		return ChunkResult{}, false
	}
	cr := ChunkResult{Text: chunk, Stage: StageNL, Orders: orders}
	cr.RuleID = r.learn(ctx, cat, chunk, orders[0])
	return cr, true
}

// learn asks for an alias for chunk and files it under first's key. Failure
// only costs the chance to learn.
func (r *Resolver) learn(ctx context.Context, cat *catalog.Catalog, chunk string, first order.Order) string {
	if r.store == nil {
		return ""
	}
	proposal, err := r.nl.ProposeAlias(ctx, cat, chunk)
	if err != nil || proposal == nil {
		return ""
	}
	rule, err := r.store.Learn(proposal.Pattern, first.Domain, first.Command, proposal.ArgsMap)
	if err != nil {
		logger.WarnCF("resolver", "Failed to learn rule", map[string]any{
			"chunk": chunk,
			"error": err.Error(),
		})
		return ""
	}
	return rule.ID
}
