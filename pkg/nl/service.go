// Package nl is the natural-language fallback: it asks a text generator to
// turn a chunk the grammar could not handle into orders, to propose a reusable
// alias for it, and to narrate dispatch results.
package nl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sipeed/alfred/pkg/catalog"
	"github.com/sipeed/alfred/pkg/logger"
	"github.com/sipeed/alfred/pkg/order"
	"github.com/sipeed/alfred/pkg/providers"
	"github.com/sipeed/alfred/pkg/utils"
)

const (
	DefaultTimeout = 10 * time.Second
	MaxWildcards   = 3
)

var ErrNoResult = errors.New("nl service gave no usable result")

// AliasProposal is a pattern rule suggested by the model.
type AliasProposal struct {
	Pattern string
	ArgsMap map[string]string
}

type Options struct {
	Timeout           time.Duration
	RequestsPerMinute int // 0 = unlimited
	NarrateModel      string
	// Retry defaults to utils.DefaultRetryPolicy when Attempts is zero.
	Retry utils.RetryPolicy
}

type Service struct {
	gen          providers.TextGenerator
	limiter      *rate.Limiter
	timeout      time.Duration
	retry        utils.RetryPolicy
	narrateModel string
}

func NewService(gen providers.TextGenerator, opts Options) *Service {
	s := &Service{
		gen:          gen,
		timeout:      opts.Timeout,
		retry:        opts.Retry,
		narrateModel: opts.NarrateModel,
	}
	if s.retry.Attempts == 0 {
		s.retry = utils.DefaultRetryPolicy()
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if opts.RequestsPerMinute > 0 {
		burst := min(opts.RequestsPerMinute, 5)
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), burst)
	}
	return s
}

func (s *Service) generate(ctx context.Context, req providers.GenerateRequest) (string, error) {
	if s == nil || s.gen == nil {
		return "", ErrNoResult
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("nl rate limit: %w", err)
		}
	}

	start := time.Now()
	policy := s.retry
	policy.Notify = func(attempt int, d utils.RetryDecision, delay time.Duration) {
		logger.InfoCF("nl", "Retrying generation", map[string]any{
			"attempt":  attempt,
			"status":   d.Status,
			"delay_ms": delay.Milliseconds(),
		})
	}
	resp, err := utils.DoWithRetry(ctx, policy, func(ctx context.Context) (*providers.GenerateResponse, error) {
		return s.gen.Generate(ctx, req)
	})
	if err != nil {
		logger.WarnCF("nl", "Generation failed", map[string]any{
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return "", err
	}
	logger.DebugCF("nl", "Generation finished", map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
		"chars":       len(resp.Content),
	})
	return resp.Content, nil
}

// ResolveOrders asks the model for orders for chunk. Orders naming a domain
// or command absent from cat are dropped; if none survive the result is
// ErrNoResult.
func (s *Service) ResolveOrders(ctx context.Context, cat *catalog.Catalog, chunk string) ([]order.Order, error) {
	text, err := s.generate(ctx, providers.GenerateRequest{
		Prompt: resolvePrompt(cat.JSON(), chunk),
		JSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoResult, err)
	}

	orders, err := order.Parse(extractJSON(text))
	if err != nil {
		logger.DebugCF("nl", "Reply is not an order payload", map[string]any{
			"reply": utils.Truncate(text, 200),
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrNoResult, err)
	}

	kept := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		name, _, _, err := cat.Lookup(o.Domain, o.Command)
		if err != nil {
			continue
		}
		o.Domain = name
		kept = append(kept, o)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: orders outside the catalog", ErrNoResult)
	}
	return kept, nil
}

// ProposeAlias asks the model for a pattern that would match chunk next time.
func (s *Service) ProposeAlias(ctx context.Context, cat *catalog.Catalog, chunk string) (*AliasProposal, error) {
	text, err := s.generate(ctx, providers.GenerateRequest{
		Prompt: aliasPrompt(cat.JSON(), chunk),
		JSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoResult, err)
	}
	p, err := ParseAliasProposal(extractJSON(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoResult, err)
	}
	return p, nil
}

// Narrate explains result in a sentence or two. It never fails: when the
// model is unavailable a canned summary is returned.
func (s *Service) Narrate(ctx context.Context, payload any, result map[string]any) string {
	text, err := s.generate(ctx, providers.GenerateRequest{
		Model:       s.narrateModel,
		System:      narrateSystem,
		Prompt:      narratePrompt(payload, result),
		Temperature: floatPtr(0.3),
	})
	if err != nil || strings.TrimSpace(text) == "" {
		return FallbackNarration(result)
	}
	return strings.TrimSpace(text)
}

// FallbackNarration summarizes result without a model.
func FallbackNarration(result map[string]any) string {
	if ok, _ := result["ok"].(bool); ok {
		return "Done. Everything seems to have gone well."
	}
	msg, _ := result["error"].(string)
	if msg == "" {
		if stderr, _ := result["stderr"].(string); stderr != "" {
			msg = utils.Truncate(stderr, 200)
		}
	}
	if msg == "" {
		msg = "something went wrong."
	}
	return "Could not complete: " + msg
}

func floatPtr(v float64) *float64 { return &v }
