// Package anthropicprovider generates text through the Anthropic Messages API.
package anthropicprovider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sipeed/alfred/pkg/logger"
	"github.com/sipeed/alfred/pkg/providers/protocoltypes"
)

const (
	defaultBaseURL        = "https://api.anthropic.com"
	defaultModel          = "claude-haiku-4-5"
	defaultMaxTokens      = 1024
	defaultRequestTimeout = 10 * time.Second
)

type Provider struct {
	baseURL    string
	model      string
	maxTokens  int64
	httpClient *http.Client
	client     *anthropic.Client
}

type Option func(*Provider)

func WithRequestTimeout(timeout time.Duration) Option {
	return func(p *Provider) {
		if timeout > 0 {
			p.httpClient.Timeout = timeout
		}
	}
}

func WithMaxTokens(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.maxTokens = int64(n)
		}
	}
}

func NewProvider(apiKey, apiBase, proxy, model string, opts ...Option) *Provider {
	httpClient := &http.Client{Timeout: defaultRequestTimeout}
	if proxy != "" {
		parsed, err := url.Parse(proxy)
		if err == nil {
			httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(parsed)}
		} else {
			logger.WarnCF("nl", "Invalid proxy URL", map[string]any{"proxy": proxy, "error": err.Error()})
		}
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}

	p := &Provider{
		baseURL:    normalizeBaseURL(apiBase),
		model:      model,
		maxTokens:  defaultMaxTokens,
		httpClient: httpClient,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(p.baseURL),
		option.WithHTTPClient(p.httpClient),
		option.WithMaxRetries(0),
	)
	p.client = &client
	return p
}

func (p *Provider) GetDefaultModel() string {
	return p.model
}

func (p *Provider) BaseURL() string {
	return p.baseURL
}

// Generate sends one user turn. The Messages API has no JSON response mode,
// so req.JSON relies on the prompt alone.
func (p *Provider) Generate(
	ctx context.Context,
	req protocoltypes.GenerateRequest,
) (*protocoltypes.GenerateResponse, error) {
	resp, err := p.client.Messages.New(ctx, p.buildParams(req))
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, &protocoltypes.StatusError{
				Provider:   "Anthropic API",
				StatusCode: apiErr.StatusCode,
				Message:    strings.TrimSpace(apiErr.Error()),
			}
		}
		return nil, fmt.Errorf("Anthropic API request failed: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.AsText().Text)
		}
	}
	if content.Len() == 0 {
		return nil, fmt.Errorf("Anthropic API returned no text")
	}

	return &protocoltypes.GenerateResponse{
		Content: strings.TrimSpace(content.String()),
		Model:   string(resp.Model),
	}, nil
}

func (p *Provider) buildParams(req protocoltypes.GenerateRequest) anthropic.MessageNewParams {
	model := req.Model
	if model == "" {
		model = p.model
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(normalizeModel(model)),
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	return params
}

func normalizeModel(model string) string {
	trimmed := strings.TrimSpace(model)
	if strings.HasPrefix(strings.ToLower(trimmed), "anthropic/") {
		return trimmed[len("anthropic/"):]
	}
	return trimmed
}

func normalizeBaseURL(apiBase string) string {
	base := strings.TrimRight(strings.TrimSpace(apiBase), "/")
	base = strings.TrimSuffix(base, "/v1")
	if base == "" {
		return defaultBaseURL
	}
	return base
}
