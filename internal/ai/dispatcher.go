package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kukiwrite/kukiwrite/internal/config"
	"github.com/kukiwrite/kukiwrite/internal/metrics"
)

// ErrNoProvider is returned when no configured provider can serve a request.
var ErrNoProvider = errors.New("No AI provider available")

// maxParallel caps concurrent provider calls from one fan-out.
const maxParallel = 4

// DefaultMultiModels are compared when GenerateMulti is called without models.
var DefaultMultiModels = []string{"gpt-4o-mini", "claude-3-5-sonnet"}

// Dispatcher routes a prompt to the provider that serves the requested model family,
// falling back to gpt-4o-mini on OpenAI.
type Dispatcher struct {
	openai    Provider
	anthropic Provider
}

// NewDispatcher builds providers for every key present in cfg.
func NewDispatcher(cfg config.AIConfig) *Dispatcher {
	d := &Dispatcher{}
	if cfg.OpenAIAPIKey != "" {
		d.openai = NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	}
	if cfg.AnthropicAPIKey != "" {
		d.anthropic = NewAnthropicProvider(cfg.AnthropicAPIKey)
	}
	return d
}

// NewDispatcherWithProviders wires explicit providers. A nil provider counts as unconfigured.
func NewDispatcherWithProviders(openai, anthropic Provider) *Dispatcher {
	return &Dispatcher{openai: openai, anthropic: anthropic}
}

// Generate answers prompt with the model in opts. Every failure is wrapped as
// "AI generation failed: ...".
func (d *Dispatcher) Generate(ctx context.Context, prompt string, opts Options) (*Response, error) {
	resp, err := d.generate(ctx, prompt, opts)
	if err != nil {
		return nil, fmt.Errorf("AI generation failed: %w", err)
	}
	return resp, nil
}

func (d *Dispatcher) generate(ctx context.Context, prompt string, opts Options) (*Response, error) {
	if opts.Model.Name == "" {
		opts.Model = ParseModel(DefaultModel)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}

	req := CompletionRequest{
		Model:       opts.Model.Name,
		Prompt:      prompt,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	switch {
	case opts.Model.Family == FamilyOpenAI && d.openai != nil:
		c, err := d.call(ctx, d.openai, req)
		if err != nil {
			return nil, err
		}
		return &Response{Content: c.Content, Model: opts.Model.Name, TokensUsed: c.TokensUsed}, nil

	case opts.Model.Family == FamilyAnthropic && d.anthropic != nil:
		c, err := d.call(ctx, d.anthropic, req)
		if err == nil {
			return &Response{Content: c.Content, Model: opts.Model.Name, TokensUsed: c.TokensUsed}, nil
		}
		if !errors.Is(err, errNoText) {
			return nil, err
		}
	}

	if d.openai == nil {
		return nil, ErrNoProvider
	}
	req.Model = DefaultModel
	c, err := d.call(ctx, d.openai, req)
	if err != nil {
		return nil, err
	}
	return &Response{Content: c.Content, Model: DefaultModel, TokensUsed: c.TokensUsed}, nil
}

func (d *Dispatcher) call(ctx context.Context, p Provider, req CompletionRequest) (*Completion, error) {
	start := time.Now()
	c, err := p.Complete(ctx, req)
	metrics.AIRequestDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.AIRequestsTotal.WithLabelValues(p.Name(), req.Model, status).Inc()
	return c, err
}

// GenerateMulti runs prompt against every model in parallel. A failing model yields
// an entry flagged Error instead of failing the batch. Results keep the order of models.
func (d *Dispatcher) GenerateMulti(ctx context.Context, prompt string, models []string) []MultiResult {
	if len(models) == 0 {
		models = DefaultMultiModels
	}

	results := make([]MultiResult, len(models))
	var g errgroup.Group
	g.SetLimit(maxParallel)
	for i, m := range models {
		g.Go(func() error {
			opts := DefaultOptions()
			opts.Model = ParseModel(m)
			resp, err := d.Generate(ctx, prompt, opts)
			if err != nil {
				results[i] = MultiResult{Content: "Error: " + err.Error(), Model: m, Error: true}
				return nil
			}
			results[i] = MultiResult{Content: resp.Content, Model: resp.Model, TokensUsed: resp.TokensUsed}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// AvailableModels lists the logical models the configured providers can serve.
func (d *Dispatcher) AvailableModels() []string {
	var models []string
	if d.openai != nil {
		models = append(models, "gpt-4o", "gpt-4o-mini")
	}
	if d.anthropic != nil {
		models = append(models, "claude-3-5-sonnet", "claude-3-opus")
	}
	if len(models) == 0 {
		return []string{DefaultModel}
	}
	return models
}
