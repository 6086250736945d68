// Package ai implements the query gateway in front of the generative
// provider: deterministic prompt construction, bounded response caching, a
// strict call timeout, and degradation to a canned fallback answer instead
// of surfacing provider failures.
package ai

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/tributolabs/fiscalis/internal/types"
)

const (
	// callTimeout bounds the wall-clock wait on a live provider call.
	callTimeout = 25 * time.Second
	// cacheCapacity bounds the FIFO result cache.
	cacheCapacity = 40
)

// cacheHitNote is appended to reused responses so callers can tell a cached
// answer from a fresh one.
const cacheHitNote = "[cache-hit: resposta reaproveitada para reduzir latencia]"

// FallbackProvider is the provider label on degraded results.
const FallbackProvider = "fallback"

// errTimeout marks an abandoned provider call. Internal only: the gateway
// converts it to a fallback result before returning.
var errTimeout = errors.New("ai timeout reached")

// Gateway turns typed analytical requests into exactly one AskAiResult
// each. It never fails on provider-side problems: timeouts and errors
// degrade to a fallback result, which is cached like any other so repeated
// identical prompts do not re-trigger a struggling provider.
type Gateway struct {
	provider Provider // nil when no provider is configured
	cache    *resultCache
	timeout  time.Duration
}

// NewGateway creates a Gateway over the given provider. A nil provider is
// allowed: every request then resolves to the fallback answer.
func NewGateway(provider Provider) *Gateway {
	return &Gateway{
		provider: provider,
		cache:    newResultCache(cacheCapacity),
		timeout:  callTimeout,
	}
}

// AnalyzeState answers a state-analysis request.
func (g *Gateway) AnalyzeState(ctx context.Context, state types.StateTaxProfile, fromYear, toYear int) types.AskAiResult {
	return g.ask(ctx, StateAnalysisPrompt(state, fromYear, toYear))
}

// AnalyzeMunicipality answers a municipal-analysis request.
func (g *Gateway) AnalyzeMunicipality(ctx context.Context, city string, state types.StateTaxProfile, fromYear, toYear int) types.AskAiResult {
	return g.ask(ctx, MunicipalAnalysisPrompt(city, state, fromYear, toYear))
}

// Compare answers a comparison-analysis request.
func (g *Gateway) Compare(ctx context.Context, primary, secondary types.StateTaxProfile, fromYear, toYear int) types.AskAiResult {
	return g.ask(ctx, ComparisonPrompt(primary, secondary, fromYear, toYear))
}

// FreeChat passes a caller-supplied prompt through unchanged.
func (g *Gateway) FreeChat(ctx context.Context, prompt string) types.AskAiResult {
	return g.ask(ctx, prompt)
}

// ask resolves one prompt: cache, then live call, then fallback.
func (g *Gateway) ask(ctx context.Context, prompt string) types.AskAiResult {
	key := cacheKey(prompt)

	if cached, ok := g.cache.get(key); ok {
		cached.Response += "\n\n" + cacheHitNote
		return cached
	}

	if g.provider == nil {
		fallback := g.fallback(prompt, "")
		g.cache.put(key, fallback)
		return fallback
	}

	generated, err := g.generate(ctx, prompt)
	if err != nil {
		slog.Warn("ai provider call degraded to fallback",
			"provider", g.provider.Name(),
			"error", err,
		)
		fallback := g.fallback(prompt, err.Error())
		g.cache.put(key, fallback)
		return fallback
	}

	text := strings.TrimSpace(generated.Text)
	if text == "" {
		text = "No response generated by model."
	}

	result := types.AskAiResult{
		Provider: g.provider.Name(),
		Response: text,
		Prompt:   prompt,
		Sources:  normalizeSources(generated.Citations),
	}
	g.cache.put(key, result)
	return result
}

// generate races the provider call against the timeout. The loser is
// abandoned, not cancelled: the provider goroutine keeps its context and
// writes into a buffered channel nobody reads. Known leak risk under
// sustained timeouts; the provider's own HTTP timeout is the backstop.
func (g *Gateway) generate(ctx context.Context, prompt string) (*GenerateResult, error) {
	type outcome struct {
		result *GenerateResult
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		result, err := g.provider.Generate(ctx, GenerateRequest{
			Prompt:            prompt,
			SystemInstruction: systemInstruction,
		})
		done <- outcome{result, err}
	}()

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case o := <-done:
		return o.result, o.err
	case <-timer.C:
		return nil, errTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fallback builds the canned degraded answer. The reason, when present,
// keeps the failure diagnosable by operators reading the audit trail.
func (g *Gateway) fallback(prompt, reason string) types.AskAiResult {
	parts := []string{
		"The AI provider is unavailable or not configured for this environment.",
		"This fallback keeps the API stable while preserving secure key handling on the backend.",
	}
	if reason != "" {
		parts = append(parts, "Fallback reason: "+reason)
	}
	return types.AskAiResult{
		Provider: FallbackProvider,
		Response: strings.Join(parts, " "),
		Prompt:   prompt,
		Sources:  []types.Source{},
	}
}
