package ai

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tributolabs/fiscalis/internal/types"
)

// fakeProvider counts calls and returns a scripted outcome.
type fakeProvider struct {
	calls  atomic.Int64
	result *GenerateResult
	err    error
	delay  time.Duration
}

func (p *fakeProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

func (p *fakeProvider) Name() string { return "fake" }

func newTestGateway(p Provider) *Gateway {
	g := NewGateway(p)
	g.timeout = 50 * time.Millisecond
	return g
}

func TestFreeChat_Success(t *testing.T) {
	provider := &fakeProvider{result: &GenerateResult{
		Text: "  resposta  ",
		Citations: []CitationChunk{
			{URI: "https://siconfi.tesouro.gov.br", Title: "Siconfi"},
		},
	}}
	g := newTestGateway(provider)

	got := g.FreeChat(context.Background(), "Qual a arrecadacao de SP?")
	if got.Provider != "fake" {
		t.Errorf("Provider = %s, want fake", got.Provider)
	}
	if got.Response != "resposta" {
		t.Errorf("Response = %q, want trimmed text", got.Response)
	}
	if got.Prompt != "Qual a arrecadacao de SP?" {
		t.Errorf("Prompt = %q, want original prompt preserved", got.Prompt)
	}
	if len(got.Sources) != 1 || got.Sources[0].Title != "Siconfi" {
		t.Errorf("Sources = %+v", got.Sources)
	}
}

func TestFreeChat_CacheHitSkipsProvider(t *testing.T) {
	provider := &fakeProvider{result: &GenerateResult{Text: "resposta"}}
	g := newTestGateway(provider)
	ctx := context.Background()

	first := g.FreeChat(ctx, "Pergunta Fiscal")
	// Same text modulo case and spacing hits the cache.
	second := g.FreeChat(ctx, "  pergunta   fiscal ")

	if calls := provider.calls.Load(); calls != 1 {
		t.Errorf("provider called %d times, want 1", calls)
	}
	if !strings.HasPrefix(second.Response, first.Response) {
		t.Errorf("cached Response = %q, not derived from first result %q", second.Response, first.Response)
	}
	if !strings.Contains(second.Response, cacheHitNote) {
		t.Error("cache hit is not annotated")
	}
	if strings.Contains(first.Response, cacheHitNote) {
		t.Error("fresh result carries the cache-hit note")
	}
}

func TestFreeChat_ProviderErrorFallsBackAndCaches(t *testing.T) {
	provider := &fakeProvider{err: errors.New("401 unauthorized")}
	g := newTestGateway(provider)
	ctx := context.Background()

	got := g.FreeChat(ctx, "pergunta")
	if got.Provider != FallbackProvider {
		t.Errorf("Provider = %s, want fallback", got.Provider)
	}
	if !strings.Contains(got.Response, "401 unauthorized") {
		t.Errorf("fallback Response = %q, want embedded reason", got.Response)
	}
	if len(got.Sources) != 0 {
		t.Errorf("fallback Sources = %+v, want empty", got.Sources)
	}

	// The fallback was cached: no second provider call, no timeout storm.
	g.FreeChat(ctx, "pergunta")
	if calls := provider.calls.Load(); calls != 1 {
		t.Errorf("provider called %d times after cached fallback, want 1", calls)
	}
}

func TestFreeChat_TimeoutFallsBack(t *testing.T) {
	provider := &fakeProvider{
		delay:  500 * time.Millisecond,
		result: &GenerateResult{Text: "too late"},
	}
	g := newTestGateway(provider)

	start := time.Now()
	got := g.FreeChat(context.Background(), "pergunta lenta")
	elapsed := time.Since(start)

	if got.Provider != FallbackProvider {
		t.Errorf("Provider = %s, want fallback after timeout", got.Provider)
	}
	if !strings.Contains(got.Response, errTimeout.Error()) {
		t.Errorf("fallback Response = %q, want timeout reason", got.Response)
	}
	if elapsed >= 400*time.Millisecond {
		t.Errorf("gateway waited %v, should have abandoned the call at the timeout", elapsed)
	}
}

func TestFreeChat_NilProviderFallsBack(t *testing.T) {
	g := newTestGateway(nil)
	got := g.FreeChat(context.Background(), "pergunta")
	if got.Provider != FallbackProvider {
		t.Errorf("Provider = %s, want fallback with no provider configured", got.Provider)
	}
}

func TestAnalyze_PromptsAreDeterministic(t *testing.T) {
	sp := types.StateTaxProfile{UF: "SP", Name: "São Paulo"}
	rj := types.StateTaxProfile{UF: "RJ", Name: "Rio de Janeiro"}

	if StateAnalysisPrompt(sp, 2018, 2025) != StateAnalysisPrompt(sp, 2018, 2025) {
		t.Error("state prompt not deterministic")
	}
	stateP := StateAnalysisPrompt(sp, 2018, 2025)
	if !strings.Contains(stateP, "São Paulo (SP)") || !strings.Contains(stateP, "2018 e 2025") {
		t.Errorf("state prompt missing subject or range: %q", stateP)
	}

	muniP := MunicipalAnalysisPrompt("Campinas", sp, 2019, 2024)
	if !strings.Contains(muniP, "Campinas (SP)") || !strings.Contains(muniP, "cota-parte") {
		t.Errorf("municipal prompt malformed: %q", muniP)
	}

	compP := ComparisonPrompt(sp, rj, 2018, 2025)
	if !strings.Contains(compP, "São Paulo (SP)") || !strings.Contains(compP, "Rio de Janeiro (RJ)") {
		t.Errorf("comparison prompt malformed: %q", compP)
	}
}
