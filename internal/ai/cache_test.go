package ai

import (
	"fmt"
	"testing"

	"github.com/tributolabs/fiscalis/internal/types"
)

func TestCacheKey_NormalizesCaseAndWhitespace(t *testing.T) {
	a := cacheKey("  Analise   SP\n2020  ")
	b := cacheKey("analise sp 2020")
	if a != b {
		t.Errorf("cacheKey mismatch: %q vs %q", a, b)
	}
}

func TestResultCache_HitReturnsIsolatedCopy(t *testing.T) {
	c := newResultCache(4)
	c.put("k", types.AskAiResult{
		Response: "original",
		Sources:  []types.Source{{Title: "t", URI: "u"}},
	})

	got, ok := c.get("k")
	if !ok {
		t.Fatal("get() miss for stored key")
	}
	got.Response = "mutated"
	got.Sources[0].Title = "mutated"

	again, _ := c.get("k")
	if again.Response != "original" || again.Sources[0].Title != "t" {
		t.Error("mutation of returned copy leaked into cache")
	}
}

func TestResultCache_FIFOEviction(t *testing.T) {
	c := newResultCache(3)
	for i := 0; i < 4; i++ {
		c.put(fmt.Sprintf("k%d", i), types.AskAiResult{Response: fmt.Sprintf("r%d", i)})
	}

	if c.len() != 3 {
		t.Fatalf("cache holds %d entries, want 3", c.len())
	}
	if _, ok := c.get("k0"); ok {
		t.Error("oldest entry k0 survived eviction")
	}
	for i := 1; i < 4; i++ {
		if _, ok := c.get(fmt.Sprintf("k%d", i)); !ok {
			t.Errorf("entry k%d missing", i)
		}
	}
}

func TestResultCache_OverwriteKeepsPosition(t *testing.T) {
	c := newResultCache(2)
	c.put("a", types.AskAiResult{Response: "a1"})
	c.put("b", types.AskAiResult{Response: "b1"})
	// Overwrite does not refresh insertion order: "a" is still oldest.
	c.put("a", types.AskAiResult{Response: "a2"})
	c.put("c", types.AskAiResult{Response: "c1"})

	if _, ok := c.get("a"); ok {
		t.Error("overwritten entry a escaped FIFO eviction")
	}
	if got, ok := c.get("b"); !ok || got.Response != "b1" {
		t.Errorf("entry b = (%+v, %v), want intact", got, ok)
	}
}
