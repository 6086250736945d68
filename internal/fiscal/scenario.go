package fiscal

import (
	"math"

	"github.com/tributolabs/fiscalis/internal/types"
)

// Simulate projects the revenue effect of an ICMS/FCP rate change. Purely
// deterministic: identical inputs always produce identical outputs. Rates
// cannot project below zero.
func Simulate(in types.ScenarioInput) types.ScenarioResult {
	currentRate := in.ICMSRate + in.FCPRate
	projectedRate := math.Max(0, currentRate+in.DeltaICMS+in.DeltaFCP)

	variationPercent := 0.0
	if currentRate != 0 {
		variationPercent = (projectedRate - currentRate) / currentRate * 100
	}

	projectedRevenue := in.BaseRevenue * (1 + variationPercent/100)
	deltaRevenue := projectedRevenue - in.BaseRevenue

	return types.ScenarioResult{
		CurrentEffectiveRate:   round2(currentRate),
		ProjectedEffectiveRate: round2(projectedRate),
		VariationPercent:       round2(variationPercent),
		ProjectedRevenue:       round2(projectedRevenue),
		DeltaRevenue:           round2(deltaRevenue),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
