package fiscal

import (
	"sort"

	"github.com/tributolabs/fiscalis/internal/types"
)

// Risk level thresholds on the heuristic score.
const (
	riskHighThreshold   = 16
	riskMediumThreshold = 12
)

// RiskRanking scores every state and returns the top entries, highest risk
// first. The weights are a legacy heuristic carried over unchanged for
// compatibility; they have no validated statistical basis.
func RiskRanking(limit int) []types.RankedState {
	ranked := make([]types.RankedState, 0, len(brazilStates))
	for _, state := range brazilStates {
		score := state.InternalRate * 0.5
		score += state.FCPRate * 2
		if state.BenefitFund {
			score += 2
		}
		if state.InternalRate+state.FCPRate >= 22 {
			score += 1.5
		}
		score = round2(score)

		level := "low"
		switch {
		case score >= riskHighThreshold:
			level = "high"
		case score >= riskMediumThreshold:
			level = "medium"
		}

		ranked = append(ranked, types.RankedState{
			StateTaxProfile: state,
			RiskScore:       score,
			RiskLevel:       level,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].RiskScore > ranked[j].RiskScore })

	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}
