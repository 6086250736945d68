// Package fiscal holds the state tax reference dataset and the pure
// computations built on it: filtering, the risk ranking heuristic, and the
// scenario simulator.
package fiscal

import (
	"errors"
	"sort"
	"strings"

	"github.com/tributolabs/fiscalis/internal/types"
)

// ErrUnknownState is returned for a UF with no profile in the dataset.
var ErrUnknownState = errors.New("fiscal: unknown state")

// brazilStates is the reference dataset of the 27 federative units.
var brazilStates = []types.StateTaxProfile{
	{UF: "AC", Name: "Acre", Region: types.RegionNorte, InternalRate: 19, FCPRate: 2},
	{UF: "AL", Name: "Alagoas", Region: types.RegionNordeste, InternalRate: 19, FCPRate: 2},
	{UF: "AP", Name: "Amapá", Region: types.RegionNorte, InternalRate: 18, FCPRate: 0},
	{UF: "AM", Name: "Amazonas", Region: types.RegionNorte, InternalRate: 20, FCPRate: 2},
	{UF: "BA", Name: "Bahia", Region: types.RegionNordeste, InternalRate: 20.5, FCPRate: 2},
	{UF: "CE", Name: "Ceará", Region: types.RegionNordeste, InternalRate: 20, FCPRate: 2},
	{UF: "DF", Name: "Distrito Federal", Region: types.RegionCentroOeste, InternalRate: 20, FCPRate: 2},
	{UF: "ES", Name: "Espírito Santo", Region: types.RegionSudeste, InternalRate: 17, FCPRate: 0, BenefitFund: true},
	{UF: "GO", Name: "Goiás", Region: types.RegionCentroOeste, InternalRate: 19, FCPRate: 2, BenefitFund: true},
	{UF: "MA", Name: "Maranhão", Region: types.RegionNordeste, InternalRate: 22, FCPRate: 2},
	{UF: "MT", Name: "Mato Grosso", Region: types.RegionCentroOeste, InternalRate: 17, FCPRate: 2, BenefitFund: true},
	{UF: "MS", Name: "Mato Grosso do Sul", Region: types.RegionCentroOeste, InternalRate: 17, FCPRate: 2, BenefitFund: true},
	{UF: "MG", Name: "Minas Gerais", Region: types.RegionSudeste, InternalRate: 18, FCPRate: 2, BenefitFund: true},
	{UF: "PA", Name: "Pará", Region: types.RegionNorte, InternalRate: 19, FCPRate: 0},
	{UF: "PB", Name: "Paraíba", Region: types.RegionNordeste, InternalRate: 20, FCPRate: 2},
	{UF: "PR", Name: "Paraná", Region: types.RegionSul, InternalRate: 19, FCPRate: 2, BenefitFund: true},
	{UF: "PE", Name: "Pernambuco", Region: types.RegionNordeste, InternalRate: 20.5, FCPRate: 2},
	{UF: "PI", Name: "Piauí", Region: types.RegionNordeste, InternalRate: 21, FCPRate: 2},
	{UF: "RJ", Name: "Rio de Janeiro", Region: types.RegionSudeste, InternalRate: 20, FCPRate: 2, BenefitFund: true},
	{UF: "RN", Name: "Rio Grande do Norte", Region: types.RegionNordeste, InternalRate: 18, FCPRate: 2},
	{UF: "RS", Name: "Rio Grande do Sul", Region: types.RegionSul, InternalRate: 17, FCPRate: 2, BenefitFund: true},
	{UF: "RO", Name: "Rondônia", Region: types.RegionNorte, InternalRate: 21, FCPRate: 2},
	{UF: "RR", Name: "Roraima", Region: types.RegionNorte, InternalRate: 20, FCPRate: 2},
	{UF: "SC", Name: "Santa Catarina", Region: types.RegionSul, InternalRate: 17, FCPRate: 0, BenefitFund: true},
	{UF: "SP", Name: "São Paulo", Region: types.RegionSudeste, InternalRate: 18, FCPRate: 2, BenefitFund: true},
	{UF: "SE", Name: "Sergipe", Region: types.RegionNordeste, InternalRate: 19, FCPRate: 2},
	{UF: "TO", Name: "Tocantins", Region: types.RegionNorte, InternalRate: 20, FCPRate: 2},
}

// Filter narrows the state listing.
type Filter struct {
	Search          string
	Region          types.Region
	BenefitFundOnly bool
}

// ListStates returns profiles matching the filter, ordered by name.
func ListStates(f Filter) []types.StateTaxProfile {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]types.StateTaxProfile, 0, len(brazilStates))
	for _, state := range brazilStates {
		if search != "" &&
			!strings.Contains(strings.ToLower(state.Name), search) &&
			!strings.Contains(strings.ToLower(state.UF), search) {
			continue
		}
		if f.Region != "" && state.Region != f.Region {
			continue
		}
		if f.BenefitFundOnly && !state.BenefitFund {
			continue
		}
		out = append(out, state)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// StateByUF looks up a profile by its two-letter code, case-insensitively.
func StateByUF(uf string) (types.StateTaxProfile, error) {
	normalized := strings.ToUpper(strings.TrimSpace(uf))
	for _, state := range brazilStates {
		if state.UF == normalized {
			return state, nil
		}
	}
	return types.StateTaxProfile{}, ErrUnknownState
}
