package ai

import (
	"fmt"
	"strings"

	"github.com/tributolabs/fiscalis/internal/types"
)

// systemInstruction frames every provider call. Kept in Portuguese because
// the analysis domain and the expected sources are Brazilian.
const systemInstruction = "Voce e um analista fiscal backend. Responda com objetividade, " +
	"use tabelas quando possivel e cite fontes oficiais do Brasil."

// Prompt builders are deterministic: one template family per query type,
// so the audit trail can always be traced back to its builder.

// StateAnalysisPrompt asks for an ICMS collection analysis of one state.
func StateAnalysisPrompt(state types.StateTaxProfile, fromYear, toYear int) string {
	return strings.Join([]string{
		fmt.Sprintf("Analise a arrecadacao de ICMS de %s (%s) entre %d e %d.", state.Name, state.UF, fromYear, toYear),
		"Inclua FCP/FECOP, base legal, variacao anual e risco de caixa estadual.",
		"Destaque fundos de compensacao por beneficios fiscais e cite fontes oficiais (Siconfi, CONFAZ e SEFAZ).",
	}, " ")
}

// MunicipalAnalysisPrompt asks for an ISS and cota-parte table for one
// municipality.
func MunicipalAnalysisPrompt(city string, state types.StateTaxProfile, fromYear, toYear int) string {
	return strings.Join([]string{
		fmt.Sprintf("Analise o municipio de %s (%s) entre %d e %d.", city, state.UF, fromYear, toYear),
		"Entregue uma tabela com ISS arrecadado e cota-parte de ICMS.",
		"Marque claramente dados parciais de 2024/2025 e cite apenas fontes oficiais.",
	}, " ")
}

// ComparisonPrompt asks for a side-by-side assessment of two states.
func ComparisonPrompt(primary, secondary types.StateTaxProfile, fromYear, toYear int) string {
	return strings.Join([]string{
		fmt.Sprintf("Compare %s (%s) com %s (%s) entre %d e %d.", primary.Name, primary.UF, secondary.Name, secondary.UF, fromYear, toYear),
		"Avalie ICMS, FCP/FECOP, mecanismos compensatorios e impacto potencial na competitividade fiscal.",
		"Retorne com tabela anual e fontes oficiais obrigatorias.",
	}, " ")
}
