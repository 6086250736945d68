package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tributolabs/fiscalis/internal/ai"
	"github.com/tributolabs/fiscalis/internal/audit"
	"github.com/tributolabs/fiscalis/internal/auth"
	"github.com/tributolabs/fiscalis/internal/fiscal"
	"github.com/tributolabs/fiscalis/internal/querylog"
	"github.com/tributolabs/fiscalis/internal/types"
	"github.com/tributolabs/fiscalis/internal/validation"

	"github.com/go-chi/chi/v5"
)

// Default and ceiling for history listing limits.
const (
	defaultQueryLimit = 30
	maxQueryLimit     = 200
)

// Default reference years applied when a request omits them.
const (
	defaultFromYear = 2018
	defaultToYear   = 2025
)

// Handler implements the API handlers.
type Handler struct {
	auth        *auth.Service
	tokens      *auth.TokenManager
	queries     *querylog.Service
	recorder    *audit.Recorder
	gateway     *ai.Gateway
	metrics     *Metrics
	environment string
	version     string
	started     time.Time
}

// NewHandler wires the API surface over the domain services.
func NewHandler(
	authSvc *auth.Service,
	tokens *auth.TokenManager,
	queries *querylog.Service,
	recorder *audit.Recorder,
	gateway *ai.Gateway,
	metrics *Metrics,
	environment, version string,
) *Handler {
	return &Handler{
		auth:        authSvc,
		tokens:      tokens,
		queries:     queries,
		recorder:    recorder,
		gateway:     gateway,
		metrics:     metrics,
		environment: environment,
		version:     version,
		started:     time.Now(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Health returns the liveness payload. Public: no auth, no audit entry.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.HealthResponse{
		Service:       "fiscalis",
		Status:        "healthy",
		Environment:   h.environment,
		Version:       h.version,
		UptimeSeconds: time.Since(h.started).Seconds(),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var c validation.Collector
	c.Add(validation.ValidateEmail("email", req.Email))
	c.Add(validation.ValidatePassword("password", req.Password))
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims := MustClaimsFromContext(r.Context())

	user, err := h.auth.GetUser(r.Context(), claims.Subject)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type statesResponse struct {
	States []types.StateTaxProfile `json:"states"`
	Total  int                     `json:"total"`
}

// States handles GET /api/v1/states with optional search, region, and
// benefitFund filters.
func (h *Handler) States(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	region := types.Region(q.Get("region"))
	if region != "" && !region.Valid() {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Unknown region %q", region))
		return
	}

	states := fiscal.ListStates(fiscal.Filter{
		Search:          q.Get("search"),
		Region:          region,
		BenefitFundOnly: q.Get("benefitFund") == "true",
	})
	writeJSON(w, http.StatusOK, statesResponse{States: states, Total: len(states)})
}

// StateByUF handles GET /api/v1/states/{uf}.
func (h *Handler) StateByUF(w http.ResponseWriter, r *http.Request) {
	uf := validation.NormalizeUF(chi.URLParam(r, "uf"))
	if err := validation.ValidateUF("uf", uf); err != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{*err})
		return
	}

	state, err := fiscal.StateByUF(uf)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type rankingResponse struct {
	Ranking []types.RankedState `json:"ranking"`
}

// RiskRanking handles GET /api/v1/insights/risk-ranking.
func (h *Handler) RiskRanking(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"), 10, 27)
	writeJSON(w, http.StatusOK, rankingResponse{Ranking: fiscal.RiskRanking(limit)})
}

type scenarioRequest struct {
	BaseRevenue float64 `json:"baseRevenue"`
	ICMSRate    float64 `json:"icmsRate"`
	FCPRate     float64 `json:"fcpRate"`
	DeltaICMS   float64 `json:"deltaIcms"`
	DeltaFCP    float64 `json:"deltaFcp"`
}

// Simulate handles POST /api/v1/scenarios/simulate. The simulation itself
// cannot fail, but it is still audited like every analytical operation.
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req scenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var c validation.Collector
	c.Add(validation.ValidateBaseRevenue("baseRevenue", req.BaseRevenue))
	c.Add(validation.ValidateICMSRate("icmsRate", req.ICMSRate))
	c.Add(validation.ValidateFCPRate("fcpRate", req.FCPRate))
	c.Add(validation.ValidateRateDelta("deltaIcms", req.DeltaICMS))
	c.Add(validation.ValidateRateDelta("deltaFcp", req.DeltaFCP))
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}

	claims := MustClaimsFromContext(r.Context())
	result, err := audit.Record(r.Context(), h.recorder, audit.Request{
		UserID:    claims.Subject,
		QueryType: types.QueryScenarioSimulation,
		Prompt:    fmt.Sprintf("simulate scenario with icms %g and fcp %g", req.ICMSRate, req.FCPRate),
		Metadata:  map[string]any{"baseRevenue": req.BaseRevenue},
	}, func(ctx context.Context) (types.ScenarioResult, error) {
		return fiscal.Simulate(types.ScenarioInput{
			BaseRevenue: req.BaseRevenue,
			ICMSRate:    req.ICMSRate,
			FCPRate:     req.FCPRate,
			DeltaICMS:   req.DeltaICMS,
			DeltaFCP:    req.DeltaFCP,
		}), nil
	})
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type stateAnalysisRequest struct {
	UF       string `json:"uf"`
	FromYear int    `json:"fromYear"`
	ToYear   int    `json:"toYear"`
}

// AnalyzeState handles POST /api/v1/analysis/state.
func (h *Handler) AnalyzeState(w http.ResponseWriter, r *http.Request) {
	var req stateAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	req.UF = validation.NormalizeUF(req.UF)
	applyYearDefaults(&req.FromYear, &req.ToYear)

	var c validation.Collector
	c.Add(validation.ValidateUF("uf", req.UF))
	c.Add(validation.ValidateYear("fromYear", req.FromYear))
	c.Add(validation.ValidateYear("toYear", req.ToYear))
	c.Add(validation.ValidateYearOrder("fromYear", req.FromYear, req.ToYear))
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}

	claims := MustClaimsFromContext(r.Context())
	result, err := audit.Record(r.Context(), h.recorder, audit.Request{
		UserID:    claims.Subject,
		QueryType: types.QueryStateAnalysis,
		Prompt:    fmt.Sprintf("state-analysis:%s:%d-%d", req.UF, req.FromYear, req.ToYear),
		Metadata:  map[string]any{"uf": req.UF, "fromYear": req.FromYear, "toYear": req.ToYear},
	}, func(ctx context.Context) (types.AskAiResult, error) {
		state, err := fiscal.StateByUF(req.UF)
		if err != nil {
			return types.AskAiResult{}, err
		}
		return h.gateway.AnalyzeState(ctx, state, req.FromYear, req.ToYear), nil
	})
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type municipalAnalysisRequest struct {
	City     string `json:"city"`
	UF       string `json:"uf"`
	FromYear int    `json:"fromYear"`
	ToYear   int    `json:"toYear"`
}

// AnalyzeMunicipality handles POST /api/v1/analysis/municipal.
func (h *Handler) AnalyzeMunicipality(w http.ResponseWriter, r *http.Request) {
	var req municipalAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	req.UF = validation.NormalizeUF(req.UF)
	applyYearDefaults(&req.FromYear, &req.ToYear)

	var c validation.Collector
	c.Add(validation.ValidateCity("city", req.City))
	c.Add(validation.ValidateUF("uf", req.UF))
	c.Add(validation.ValidateYear("fromYear", req.FromYear))
	c.Add(validation.ValidateYear("toYear", req.ToYear))
	c.Add(validation.ValidateYearOrder("fromYear", req.FromYear, req.ToYear))
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}

	claims := MustClaimsFromContext(r.Context())
	result, err := audit.Record(r.Context(), h.recorder, audit.Request{
		UserID:    claims.Subject,
		QueryType: types.QueryMunicipalAnalysis,
		Prompt:    fmt.Sprintf("municipal-analysis:%s:%s:%d-%d", req.City, req.UF, req.FromYear, req.ToYear),
		Metadata:  map[string]any{"city": req.City, "uf": req.UF},
	}, func(ctx context.Context) (types.AskAiResult, error) {
		state, err := fiscal.StateByUF(req.UF)
		if err != nil {
			return types.AskAiResult{}, err
		}
		return h.gateway.AnalyzeMunicipality(ctx, req.City, state, req.FromYear, req.ToYear), nil
	})
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type comparisonRequest struct {
	PrimaryUF   string `json:"primaryUf"`
	SecondaryUF string `json:"secondaryUf"`
	FromYear    int    `json:"fromYear"`
	ToYear      int    `json:"toYear"`
}

// Compare handles POST /api/v1/analysis/compare.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	var req comparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	req.PrimaryUF = validation.NormalizeUF(req.PrimaryUF)
	req.SecondaryUF = validation.NormalizeUF(req.SecondaryUF)
	applyYearDefaults(&req.FromYear, &req.ToYear)

	var c validation.Collector
	c.Add(validation.ValidateUF("primaryUf", req.PrimaryUF))
	c.Add(validation.ValidateUF("secondaryUf", req.SecondaryUF))
	c.Add(validation.ValidateYear("fromYear", req.FromYear))
	c.Add(validation.ValidateYear("toYear", req.ToYear))
	c.Add(validation.ValidateYearOrder("fromYear", req.FromYear, req.ToYear))
	if req.PrimaryUF == req.SecondaryUF {
		c.Add(&validation.ValidationError{Field: "secondaryUf", Message: "must differ from primaryUf"})
	}
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}

	claims := MustClaimsFromContext(r.Context())
	result, err := audit.Record(r.Context(), h.recorder, audit.Request{
		UserID:    claims.Subject,
		QueryType: types.QueryComparisonAnalysis,
		Prompt:    fmt.Sprintf("comparison-analysis:%s-%s:%d-%d", req.PrimaryUF, req.SecondaryUF, req.FromYear, req.ToYear),
		Metadata:  map[string]any{"primaryUf": req.PrimaryUF, "secondaryUf": req.SecondaryUF},
	}, func(ctx context.Context) (types.AskAiResult, error) {
		primary, err := fiscal.StateByUF(req.PrimaryUF)
		if err != nil {
			return types.AskAiResult{}, err
		}
		secondary, err := fiscal.StateByUF(req.SecondaryUF)
		if err != nil {
			return types.AskAiResult{}, err
		}
		return h.gateway.Compare(ctx, primary, secondary, req.FromYear, req.ToYear), nil
	})
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type chatRequest struct {
	Prompt string `json:"prompt"`
}

// Chat handles POST /api/v1/analysis/chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if err := validation.ValidatePrompt("prompt", req.Prompt); err != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{*err})
		return
	}

	claims := MustClaimsFromContext(r.Context())
	result, err := audit.Record(r.Context(), h.recorder, audit.Request{
		UserID:    claims.Subject,
		QueryType: types.QueryFreeChat,
		Prompt:    req.Prompt,
	}, func(ctx context.Context) (types.AskAiResult, error) {
		return h.gateway.FreeChat(ctx, req.Prompt), nil
	})
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type queriesResponse struct {
	Queries []types.QueryLog `json:"queries"`
	Total   int              `json:"total"`
}

// ListQueries handles GET /api/v1/queries. scope=global widens the listing
// to all users and is admin-only.
func (h *Handler) ListQueries(w http.ResponseWriter, r *http.Request) {
	claims := MustClaimsFromContext(r.Context())
	limit := parseLimit(r.URL.Query().Get("limit"), defaultQueryLimit, maxQueryLimit)

	var (
		logs []types.QueryLog
		err  error
	)
	if r.URL.Query().Get("scope") == "global" {
		if claims.Role != types.RoleAdmin {
			WriteProblem(w, r, http.StatusForbidden, "Global history requires the admin role")
			return
		}
		logs, err = h.queries.ListGlobalHistory(r.Context(), limit)
	} else {
		logs, err = h.queries.ListUserHistory(r.Context(), claims.Subject, limit)
	}
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queriesResponse{Queries: logs, Total: len(logs)})
}

// DeleteQuery handles DELETE /api/v1/queries/{id}. Only the owner can
// remove an entry; a foreign id looks identical to a missing one.
func (h *Handler) DeleteQuery(w http.ResponseWriter, r *http.Request) {
	claims := MustClaimsFromContext(r.Context())
	id := chi.URLParam(r, "id")

	removed, err := h.queries.DeleteUserHistoryItem(r.Context(), id, claims.Subject)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	if !removed {
		WriteProblem(w, r, http.StatusNotFound, "History item not found for this user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MetricsEndpoint handles GET /api/v1/metrics. Admin-only.
func (h *Handler) MetricsEndpoint(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.metrics.Snapshot())
}

func applyYearDefaults(from, to *int) {
	if *from == 0 {
		*from = defaultFromYear
	}
	if *to == 0 {
		*to = defaultToYear
	}
}

// parseLimit clamps a query-string limit to (0, max], falling back to def
// when absent or unparsable.
func parseLimit(raw string, def, max int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
