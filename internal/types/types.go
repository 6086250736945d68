package types

import "time"

// Role controls which API surfaces a user may reach.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleAnalyst Role = "analyst"
	RoleViewer  Role = "viewer"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAnalyst, RoleViewer:
		return true
	}
	return false
}

// User is an identity record. Created once during seeding, never mutated.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"passwordHash"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PublicUser is the API-facing view of a User, without the password hash.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips credentials from a User for API responses.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// QueryType identifies which prompt template family produced a query.
type QueryType string

const (
	QueryStateAnalysis      QueryType = "state-analysis"
	QueryMunicipalAnalysis  QueryType = "municipal-analysis"
	QueryComparisonAnalysis QueryType = "comparison-analysis"
	QueryFreeChat           QueryType = "free-chat"
	QueryScenarioSimulation QueryType = "scenario-simulation"
)

// QueryStatus records whether an audited operation succeeded.
type QueryStatus string

const (
	StatusSuccess QueryStatus = "success"
	StatusError   QueryStatus = "error"
)

// QueryLog is an immutable audit record of a single analytical invocation.
type QueryLog struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	QueryType QueryType      `json:"queryType"`
	Prompt    string         `json:"prompt"`
	Status    QueryStatus    `json:"status"`
	LatencyMs int64          `json:"latencyMs"`
	CreatedAt time.Time      `json:"createdAt"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Clone returns a deep copy, including the metadata map.
func (q QueryLog) Clone() QueryLog {
	out := q
	if q.Metadata != nil {
		out.Metadata = make(map[string]any, len(q.Metadata))
		for k, v := range q.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Source is a single cited reference returned alongside an AI answer.
type Source struct {
	Title   string `json:"title"`
	URI     string `json:"uri"`
	Snippet string `json:"snippet,omitempty"`
}

// AskAiResult is the transient outcome of one AI gateway invocation.
// Only its derived QueryLog is persisted.
type AskAiResult struct {
	Provider string   `json:"provider"`
	Response string   `json:"response"`
	Prompt   string   `json:"prompt"`
	Sources  []Source `json:"sources"`
}

// Clone returns a deep copy so cached results stay isolated from callers.
func (r AskAiResult) Clone() AskAiResult {
	out := r
	if r.Sources != nil {
		out.Sources = make([]Source, len(r.Sources))
		copy(out.Sources, r.Sources)
	}
	return out
}

// Region is one of the five Brazilian macro-regions.
type Region string

const (
	RegionNorte       Region = "Norte"
	RegionNordeste    Region = "Nordeste"
	RegionCentroOeste Region = "Centro-Oeste"
	RegionSudeste     Region = "Sudeste"
	RegionSul         Region = "Sul"
)

// Valid reports whether the region is one of the known values.
func (r Region) Valid() bool {
	switch r {
	case RegionNorte, RegionNordeste, RegionCentroOeste, RegionSudeste, RegionSul:
		return true
	}
	return false
}

// StateTaxProfile is the reference tax posture of one state.
type StateTaxProfile struct {
	UF           string  `json:"uf"`
	Name         string  `json:"name"`
	Region       Region  `json:"region"`
	InternalRate float64 `json:"internalRate"`
	FCPRate      float64 `json:"fcpRate"`
	BenefitFund  bool    `json:"benefitFund"`
}

// RankedState is a StateTaxProfile annotated with the legacy risk heuristic.
type RankedState struct {
	StateTaxProfile
	RiskScore float64 `json:"riskScore"`
	RiskLevel string  `json:"riskLevel"`
}

// ScenarioInput is the validated input to the scenario simulator.
type ScenarioInput struct {
	BaseRevenue float64 `json:"baseRevenue"`
	ICMSRate    float64 `json:"icmsRate"`
	FCPRate     float64 `json:"fcpRate"`
	DeltaICMS   float64 `json:"deltaIcms"`
	DeltaFCP    float64 `json:"deltaFcp"`
}

// ScenarioResult holds the projected effect of a rate change, all values
// rounded to two decimal places.
type ScenarioResult struct {
	CurrentEffectiveRate   float64 `json:"currentEffectiveRate"`
	ProjectedEffectiveRate float64 `json:"projectedEffectiveRate"`
	VariationPercent       float64 `json:"variationPercent"`
	ProjectedRevenue       float64 `json:"projectedRevenue"`
	DeltaRevenue           float64 `json:"deltaRevenue"`
}

// Document is the single persisted store document.
type Document struct {
	Users     []User     `json:"users"`
	QueryLogs []QueryLog `json:"queryLogs"`
}

// Clone returns a deep, independent copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{
		Users:     make([]User, len(d.Users)),
		QueryLogs: make([]QueryLog, 0, len(d.QueryLogs)),
	}
	copy(out.Users, d.Users)
	for _, q := range d.QueryLogs {
		out.QueryLogs = append(out.QueryLogs, q.Clone())
	}
	return out
}

// HealthResponse is the liveness probe payload.
type HealthResponse struct {
	Service       string  `json:"service"`
	Status        string  `json:"status"`
	Environment   string  `json:"environment"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}
