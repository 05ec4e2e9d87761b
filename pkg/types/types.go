package types

import (
	"errors"
	"time"
)

// Validation errors
var (
	ErrEmptySpecies   = errors.New("species cannot be empty")
	ErrEmptyName      = errors.New("name cannot be empty")
	ErrEmptyID        = errors.New("id cannot be empty")
	ErrEmptyProducts  = errors.New("product list cannot be empty")
	ErrMissingProfile = errors.New("pet profile is required")
	ErrInvalidScore   = errors.New("score must be between 0 and 100")
)

// ContextKey is the type used for values stored on request contexts.
type ContextKey string

const (
	// ContextKeyUserID carries the caller identity for telemetry.
	ContextKeyUserID ContextKey = "user_id"
	// ContextKeySessionID carries the analysis session id.
	ContextKeySessionID ContextKey = "session_id"
	// ContextKeyRequestSource identifies where a request originated.
	ContextKeyRequestSource ContextKey = "request_source"
)

// PetProfile describes the pet that candidate products are matched against.
// A profile is immutable for the duration of one analysis run.
type PetProfile struct {
	ID              string  `json:"id,omitempty" mapstructure:"id"`
	Name            string  `json:"name,omitempty" mapstructure:"name"`
	Species         string  `json:"species" mapstructure:"species"`
	Breed           string  `json:"breed,omitempty" mapstructure:"breed"`
	AgeMonths       int     `json:"age_months,omitempty" mapstructure:"age_months"`
	WeightKg        float64 `json:"weight_kg,omitempty" mapstructure:"weight_kg"`
	Neutered        bool    `json:"neutered,omitempty" mapstructure:"neutered"`
	ActivityLevel   string  `json:"activity_level,omitempty" mapstructure:"activity_level"`
	HealthStatus    string  `json:"health_status,omitempty" mapstructure:"health_status"`
	Allergies       string  `json:"allergies,omitempty" mapstructure:"allergies"`
	DoctorNotes     string  `json:"doctor_notes,omitempty" mapstructure:"doctor_notes"`
	FoodPreferences string  `json:"food_preferences,omitempty" mapstructure:"food_preferences"`
	BudgetMode      string  `json:"budget_mode,omitempty" mapstructure:"budget_mode"`
	PriceRangeMax   float64 `json:"price_range_max,omitempty" mapstructure:"price_range_max"`

	// Extra carries attributes the core does not interpret. It is passed
	// through to the scoring service untouched.
	Extra map[string]interface{} `json:"extra,omitempty" mapstructure:"extra"`
}

// Validate checks if the PetProfile has all required fields set.
func (p *PetProfile) Validate() error {
	if p.Species == "" {
		return ErrEmptySpecies
	}
	return nil
}

// Product represents one candidate food product to be scored.
// Products are immutable during an analysis run; the input order of a run's
// product list is preserved for anonymous code assignment.
type Product struct {
	ID          string             `json:"id" mapstructure:"id"`
	Brand       string             `json:"brand,omitempty" mapstructure:"brand"`
	Name        string             `json:"name" mapstructure:"name"`
	Species     string             `json:"species,omitempty" mapstructure:"species"`
	LifeStage   string             `json:"life_stage,omitempty" mapstructure:"life_stage"`
	ProductType string             `json:"product_type,omitempty" mapstructure:"product_type"`
	Description string             `json:"description,omitempty" mapstructure:"description"`
	Ingredients []string           `json:"ingredients,omitempty" mapstructure:"ingredients"`
	Additives   []string           `json:"additives,omitempty" mapstructure:"additives"`
	Nutrition   map[string]float64 `json:"nutrition,omitempty" mapstructure:"nutrition"`

	// Price is the unit price. A zero or negative value means the price is
	// unknown; ranking treats unknown prices as more expensive than any
	// known price.
	Price float64 `json:"price,omitempty" mapstructure:"price"`

	// Extra carries attributes the core does not interpret.
	Extra map[string]interface{} `json:"extra,omitempty" mapstructure:"extra"`
}

// Validate checks if the Product has all required fields set.
func (p *Product) Validate() error {
	if p.Name == "" {
		return ErrEmptyName
	}
	return nil
}

// Label returns the human-readable display label for the product.
func (p *Product) Label() string {
	if p.Brand == "" {
		return p.Name
	}
	return p.Brand + " - " + p.Name
}

// HasPrice reports whether the product carries a usable price.
func (p *Product) HasPrice() bool {
	return p.Price > 0
}

// ScoreRecord is the normalized scoring output for one product. Records are
// created once, by the scoring client on success or by the fallback scorer on
// failure, and never mutated afterwards; ranking derives price-adjusted
// fields into copies.
type ScoreRecord struct {
	ProductID   string             `json:"product_id"`
	Brand       string             `json:"brand,omitempty"`
	ProductName string             `json:"product_name"`
	Price       float64            `json:"price,omitempty"`
	Overall     float64            `json:"final_score"`
	Breakdown   map[string]float64 `json:"score_breakdown,omitempty"`
	Rationale   string             `json:"reason,omitempty"`
	Risks       []string           `json:"risks,omitempty"`
	Highlights  []string           `json:"highlights,omitempty"`
	HealthTags  []string           `json:"health_tags,omitempty"`
	HardFail    bool               `json:"hard_fail"`

	// Fallback is true when the record was produced by the fallback scorer
	// because the scoring service was unavailable for this product.
	Fallback bool `json:"fallback,omitempty"`

	// Derived fields, populated only on budget-ranking copies.
	PriceScore  float64 `json:"price_score,omitempty"`
	BudgetScore float64 `json:"budget_score,omitempty"`
}

// Validate checks the record's required fields and score range.
func (r *ScoreRecord) Validate() error {
	if r.ProductID == "" {
		return ErrEmptyID
	}
	if r.Overall < 0 || r.Overall > 100 {
		return ErrInvalidScore
	}
	return nil
}

// ClampOverall forces the overall score into [0, 100].
func (r *ScoreRecord) ClampOverall() {
	if r.Overall < 0 {
		r.Overall = 0
	}
	if r.Overall > 100 {
		r.Overall = 100
	}
}

// Aggregate is the final output of one analysis run. All slices are ordered
// and immutable once produced. Results preserves the submission order of the
// input products; the two rankings are re-sorted views over copies of the
// same records.
//
// BudgetRanking price scores are normalized within this result set only, so
// budget scores are comparable within one run but not across runs.
type Aggregate struct {
	Results          []ScoreRecord     `json:"results"`
	IdealRanking     []ScoreRecord     `json:"ideal_ranking"`
	BudgetRanking    []ScoreRecord     `json:"budget_ranking"`
	AnonymousMapping map[string]string `json:"anonymous_mapping"`
}

// Status is the externally visible state of an analysis session. A polling
// caller only ever observes one of these four values.
type Status string

const (
	// StatusRunning means the session has unfinished scoring tasks.
	StatusRunning Status = "running"
	// StatusCompleted means every product produced a record and the
	// aggregate is available.
	StatusCompleted Status = "completed"
	// StatusFailed means a run-level precondition failed before scoring.
	StatusFailed Status = "failed"
	// StatusNotFound means the session id is unknown or already evicted.
	StatusNotFound Status = "not_found"
)

// Terminal reports whether the status will never change again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ProgressSnapshot is one immutable observation of a session's state.
// Snapshots are published whole; a reader never sees a partially written
// snapshot, and CompletedCount never decreases between successive snapshots
// of the same session.
type ProgressSnapshot struct {
	SessionID       string     `json:"session_id"`
	Status          Status     `json:"status"`
	ProgressPercent int        `json:"progress_percent"`
	CompletedCount  int        `json:"completed_count"`
	TotalCount      int        `json:"total_count"`
	CurrentItem     string     `json:"current_item,omitempty"`
	Message         string     `json:"message,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Aggregate       *Aggregate `json:"aggregate,omitempty"`
}

// AnalysisSession is the persisted form of a finished run.
type AnalysisSession struct {
	ID          string     `json:"id"`
	PetID       string     `json:"pet_id,omitempty"`
	ProductIDs  []string   `json:"product_ids"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Aggregate   *Aggregate `json:"aggregate,omitempty"`
	Message     string     `json:"message,omitempty"`
}
