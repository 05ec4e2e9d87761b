package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/kaptinlin/jsonrepair"

	"github.com/feedwise/feedwise/pkg/config"
	"github.com/feedwise/feedwise/pkg/types"
)

// Scorer scores one product against one pet profile by calling a remote
// scoring service. Implementations must not retry internally and must not
// mutate shared state; recovery from failures belongs to the caller.
type Scorer interface {
	// Score performs a single blocking scoring call. callerID identifies
	// the requesting user for the remote service's bookkeeping.
	Score(ctx context.Context, profile *types.PetProfile, product *types.Product, callerID string) (*types.ScoreRecord, error)

	// Name returns the scorer identifier for logging.
	Name() string
}

// NewScorer creates a scorer for the configured backend.
func NewScorer(cfg config.ScoringConfig) (Scorer, error) {
	switch cfg.Backend {
	case "workflow", "":
		return NewWorkflowClient(cfg), nil
	case "openai":
		return NewOpenAIClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported scoring backend: %s (supported: workflow, openai)", cfg.Backend)
	}
}

// scoreOutput is the inner JSON schema the scoring model answers with.
type scoreOutput struct {
	FinalScore     float64            `json:"final_score"`
	Reason         string             `json:"reason"`
	KeyEvidence    []string           `json:"key_evidence"`
	ScoreBreakdown map[string]float64 `json:"score_breakdown"`
	HardFail       bool               `json:"hard_fail"`
	HealthTags     []string           `json:"health_tags"`
	HitAvoid       []string           `json:"hit_avoid"`
}

// decodeScoreOutput decodes the model's JSON answer into a normalized score
// record. Model output is occasionally truncated or lightly malformed, so
// the payload goes through jsonrepair before decoding.
func decodeScoreOutput(raw string, product *types.Product) (*types.ScoreRecord, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, NewParseError("scoring response body is empty", raw)
	}

	repaired, err := jsonrepair.JSONRepair(trimmed)
	if err != nil {
		repaired = trimmed
	}

	var out scoreOutput
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return nil, NewParseError(fmt.Sprintf("decoding score output: %v", err), raw)
	}

	record := &types.ScoreRecord{
		ProductID:   product.ID,
		Brand:       product.Brand,
		ProductName: product.Name,
		Price:       product.Price,
		Overall:     out.FinalScore,
		Breakdown:   out.ScoreBreakdown,
		Rationale:   out.Reason,
		Risks:       out.HitAvoid,
		Highlights:  out.KeyEvidence,
		HealthTags:  out.HealthTags,
		HardFail:    out.HardFail,
	}
	record.ClampOverall()
	return record, nil
}
