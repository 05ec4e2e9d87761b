package feedwise

import (
	"github.com/feedwise/feedwise/pkg/types"
)

// NeutralScore is the overall score assigned when the scoring service is
// unavailable for a product. It sits deliberately in the middle of the
// usable range so fallback records neither win nor sink a ranking.
const NeutralScore = 70.0

// Neutral sub-scores used in fallback breakdowns.
const (
	neutralSafetyScore  = 80.0
	neutralFitScore     = 70.0
	neutralProteinScore = 75.0
)

// FallbackScorer produces a deterministic substitute record for a product
// when the remote scoring call fails or times out. It is a pure function of
// the product's known fields and never fails, which guarantees that every
// analysis run yields exactly one record per input product.
type FallbackScorer struct {
	// Neutral overrides NeutralScore when positive.
	Neutral float64
}

// DefaultRecord builds the fallback record for a product.
func (f *FallbackScorer) DefaultRecord(product *types.Product) *types.ScoreRecord {
	overall := NeutralScore
	if f != nil && f.Neutral > 0 {
		overall = f.Neutral
	}

	return &types.ScoreRecord{
		ProductID:   product.ID,
		Brand:       product.Brand,
		ProductName: product.Name,
		Price:       product.Price,
		Overall:     overall,
		Breakdown: map[string]float64{
			"safety_score":          neutralSafetyScore,
			"macro_fit_score":       neutralFitScore,
			"protein_quality_score": neutralProteinScore,
			"value_score":           valueScoreForPrice(product),
		},
		Rationale:  "Scoring service temporarily unavailable; a neutral default score was applied.",
		Highlights: []string{"Product information complete"},
		Risks:      []string{},
		HardFail:   false,
		Fallback:   true,
	}
}

// valueScoreForPrice is a coarse value-for-money band derived from the unit
// price alone, used only in fallback breakdowns.
func valueScoreForPrice(product *types.Product) float64 {
	if !product.HasPrice() {
		return 70.0
	}
	switch {
	case product.Price < 30:
		return 95.0
	case product.Price < 60:
		return 85.0
	case product.Price < 100:
		return 70.0
	default:
		return 50.0
	}
}
