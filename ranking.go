package feedwise

import (
	"math"
	"sort"

	"github.com/feedwise/feedwise/pkg/types"
)

// Budget ranking weights. The composite rewards quality first and price
// second; both are named so they can be tuned and tested independently.
const (
	DefaultScoreWeight = 0.7
	DefaultPriceWeight = 0.3
)

// equalPriceScore is the neutral price score used when every record in the
// set has the same price. A degenerate set should neither reward nor punish
// anyone.
const equalPriceScore = 50.0

// unknownPriceSentinel stands in for a missing price in budget tie-breaks.
// It is a large representable value rather than an infinity so it survives
// serialization.
const unknownPriceSentinel = 999999.0

// Ranker computes the two ranked views over one run's score records.
// Both rankings operate on copies; the input records are never mutated.
type Ranker struct {
	// ScoreWeight and PriceWeight override the defaults when both are
	// positive.
	ScoreWeight float64
	PriceWeight float64
}

// Rank returns the ideal (pure quality) and budget (price-weighted)
// rankings for the given records.
//
// The budget ranking's price scores are normalized within this record set
// only: the cheapest product scores 100, the dearest 0. Budget scores are
// therefore comparable within one run but not across runs.
func (r *Ranker) Rank(records []types.ScoreRecord) (ideal, budget []types.ScoreRecord) {
	return r.IdealRanking(records), r.BudgetRanking(records)
}

// IdealRanking sorts by overall score descending. Ties break by price
// ascending, treating an unknown price as more expensive than any known
// one; records tied on both keep their submission order.
func (r *Ranker) IdealRanking(records []types.ScoreRecord) []types.ScoreRecord {
	ranked := make([]types.ScoreRecord, len(records))
	copy(ranked, records)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Overall != ranked[j].Overall {
			return ranked[i].Overall > ranked[j].Overall
		}
		return orderingPrice(&ranked[i]) < orderingPrice(&ranked[j])
	})
	return ranked
}

// BudgetRanking derives a price-weighted composite for each record and sorts
// by it descending, tie-breaking by price ascending with unknown prices
// last.
func (r *Ranker) BudgetRanking(records []types.ScoreRecord) []types.ScoreRecord {
	scoreWeight, priceWeight := r.weights()

	ranked := make([]types.ScoreRecord, len(records))
	copy(ranked, records)

	minPrice, maxPrice, havePrices := priceRange(ranked)

	for i := range ranked {
		priceScore := equalPriceScore
		if havePrices && maxPrice > minPrice {
			if ranked[i].Price > 0 {
				priceScore = (maxPrice - ranked[i].Price) / (maxPrice - minPrice) * 100.0
			} else {
				// Unknown price cannot claim a bargain.
				priceScore = 0
			}
		}
		ranked[i].PriceScore = round1(priceScore)
		ranked[i].BudgetScore = round1(scoreWeight*ranked[i].Overall + priceWeight*ranked[i].PriceScore)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].BudgetScore != ranked[j].BudgetScore {
			return ranked[i].BudgetScore > ranked[j].BudgetScore
		}
		return tieBreakPrice(&ranked[i]) < tieBreakPrice(&ranked[j])
	})
	return ranked
}

func (r *Ranker) weights() (float64, float64) {
	if r != nil && r.ScoreWeight > 0 && r.PriceWeight > 0 {
		return r.ScoreWeight, r.PriceWeight
	}
	return DefaultScoreWeight, DefaultPriceWeight
}

// priceRange returns the min and max known prices in the set.
func priceRange(records []types.ScoreRecord) (minPrice, maxPrice float64, ok bool) {
	for _, rec := range records {
		if rec.Price <= 0 {
			continue
		}
		if !ok {
			minPrice, maxPrice = rec.Price, rec.Price
			ok = true
			continue
		}
		if rec.Price < minPrice {
			minPrice = rec.Price
		}
		if rec.Price > maxPrice {
			maxPrice = rec.Price
		}
	}
	return minPrice, maxPrice, ok
}

// orderingPrice treats a missing price as +Inf so priceless records sort
// last among score ties in the ideal ranking.
func orderingPrice(rec *types.ScoreRecord) float64 {
	if rec.Price <= 0 {
		return math.Inf(1)
	}
	return rec.Price
}

// tieBreakPrice is the budget-ranking tie-break key; unknown prices use a
// large representable sentinel.
func tieBreakPrice(rec *types.ScoreRecord) float64 {
	if rec.Price <= 0 {
		return unknownPriceSentinel
	}
	return rec.Price
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
