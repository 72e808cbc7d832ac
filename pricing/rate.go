package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// RateTier is a weight bracket with a per-kilogram rate. A nil bound is open.
type RateTier struct {
	MinWeight *decimal.Decimal `json:"min_weight" yaml:"min_weight"`
	MaxWeight *decimal.Decimal `json:"max_weight" yaml:"max_weight"`
	Rate      decimal.Decimal  `json:"rate" yaml:"rate"`
}

func (t RateTier) contains(weight decimal.Decimal) bool {
	if t.MinWeight != nil && weight.LessThan(*t.MinWeight) {
		return false
	}
	if t.MaxWeight != nil && weight.GreaterThan(*t.MaxWeight) {
		return false
	}
	return true
}

func (t RateTier) startsAtOrBelow(weight decimal.Decimal) bool {
	return t.MinWeight == nil || t.MinWeight.LessThanOrEqual(weight)
}

// SortTiers returns a copy of tiers ordered by minimum weight, open minimums first.
func SortTiers(tiers []RateTier) []RateTier {
	sorted := make([]RateTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].MinWeight, sorted[j].MinWeight
		if a == nil {
			return b != nil
		}
		if b == nil {
			return false
		}
		return a.LessThan(*b)
	})
	return sorted
}

// ApplicableRate finds the rate for a chargeable weight.
//
// The first bracket containing the weight wins. A weight that falls outside every
// bracket takes the highest bracket starting at or below it, or the lowest bracket
// when it is below them all. No brackets means a zero rate.
func ApplicableRate(weight decimal.Decimal, tiers []RateTier) decimal.Decimal {
	if len(tiers) == 0 {
		return decimal.Zero
	}
	sorted := SortTiers(tiers)
	for _, t := range sorted {
		if t.contains(weight) {
			return t.Rate
		}
	}
	fallback := sorted[0]
	for _, t := range sorted {
		if t.startsAtOrBelow(weight) {
			fallback = t
		}
	}
	return fallback.Rate
}

// Overlaps reports whether two brackets share a range of weights.
// Brackets that only touch at a boundary (0-45, 45-100) do not overlap.
func Overlaps(a, b RateTier) bool {
	if a.MaxWeight != nil && b.MinWeight != nil && a.MaxWeight.LessThanOrEqual(*b.MinWeight) {
		return false
	}
	if b.MaxWeight != nil && a.MinWeight != nil && b.MaxWeight.LessThanOrEqual(*a.MinWeight) {
		return false
	}
	return true
}
