// Package ranker filters and orders provider candidates against a traveler's
// preferences.
//
// Hard filters drop a candidate outright: a price above the category limit,
// missing accessibility features on hotels and activities, and dietary
// conflicts on food activities. Everything that survives is scored: one point
// per matching interest and StyleBonus when the candidate sits in the price
// tercile the travel style prefers. Output order is fully deterministic:
// score descending, then price ascending, then id ascending.
package ranker

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/trip-orchestrator/internal/candidate"
	"github.com/nekogravitycat/trip-orchestrator/internal/constraint"
)

// StyleBonus is added when a candidate's price tercile matches the style.
const StyleBonus = 0.5

type options struct {
	limit  *decimal.Decimal
	nights int
}

type Option func(*options)

// WithLimit caps the effective price of any candidate. Defaults to the full budget.
func WithLimit(limit decimal.Decimal) Option {
	return func(o *options) { o.limit = &limit }
}

// WithNights sets the stay length used to price hotels. Defaults to one night.
func WithNights(n int) Option {
	return func(o *options) { o.nights = n }
}

type tercile int

const (
	lowTercile tercile = iota
	midTercile
	highTercile
)

var styleTercile = map[constraint.Style]tercile{
	constraint.StyleBudget:   lowTercile,
	constraint.StyleMidRange: midTercile,
	constraint.StyleLuxury:   highTercile,
}

// Rank returns the candidates that pass every hard filter, best first.
// Identical inputs always produce identical output.
func Rank(cands []candidate.Candidate, prefs *constraint.Preferences, opts ...Option) []candidate.Ranked {
	o := options{nights: 1}
	for _, fn := range opts {
		fn(&o)
	}
	limit := prefs.Budget()
	if o.limit != nil {
		limit = *o.limit
	}

	eligible := make([]candidate.Candidate, 0, len(cands))
	for _, c := range cands {
		if passesHardFilters(c, prefs, limit, o.nights) {
			eligible = append(eligible, c)
		}
	}

	terciles := priceTerciles(eligible, o.nights)
	want := styleTercile[prefs.Style()]

	ranked := make([]candidate.Ranked, 0, len(eligible))
	for i, c := range eligible {
		r := candidate.Ranked{Candidate: c}

		for _, t := range c.Tags.Intersect(prefs.Interests()) {
			r.Score++
			r.Matches = append(r.Matches, "interest:"+string(t))
		}

		if terciles[i] == want {
			r.Score += StyleBonus
			r.Matches = append(r.Matches, "style:"+string(prefs.Style()))
		} else {
			r.Violations = append(r.Violations, fmt.Sprintf("style:price-tercile-%d", terciles[i]+1))
		}

		if c.Kind == candidate.KindHotel {
			if v := hotelBandViolation(prefs.Style(), c.Price); v != "" {
				r.Violations = append(r.Violations, v)
			}
		}
		ranked = append(ranked, r)
	}

	slices.SortFunc(ranked, func(a, b candidate.Ranked) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := a.EffectivePrice(o.nights).Cmp(b.EffectivePrice(o.nights)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return ranked
}

func passesHardFilters(c candidate.Candidate, prefs *constraint.Preferences, limit decimal.Decimal, nights int) bool {
	if c.EffectivePrice(nights).GreaterThan(limit) {
		return false
	}
	if needs := prefs.Accessibility(); !needs.IsEmpty() &&
		(c.Kind == candidate.KindHotel || c.Kind == candidate.KindActivity) &&
		!c.Tags.ContainsAll(needs) {
		return false
	}
	if c.Kind == candidate.KindActivity && constraint.IsFoodRelated(c.Tags) &&
		len(constraint.DietaryConflicts(prefs.Dietary(), c.Tags)) > 0 {
		return false
	}
	return true
}

// priceTerciles assigns each candidate, by index, to a price tercile of the
// set. Equal prices always land in the same tercile.
func priceTerciles(cands []candidate.Candidate, nights int) []tercile {
	n := len(cands)
	out := make([]tercile, n)
	if n == 0 {
		return out
	}

	prices := make([]decimal.Decimal, n)
	for i, c := range cands {
		prices[i] = c.EffectivePrice(nights)
	}
	sorted := slices.Clone(prices)
	slices.SortFunc(sorted, func(a, b decimal.Decimal) int { return a.Cmp(b) })

	for i, p := range prices {
		pos, _ := slices.BinarySearchFunc(sorted, p, func(e, t decimal.Decimal) int { return e.Cmp(t) })
		out[i] = tercile(pos * 3 / n)
	}
	return out
}

var (
	luxuryFloor = decimal.NewFromInt(200)
	budgetCeil  = decimal.NewFromInt(300)
	midFloor    = decimal.NewFromInt(100)
	midCeil     = decimal.NewFromInt(500)
)

// hotelBandViolation flags nightly rates far outside what the style expects.
func hotelBandViolation(style constraint.Style, nightly decimal.Decimal) string {
	switch style {
	case constraint.StyleLuxury:
		if nightly.LessThan(luxuryFloor) {
			return "style-band:below-luxury"
		}
	case constraint.StyleBudget:
		if nightly.GreaterThan(budgetCeil) {
			return "style-band:above-budget"
		}
	case constraint.StyleMidRange:
		if nightly.LessThan(midFloor) || nightly.GreaterThan(midCeil) {
			return "style-band:outside-mid-range"
		}
	}
	return ""
}
