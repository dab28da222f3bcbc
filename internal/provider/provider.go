// Package provider defines the capabilities the orchestrator consumes from
// external services: searching for candidates, synthesizing a narrative and
// reserving a chosen candidate. Every concrete service is an implementation
// of one of these interfaces; the orchestrator never branches on which one.
package provider

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/trip-orchestrator/internal/candidate"
	"github.com/nekogravitycat/trip-orchestrator/internal/constraint"
)

// Criteria describes one search. Fields that do not apply to Kind are left
// zero and ignored by adapters.
type Criteria struct {
	Kind          candidate.Kind
	Origin        string
	Destination   string
	Start         time.Time
	End           time.Time
	BudgetHint    decimal.Decimal
	Guests        int
	Interests     constraint.TagSet
	Dietary       constraint.TagSet
	Accessibility constraint.TagSet
	Categories    []string
}

func FlightCriteria(req constraint.Request, budgetHint decimal.Decimal) Criteria {
	return Criteria{
		Kind:        candidate.KindFlight,
		Origin:      req.Origin,
		Destination: req.Destination,
		Start:       req.StartDate,
		End:         req.EndDate,
		BudgetHint:  budgetHint,
		Guests:      req.PartySize(),
	}
}

func HotelCriteria(req constraint.Request, budgetHint decimal.Decimal) Criteria {
	return Criteria{
		Kind:          candidate.KindHotel,
		Destination:   req.Destination,
		Start:         req.StartDate,
		End:           req.EndDate,
		BudgetHint:    budgetHint,
		Guests:        req.PartySize(),
		Accessibility: req.Preferences.Accessibility(),
	}
}

func ActivityCriteria(req constraint.Request) Criteria {
	p := req.Preferences
	return Criteria{
		Kind:          candidate.KindActivity,
		Destination:   req.Destination,
		Start:         req.StartDate,
		End:           req.EndDate,
		Guests:        req.PartySize(),
		Interests:     p.Interests(),
		Dietary:       p.Dietary(),
		Accessibility: p.Accessibility(),
		Categories:    constraint.InterestCategories(p.Interests()),
	}
}

// Searcher returns zero or more candidates for the criteria or fails with an
// error that Classify can map to a ProviderError.
type Searcher interface {
	Name() string
	Search(ctx context.Context, c Criteria) ([]candidate.Candidate, error)
}

// SynthesisDay is one planned day as handed to a Synthesizer.
type SynthesisDay struct {
	Date       time.Time
	Activities []string
}

// SynthesisContext is a read-only summary of an assembled itinerary.
type SynthesisContext struct {
	Destination string
	Start       time.Time
	End         time.Time
	Style       constraint.Style
	Interests   []string
	Dietary     []string
	Flight      string
	Hotel       string
	Days        []SynthesisDay
}

// Synthesizer produces advisory narrative text for an itinerary.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, sc SynthesisContext) (string, error)
}

// Reservation is what a provider hands back for a successful reserve call.
// Reference is the provider-side id used to cancel; it may be empty.
type Reservation struct {
	Reference    string
	Confirmation string
}

type Reserver interface {
	Name() string
	Reserve(ctx context.Context, c candidate.Candidate) (Reservation, error)
	Cancel(ctx context.Context, reference string) error
}

// Reservers routes reservations by candidate kind.
type Reservers map[candidate.Kind]Reserver

// For returns the reserver registered for kind.
func (r Reservers) For(kind candidate.Kind) (Reserver, error) {
	res, ok := r[kind]
	if !ok || res == nil {
		return nil, &ProviderError{Provider: "none", Kind: KindUnavailable, Err: errNoReserver(kind)}
	}
	return res, nil
}
