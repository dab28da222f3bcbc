package itinerary

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/trip-orchestrator/internal/candidate"
	"github.com/nekogravitycat/trip-orchestrator/internal/constraint"
	"github.com/nekogravitycat/trip-orchestrator/internal/pkg/apperror"
)

var (
	ErrNoFeasibleFlight = apperror.New(http.StatusUnprocessableEntity, apperror.KindAssembly, "no flight fits the budget")
	ErrNoFeasibleHotel  = apperror.New(http.StatusUnprocessableEntity, apperror.KindAssembly, "no hotel fits the remaining budget")
	ErrBudgetExceeded   = apperror.New(http.StatusUnprocessableEntity, apperror.KindAssembly, "itinerary exceeds the budget")
	ErrNotFound         = apperror.New(http.StatusNotFound, apperror.KindNotFound, "itinerary not found")
)

// Item is one scheduled candidate within a day.
type Item struct {
	Candidate candidate.Ranked `json:"candidate"`
	Start     time.Time        `json:"start"`
	End       time.Time        `json:"end"`
}

// Key identifies the item for booking purposes.
func (it Item) Key() string {
	return fmt.Sprintf("%s:%s:%s", it.Candidate.Kind, it.Candidate.ID, it.Start.Format(time.DateOnly))
}

func (it Item) overlaps(start, end time.Time) bool {
	return start.Before(it.End) && end.After(it.Start)
}

type Day struct {
	Date  time.Time `json:"date"`
	Items []Item    `json:"items"`
}

// ProviderFailure records a provider whose contribution was dropped.
type ProviderFailure struct {
	Provider   string `json:"provider"`
	Capability string `json:"capability"` // flight, hotel, activity or synthesis
	Kind       string `json:"kind"`
	Message    string `json:"message"`
}

type Itinerary struct {
	ID        string             `json:"id"`
	Request   constraint.Request `json:"request"`
	Days      []Day              `json:"days"`
	Flight    candidate.Ranked   `json:"flight"`
	Hotel     *candidate.Ranked  `json:"hotel,omitempty"` // nil when the trip has no nights
	Nights    int                `json:"nights"`
	TotalCost decimal.Decimal    `json:"total_cost"`

	// Complete is false when no activity could be scheduled.
	Complete bool `json:"complete"`

	// Narrative is advisory text from the synthesis provider. It never
	// overrides the selections above.
	Narrative        string            `json:"narrative,omitempty"`
	ProviderFailures []ProviderFailure `json:"provider_failures,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// ActivityCount returns the number of scheduled activity items.
func (it *Itinerary) ActivityCount() int {
	n := 0
	for _, d := range it.Days {
		n += len(d.Items)
	}
	return n
}

// Reservable is one item of the itinerary that can be booked.
type Reservable struct {
	Key       string
	Candidate candidate.Candidate
}

// Reservables lists flight, hotel and every scheduled activity.
func (it *Itinerary) Reservables() []Reservable {
	out := []Reservable{{
		Key:       fmt.Sprintf("%s:%s", candidate.KindFlight, it.Flight.ID),
		Candidate: it.Flight.Candidate,
	}}
	if it.Hotel != nil {
		out = append(out, Reservable{
			Key:       fmt.Sprintf("%s:%s", candidate.KindHotel, it.Hotel.ID),
			Candidate: it.Hotel.Candidate,
		})
	}
	for _, d := range it.Days {
		for _, item := range d.Items {
			out = append(out, Reservable{Key: item.Key(), Candidate: item.Candidate.Candidate})
		}
	}
	return out
}
