package http

import (
	"time"

	"github.com/nekogravitycat/trip-orchestrator/internal/candidate"
	"github.com/nekogravitycat/trip-orchestrator/internal/constraint"
	"github.com/nekogravitycat/trip-orchestrator/internal/itinerary"
)

type PlanTripRequest struct {
	Origin      string                      `json:"origin" binding:"required"`
	Destination string                      `json:"destination" binding:"required"`
	StartDate   time.Time                   `json:"start_date" binding:"required"`
	EndDate     time.Time                   `json:"end_date" binding:"required"`
	Guests      int                         `json:"guests"`
	Preferences constraint.PreferencesInput `json:"preferences"`
}

// ToRequest builds the validated preferences. Date and location checks are
// left to the session so every caller gets the same rules.
func (r *PlanTripRequest) ToRequest() (constraint.Request, error) {
	prefs, err := constraint.NewPreferences(r.Preferences)
	if err != nil {
		return constraint.Request{}, err
	}
	return constraint.Request{
		Origin:      r.Origin,
		Destination: r.Destination,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Guests:      r.Guests,
		Preferences: prefs,
	}, nil
}

type CandidateResponse struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	Provider   string   `json:"provider"`
	Name       string   `json:"name"`
	Price      string   `json:"price"`
	Location   string   `json:"location,omitempty"`
	Tags       []string `json:"tags"`
	Score      float64  `json:"score"`
	Matches    []string `json:"matches,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

func NewCandidateResponse(r candidate.Ranked) CandidateResponse {
	return CandidateResponse{
		ID:         r.ID,
		Kind:       string(r.Kind),
		Provider:   r.Provider,
		Name:       r.Name,
		Price:      r.Price.StringFixed(2),
		Location:   r.Location,
		Tags:       r.Tags.Strings(),
		Score:      r.Score,
		Matches:    r.Matches,
		Violations: r.Violations,
	}
}

type ItemResponse struct {
	Key      string            `json:"key"`
	Activity CandidateResponse `json:"activity"`
	Start    time.Time         `json:"start"`
	End      time.Time         `json:"end"`
}

type DayResponse struct {
	Date  string         `json:"date"`
	Items []ItemResponse `json:"items"`
}

type ItineraryResponse struct {
	ID               string                      `json:"id"`
	Origin           string                      `json:"origin"`
	Destination      string                      `json:"destination"`
	StartDate        time.Time                   `json:"start_date"`
	EndDate          time.Time                   `json:"end_date"`
	Guests           int                         `json:"guests"`
	Budget           string                      `json:"budget"`
	Flight           CandidateResponse           `json:"flight"`
	Hotel            *CandidateResponse          `json:"hotel,omitempty"`
	Nights           int                         `json:"nights"`
	Days             []DayResponse               `json:"days"`
	ActivityCount    int                         `json:"activity_count"`
	TotalCost        string                      `json:"total_cost"`
	Complete         bool                        `json:"complete"`
	Narrative        string                      `json:"narrative,omitempty"`
	ProviderFailures []itinerary.ProviderFailure `json:"provider_failures"`
	CreatedAt        time.Time                   `json:"created_at"`
}

func NewItineraryResponse(it *itinerary.Itinerary) ItineraryResponse {
	resp := ItineraryResponse{
		ID:               it.ID,
		Origin:           it.Request.Origin,
		Destination:      it.Request.Destination,
		StartDate:        it.Request.StartDate,
		EndDate:          it.Request.EndDate,
		Guests:           it.Request.PartySize(),
		Flight:           NewCandidateResponse(it.Flight),
		Nights:           it.Nights,
		Days:             make([]DayResponse, len(it.Days)),
		ActivityCount:    it.ActivityCount(),
		TotalCost:        it.TotalCost.StringFixed(2),
		Complete:         it.Complete,
		Narrative:        it.Narrative,
		ProviderFailures: it.ProviderFailures,
		CreatedAt:        it.CreatedAt,
	}
	if it.Request.Preferences != nil {
		resp.Budget = it.Request.Preferences.Budget().StringFixed(2)
	}
	if it.Hotel != nil {
		h := NewCandidateResponse(*it.Hotel)
		resp.Hotel = &h
	}
	if resp.ProviderFailures == nil {
		resp.ProviderFailures = []itinerary.ProviderFailure{}
	}
	for i, d := range it.Days {
		day := DayResponse{Date: d.Date.Format(time.DateOnly), Items: make([]ItemResponse, len(d.Items))}
		for j, item := range d.Items {
			day.Items[j] = ItemResponse{
				Key:      item.Key(),
				Activity: NewCandidateResponse(item.Candidate),
				Start:    item.Start,
				End:      item.End,
			}
		}
		resp.Days[i] = day
	}
	return resp
}
