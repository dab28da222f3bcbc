package http

import (
	"encoding/json"
	"time"

	"github.com/nekogravitycat/trip-orchestrator/internal/booking"
)

type BookingResponse struct {
	ID             string          `json:"id"`
	ItineraryID    string          `json:"itinerary_id"`
	ItemKey        string          `json:"item_key"`
	Type           string          `json:"type"`
	CandidateID    string          `json:"candidate_id"`
	Provider       string          `json:"provider"`
	Status         string          `json:"status"`
	Reference      string          `json:"reference,omitempty"`
	Confirmation   string          `json:"confirmation,omitempty"`
	FailureKind    string          `json:"failure_kind,omitempty"`
	FailureMessage string          `json:"failure_message,omitempty"`
	Details        json.RawMessage `json:"details,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:             b.ID,
		ItineraryID:    b.ItineraryID,
		ItemKey:        b.ItemKey,
		Type:           string(b.Type),
		CandidateID:    b.CandidateID,
		Provider:       b.Provider,
		Status:         string(b.Status),
		Reference:      b.Reference,
		Confirmation:   b.Confirmation,
		FailureKind:    b.FailureKind,
		FailureMessage: b.FailureMessage,
		Details:        b.Details,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func NewBookingList(list []*booking.Booking) []BookingResponse {
	items := make([]BookingResponse, len(list))
	for i, b := range list {
		items[i] = NewBookingResponse(b)
	}
	return items
}

// ResultResponse is the outcome of booking a whole itinerary.
type ResultResponse struct {
	ItineraryID string            `json:"itinerary_id"`
	Overall     string            `json:"overall"`
	Cancelled   bool              `json:"cancelled"`
	Bookings    []BookingResponse `json:"bookings"`
}

func NewResultResponse(r *booking.Result) ResultResponse {
	return ResultResponse{
		ItineraryID: r.ItineraryID,
		Overall:     string(r.Overall),
		Cancelled:   r.Cancelled,
		Bookings:    NewBookingList(r.Bookings),
	}
}
