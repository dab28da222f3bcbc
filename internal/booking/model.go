package booking

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/trip-orchestrator/internal/candidate"
	"github.com/nekogravitycat/trip-orchestrator/internal/pkg/apperror"
	"github.com/nekogravitycat/trip-orchestrator/internal/provider"
)

var (
	ErrNotFound          = apperror.New(http.StatusNotFound, apperror.KindNotFound, "booking not found")
	ErrInvalidTransition = apperror.New(http.StatusConflict, apperror.KindBooking, "booking cannot move to the requested status")
	ErrDuplicateActive   = apperror.New(http.StatusConflict, apperror.KindBooking, "item already has an active booking")
	ErrCancelFailed      = apperror.New(http.StatusBadGateway, apperror.KindProvider, "provider could not cancel the reservation")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusFailed},
	StatusConfirmed: {StatusCancelled},
}

// CanTransition reports whether to is reachable from s in one step.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Active is true for bookings that hold, or may soon hold, a reservation.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Failure kinds recorded besides the provider taxonomy.
const (
	FailureCancelled = "cancelled"
	FailureInternal  = "internal"
)

type Booking struct {
	ID             string
	ItineraryID    string
	ItemKey        string
	Type           candidate.Kind
	CandidateID    string
	Provider       string
	Status         Status
	Reference      string // provider-side id, empty when the provider returned none
	Confirmation   string // set only when confirmed or later cancelled
	FailureKind    string // set only when failed
	FailureMessage string
	Details        json.RawMessage
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

var idPrefix = map[candidate.Kind]string{
	candidate.KindFlight:   "FLIGHT-",
	candidate.KindHotel:    "HOTEL-",
	candidate.KindActivity: "ACT-",
}

// NewID returns a local booking id such as FLIGHT-<uuid>.
func NewID(kind candidate.Kind) string {
	prefix, ok := idPrefix[kind]
	if !ok {
		prefix = "BK-"
	}
	return prefix + uuid.NewString()
}

func newPending(itineraryID, itemKey string, c candidate.Candidate, now time.Time) *Booking {
	return &Booking{
		ID:          NewID(c.Kind),
		ItineraryID: itineraryID,
		ItemKey:     itemKey,
		Type:        c.Kind,
		CandidateID: c.ID,
		Provider:    c.Provider,
		Status:      StatusPending,
		Details:     c.Payload,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Transition moves the booking to status to, or fails with ErrInvalidTransition.
func (b *Booking) Transition(to Status, now time.Time) error {
	if !b.Status.CanTransition(to) {
		return ErrInvalidTransition
	}
	b.Status = to
	b.UpdatedAt = now
	return nil
}

func (b *Booking) confirm(r provider.Reservation, now time.Time) error {
	if err := b.Transition(StatusConfirmed, now); err != nil {
		return err
	}
	b.Reference = r.Reference
	b.Confirmation = r.Confirmation
	return nil
}

func (b *Booking) fail(kind, message string, now time.Time) error {
	if err := b.Transition(StatusFailed, now); err != nil {
		return err
	}
	b.FailureKind = kind
	b.FailureMessage = message
	return nil
}

// cancelReference is what the provider needs to release the reservation.
func (b *Booking) cancelReference() string {
	if b.Reference != "" {
		return b.Reference
	}
	return b.Confirmation
}

type Overall string

const (
	AllConfirmed Overall = "all_confirmed"
	Partial      Overall = "partial"
	AllFailed    Overall = "all_failed"
)

// OverallStatus summarizes the bookings of one book call. An empty set counts
// as all confirmed.
func OverallStatus(bookings []*Booking) Overall {
	confirmed, failed := 0, 0
	for _, b := range bookings {
		switch b.Status {
		case StatusConfirmed:
			confirmed++
		case StatusFailed:
			failed++
		}
	}
	switch {
	case confirmed == len(bookings):
		return AllConfirmed
	case failed == len(bookings):
		return AllFailed
	default:
		return Partial
	}
}

// Result is the outcome of one book call: one booking per reservable item,
// in itinerary order.
type Result struct {
	ItineraryID string
	Bookings    []*Booking
	Overall     Overall
	// Cancelled is set when the caller's context ended before every item
	// reached a terminal state.
	Cancelled bool
}
