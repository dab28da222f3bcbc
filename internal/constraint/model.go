package constraint

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/trip-orchestrator/internal/pkg/apperror"
)

var (
	ErrInvalidBudget    = apperror.New(http.StatusBadRequest, apperror.KindValidation, "budget must be greater than zero")
	ErrUnknownStyle     = apperror.New(http.StatusBadRequest, apperror.KindValidation, "style must be one of luxury, mid-range, budget")
	ErrInvalidTag       = apperror.New(http.StatusBadRequest, apperror.KindValidation, "tags may only contain letters, digits and hyphens")
	ErrInvalidDateRange = apperror.New(http.StatusBadRequest, apperror.KindValidation, "end date must be after start date")
	ErrDateInPast       = apperror.New(http.StatusBadRequest, apperror.KindValidation, "trip dates cannot be in the past")
	ErrMissingLocation  = apperror.New(http.StatusBadRequest, apperror.KindValidation, "origin and destination are required")
	ErrMissingPrefs     = apperror.New(http.StatusBadRequest, apperror.KindValidation, "travel preferences are required")
	ErrInvalidGuests    = apperror.New(http.StatusBadRequest, apperror.KindValidation, "guests must be between 1 and 9")
)

type Style string

const (
	StyleLuxury   Style = "luxury"
	StyleMidRange Style = "mid-range"
	StyleBudget   Style = "budget"
)

// ParseStyle accepts the enumerated styles case-insensitively. "midrange" and
// "mid_range" are accepted as spellings of mid-range.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "luxury":
		return StyleLuxury, nil
	case "mid-range", "midrange", "mid_range":
		return StyleMidRange, nil
	case "budget":
		return StyleBudget, nil
	}
	return "", ErrUnknownStyle
}

// Preferences is the traveler's constraint envelope. It can only be built
// through NewPreferences and is never mutated afterwards.
type Preferences struct {
	budget        decimal.Decimal
	style         Style
	interests     TagSet
	dietary       TagSet
	accessibility TagSet
}

// PreferencesInput is the unvalidated form of Preferences.
type PreferencesInput struct {
	Budget        decimal.Decimal `json:"budget"`
	Style         string          `json:"style"`
	Interests     []string        `json:"interests"`
	Dietary       []string        `json:"dietary_restrictions"`
	Accessibility []string        `json:"accessibility_needs"`
}

// NewPreferences validates in and returns an immutable Preferences.
func NewPreferences(in PreferencesInput) (*Preferences, error) {
	if !in.Budget.IsPositive() {
		return nil, ErrInvalidBudget
	}
	style, err := ParseStyle(in.Style)
	if err != nil {
		return nil, err
	}
	interests, err := NewTagSet(in.Interests...)
	if err != nil {
		return nil, err
	}
	dietary, err := NewTagSet(in.Dietary...)
	if err != nil {
		return nil, err
	}
	access, err := NewTagSet(in.Accessibility...)
	if err != nil {
		return nil, err
	}
	return &Preferences{
		budget:        in.Budget,
		style:         style,
		interests:     interests,
		dietary:       dietary,
		accessibility: access,
	}, nil
}

func (p *Preferences) Budget() decimal.Decimal { return p.budget }
func (p *Preferences) Style() Style              { return p.style }
func (p *Preferences) Interests() TagSet         { return p.interests }
func (p *Preferences) Dietary() TagSet           { return p.dietary }
func (p *Preferences) Accessibility() TagSet     { return p.accessibility }

// Input returns the raw form of p, suitable for serialization.
func (p *Preferences) Input() PreferencesInput {
	return PreferencesInput{
		Budget:        p.budget,
		Style:         string(p.style),
		Interests:     p.interests.Strings(),
		Dietary:       p.dietary.Strings(),
		Accessibility: p.accessibility.Strings(),
	}
}

func (p *Preferences) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Input())
}

func (p *Preferences) UnmarshalJSON(data []byte) error {
	var in PreferencesInput
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	parsed, err := NewPreferences(in)
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}

// Request is one planning request. The trip covers the calendar dates in
// [StartDate, EndDate).
type Request struct {
	Origin      string       `json:"origin"`
	Destination string       `json:"destination"`
	StartDate   time.Time    `json:"start_date"`
	EndDate     time.Time    `json:"end_date"`
	Preferences *Preferences `json:"preferences"`

	// Guests is the party size. Zero means DefaultGuests.
	Guests int `json:"guests,omitempty"`
}

const (
	DefaultGuests = 2
	MaxGuests     = 9
)

// PartySize is the number of travelers every offer is quoted for.
func (r Request) PartySize() int {
	if r.Guests <= 0 {
		return DefaultGuests
	}
	return r.Guests
}

// Days returns midnight of every calendar date d with d < EndDate, starting
// at StartDate's date, in StartDate's location.
func (r Request) Days() []time.Time {
	var days []time.Time
	for d := startOfDay(r.StartDate); d.Before(r.EndDate); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Nights is the number of calendar nights between the start and end dates.
func (r Request) Nights() int {
	start := startOfDay(r.StartDate)
	end := startOfDay(r.EndDate.In(r.StartDate.Location()))
	n := 0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
