package constraint

import (
	"strings"
	"time"
)

// Validate checks a planning request before any provider is contacted.
// It performs no I/O; now is passed in so callers control the clock.
func Validate(prefs *Preferences, req Request, now time.Time) error {
	if prefs == nil {
		return ErrMissingPrefs
	}
	if !prefs.budget.IsPositive() {
		return ErrInvalidBudget
	}
	if _, err := ParseStyle(string(prefs.style)); err != nil {
		return err
	}

	if strings.TrimSpace(req.Origin) == "" || strings.TrimSpace(req.Destination) == "" {
		return ErrMissingLocation
	}
	if req.Guests < 0 || req.Guests > MaxGuests {
		return ErrInvalidGuests
	}
	if !req.EndDate.After(req.StartDate) {
		return ErrInvalidDateRange
	}
	if req.StartDate.Before(now) || req.EndDate.Before(now) {
		return ErrDateInPast
	}
	return nil
}
