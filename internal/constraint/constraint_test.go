package constraint

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func validPrefs(t *testing.T) *Preferences {
	t.Helper()
	p, err := NewPreferences(PreferencesInput{
		Budget:        decimal.NewFromInt(5000),
		Style:         "mid-range",
		Interests:     []string{"history", "Food", "nature"},
		Dietary:       []string{"vegetarian"},
		Accessibility: nil,
	})
	require.NoError(t, err)
	return p
}

func TestNewPreferences(t *testing.T) {
	t.Run("normalizes tags", func(t *testing.T) {
		p := validPrefs(t)
		assert.Equal(t, StyleMidRange, p.Style())
		assert.Equal(t, []string{"food", "history", "nature"}, p.Interests().Strings())
		assert.True(t, p.Dietary().Has("vegetarian"))
		assert.True(t, p.Accessibility().IsEmpty())
	})

	t.Run("rejects bad input", func(t *testing.T) {
		cases := []struct {
			name string
			in   PreferencesInput
			want error
		}{
			{"zero budget", PreferencesInput{Budget: decimal.Zero, Style: "budget"}, ErrInvalidBudget},
			{"negative budget", PreferencesInput{Budget: decimal.NewFromInt(-1), Style: "budget"}, ErrInvalidBudget},
			{"unknown style", PreferencesInput{Budget: decimal.NewFromInt(10), Style: "backpacker"}, ErrUnknownStyle},
			{"bad tag", PreferencesInput{Budget: decimal.NewFromInt(10), Style: "luxury", Interests: []string{"wine&dine"}}, ErrInvalidTag},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewPreferences(tc.in)
				assert.ErrorIs(t, err, tc.want)
			})
		}
	})

	t.Run("json round trip re-validates", func(t *testing.T) {
		p := validPrefs(t)
		data, err := json.Marshal(p)
		require.NoError(t, err)

		var back Preferences
		require.NoError(t, json.Unmarshal(data, &back))
		assert.True(t, back.Budget().Equal(p.Budget()))
		assert.Equal(t, p.Interests().Strings(), back.Interests().Strings())

		var bad Preferences
		err = json.Unmarshal([]byte(`{"budget":"0","style":"budget"}`), &bad)
		assert.True(t, errors.Is(err, ErrInvalidBudget))
	})
}

func TestValidate(t *testing.T) {
	prefs := validPrefs(t)
	start := now.Add(30 * 24 * time.Hour)
	base := Request{Origin: "New York", Destination: "Paris", StartDate: start, EndDate: start.Add(7 * 24 * time.Hour), Preferences: prefs}

	require.NoError(t, Validate(prefs, base, now))

	inverted := base
	inverted.EndDate = base.StartDate.Add(-time.Hour)
	assert.ErrorIs(t, Validate(prefs, inverted, now), ErrInvalidDateRange)

	equal := base
	equal.EndDate = base.StartDate
	assert.ErrorIs(t, Validate(prefs, equal, now), ErrInvalidDateRange)

	past := base
	past.StartDate = now.Add(-time.Hour)
	assert.ErrorIs(t, Validate(prefs, past, now), ErrDateInPast)

	noDest := base
	noDest.Destination = "  "
	assert.ErrorIs(t, Validate(prefs, noDest, now), ErrMissingLocation)

	assert.ErrorIs(t, Validate(nil, base, now), ErrMissingPrefs)

	party := base
	party.Guests = MaxGuests + 1
	assert.ErrorIs(t, Validate(prefs, party, now), ErrInvalidGuests)
	party.Guests = -1
	assert.ErrorIs(t, Validate(prefs, party, now), ErrInvalidGuests)
	party.Guests = 4
	require.NoError(t, Validate(prefs, party, now))
	assert.Equal(t, 4, party.PartySize())
	assert.Equal(t, DefaultGuests, base.PartySize())
}

func TestRequestDaysAndNights(t *testing.T) {
	start := time.Date(2026, 11, 1, 15, 0, 0, 0, time.UTC)

	week := Request{StartDate: start, EndDate: start.AddDate(0, 0, 7)}
	assert.Len(t, week.Days(), 8, "end date afternoon is inside the window")
	assert.Equal(t, 7, week.Nights())

	overnight := Request{StartDate: start, EndDate: time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)}
	assert.Len(t, overnight.Days(), 1)
	assert.Equal(t, 1, overnight.Nights())

	sameDay := Request{StartDate: start, EndDate: start.Add(4 * time.Hour)}
	assert.Len(t, sameDay.Days(), 1)
	assert.Equal(t, 0, sameDay.Nights())
}

func TestDietaryConflicts(t *testing.T) {
	diet := MustTagSet("vegetarian", "gluten-free")

	assert.Equal(t, []Tag{"vegetarian"}, DietaryConflicts(diet, MustTagSet("food", "meat-only")))
	assert.Equal(t, []Tag{"gluten-free"}, DietaryConflicts(diet, MustTagSet("food", "not-gluten-free")))
	assert.Empty(t, DietaryConflicts(diet, MustTagSet("food", "vegetarian")))

	assert.True(t, IsFoodRelated(MustTagSet("market", "outdoor")))
	assert.False(t, IsFoodRelated(MustTagSet("museum")))
}

func TestInterestCategories(t *testing.T) {
	cats := InterestCategories(MustTagSet("nature", "history", "knitting"))
	assert.Equal(t, []string{"4deefb944765f83613cdba6e", "4d4b7105d754a06377d81259"}, cats)
}

func TestParseTag(t *testing.T) {
	tag, err := ParseTag("  Wheelchair Accessible ")
	require.NoError(t, err)
	assert.Equal(t, Tag("wheelchair-accessible"), tag)

	_, err = ParseTag("")
	assert.ErrorIs(t, err, ErrInvalidTag)
}
