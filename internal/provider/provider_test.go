package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/nekogravitycat/trip-orchestrator/internal/candidate"
	"github.com/nekogravitycat/trip-orchestrator/internal/constraint"
)

type countingSearcher struct {
	calls int
}

func (s *countingSearcher) Name() string { return "counting" }

func (s *countingSearcher) Search(_ context.Context, c Criteria) ([]candidate.Candidate, error) {
	s.calls++
	return []candidate.Candidate{{ID: "x", Kind: c.Kind}}, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify("p", nil))

	pe := Classify("p", fmt.Errorf("search: %w", context.DeadlineExceeded))
	assert.Equal(t, KindTimeout, pe.Kind)
	assert.Equal(t, "p", pe.Provider)

	pe = Classify("p", errors.New("connection refused"))
	assert.Equal(t, KindUnavailable, pe.Kind)

	orig := Errorf("gemini", KindRateLimited, "429")
	pe = Classify("other", fmt.Errorf("wrapped: %w", orig))
	assert.Same(t, orig, pe)
	assert.Equal(t, KindRateLimited, KindOf(orig))
}

func TestCriteriaBuilders(t *testing.T) {
	prefs, err := constraint.NewPreferences(constraint.PreferencesInput{
		Budget:        decimal.NewFromInt(2000),
		Style:         "budget",
		Interests:     []string{"history", "food"},
		Dietary:       []string{"vegan"},
		Accessibility: []string{"step-free"},
	})
	require.NoError(t, err)
	start := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	req := constraint.Request{Origin: "JFK", Destination: "CDG", StartDate: start, EndDate: start.AddDate(0, 0, 3), Preferences: prefs}

	f := FlightCriteria(req, decimal.NewFromInt(2000))
	assert.Equal(t, candidate.KindFlight, f.Kind)
	assert.Equal(t, "JFK", f.Origin)
	assert.True(t, f.Interests.IsEmpty())
	assert.Equal(t, constraint.DefaultGuests, f.Guests)

	h := HotelCriteria(req, decimal.NewFromInt(1000))
	assert.Empty(t, h.Origin)
	assert.True(t, h.Accessibility.Has("step-free"))

	req.Guests = 3
	assert.Equal(t, 3, HotelCriteria(req, decimal.Zero).Guests)

	a := ActivityCriteria(req)
	assert.Equal(t, []string{"food", "history"}, a.Interests.Strings())
	assert.Len(t, a.Categories, 2)
	assert.True(t, a.Dietary.Has("vegan"))
	assert.Equal(t, 3, a.Guests)
}

func TestThrottle(t *testing.T) {
	inner := &countingSearcher{}
	s := Throttle(inner, rate.NewLimiter(rate.Every(time.Hour), 1))

	_, err := s.Search(context.Background(), Criteria{Kind: candidate.KindFlight})
	require.NoError(t, err)

	_, err = s.Search(context.Background(), Criteria{Kind: candidate.KindFlight})
	require.Error(t, err)
	assert.Equal(t, KindRateLimited, KindOf(err))
	assert.Equal(t, 1, inner.calls, "throttled call never reaches the provider")

	assert.Same(t, Searcher(inner), Throttle(inner, nil))
}

func TestReserversFor(t *testing.T) {
	_, err := Reservers{}.For(candidate.KindHotel)
	require.Error(t, err)
	assert.Equal(t, KindUnavailable, KindOf(err))
}

func TestSetCloseJoinsErrorsInReverse(t *testing.T) {
	var order []int
	boom := errors.New("boom")
	set := &Set{Closers: []io.Closer{
		closerFunc(func() error { order = append(order, 1); return nil }),
		closerFunc(func() error { order = append(order, 2); return boom }),
	}}

	err := set.Close()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{2, 1}, order)
	assert.NoError(t, set.Close(), "second close is a no-op")
}

func TestSetWrap(t *testing.T) {
	inner := &countingSearcher{}
	set := &Set{Flights: inner}
	set.Wrap(func(string) *rate.Limiter { return rate.NewLimiter(rate.Every(time.Hour), 1) })

	assert.Nil(t, set.Hotels)
	assert.Equal(t, "counting", set.Searcher(candidate.KindFlight).Name())

	_, err := set.Flights.Search(context.Background(), Criteria{Kind: candidate.KindFlight})
	require.NoError(t, err)
	_, err = set.Flights.Search(context.Background(), Criteria{Kind: candidate.KindFlight})
	assert.Equal(t, KindRateLimited, KindOf(err))
}
