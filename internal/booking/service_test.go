package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/trip-orchestrator/internal/candidate"
	"github.com/nekogravitycat/trip-orchestrator/internal/itinerary"
	"github.com/nekogravitycat/trip-orchestrator/internal/pkg/logger"
	"github.com/nekogravitycat/trip-orchestrator/internal/provider"
	"github.com/nekogravitycat/trip-orchestrator/internal/provider/fixture"
)

var day1 = time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)

func cand(kind candidate.Kind, id string) candidate.Candidate {
	return candidate.Candidate{ID: id, Kind: kind, Provider: fixture.Name, Price: decimal.NewFromInt(10)}
}

func sampleItinerary() *itinerary.Itinerary {
	hotel := candidate.Ranked{Candidate: cand(candidate.KindHotel, "h1")}
	return &itinerary.Itinerary{
		ID:     "trip-1",
		Flight: candidate.Ranked{Candidate: cand(candidate.KindFlight, "f1")},
		Hotel:  &hotel,
		Nights: 1,
		Days: []itinerary.Day{{
			Date: day1,
			Items: []itinerary.Item{
				{Candidate: candidate.Ranked{Candidate: cand(candidate.KindActivity, "a1")}, Start: day1.Add(9 * time.Hour), End: day1.Add(11 * time.Hour)},
				{Candidate: candidate.Ranked{Candidate: cand(candidate.KindActivity, "a2")}, Start: day1.Add(11 * time.Hour), End: day1.Add(13 * time.Hour)},
			},
		}},
	}
}

func newTestOrchestrator(p *fixture.Provider, timeout time.Duration) (Orchestrator, Repository) {
	repo := NewMemoryRepository()
	o := NewOrchestrator(repo, p.Set().Reservers, Options{Timeout: timeout, Logger: logger.Discard()})
	return o, repo
}

func statuses(bs []*Booking) map[string]Status {
	out := make(map[string]Status, len(bs))
	for _, b := range bs {
		out[b.CandidateID] = b.Status
	}
	return out
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransition(StatusConfirmed))
	assert.True(t, StatusPending.CanTransition(StatusFailed))
	assert.True(t, StatusConfirmed.CanTransition(StatusCancelled))
	assert.False(t, StatusConfirmed.CanTransition(StatusFailed))
	assert.False(t, StatusFailed.CanTransition(StatusPending))
	assert.False(t, StatusCancelled.CanTransition(StatusConfirmed))
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())

	b := &Booking{Status: StatusFailed}
	assert.ErrorIs(t, b.Transition(StatusConfirmed, time.Now()), ErrInvalidTransition)
}

func TestOverallStatus(t *testing.T) {
	c := &Booking{Status: StatusConfirmed}
	f := &Booking{Status: StatusFailed}
	assert.Equal(t, AllConfirmed, OverallStatus(nil))
	assert.Equal(t, AllConfirmed, OverallStatus([]*Booking{c, c}))
	assert.Equal(t, AllFailed, OverallStatus([]*Booking{f}))
	assert.Equal(t, Partial, OverallStatus([]*Booking{c, f}))
}

func TestNewID(t *testing.T) {
	assert.Regexp(t, `^FLIGHT-[0-9a-f-]{36}$`, NewID(candidate.KindFlight))
	assert.Regexp(t, `^HOTEL-`, NewID(candidate.KindHotel))
	assert.Regexp(t, `^ACT-`, NewID(candidate.KindActivity))
}

func TestBookAllConfirmedAndIdempotent(t *testing.T) {
	p := fixture.New(fixture.Data{})
	o, _ := newTestOrchestrator(p, time.Second)
	ctx := context.Background()
	it := sampleItinerary()

	first := o.Book(ctx, it)
	require.Len(t, first.Bookings, 4)
	assert.Equal(t, AllConfirmed, first.Overall)
	assert.False(t, first.Cancelled)
	for _, b := range first.Bookings {
		assert.Equal(t, StatusConfirmed, b.Status)
		assert.Equal(t, "CONF-"+b.CandidateID, b.Confirmation)
		assert.Empty(t, b.FailureKind)
	}
	assert.Equal(t, 4, p.ReserveCalls())

	second := o.Book(ctx, it)
	assert.Equal(t, 4, p.ReserveCalls(), "confirmed items are not reserved again")
	assert.Equal(t, AllConfirmed, second.Overall)
	for i := range first.Bookings {
		assert.Equal(t, first.Bookings[i].ID, second.Bookings[i].ID)
	}
}

func TestBookPartialFailureIsolation(t *testing.T) {
	p := fixture.New(fixture.Data{}, fixture.WithReserveFailure("h1", provider.Errorf("hotels", provider.KindUnavailable, "no rooms")))
	o, _ := newTestOrchestrator(p, time.Second)
	ctx := context.Background()
	it := sampleItinerary()

	res := o.Book(ctx, it)
	assert.Equal(t, Partial, res.Overall)
	st := statuses(res.Bookings)
	assert.Equal(t, StatusFailed, st["h1"])
	assert.Equal(t, StatusConfirmed, st["f1"])
	assert.Equal(t, StatusConfirmed, st["a1"])
	assert.Equal(t, StatusConfirmed, st["a2"])

	for _, b := range res.Bookings {
		if b.CandidateID == "h1" {
			assert.Equal(t, string(provider.KindUnavailable), b.FailureKind)
			assert.Contains(t, b.FailureMessage, "no rooms")
			assert.Empty(t, b.Confirmation)
		}
	}

	all, err := o.List(ctx, it.ID)
	require.NoError(t, err)
	assert.Len(t, all, 4, "failed booking is retained")
	for _, b := range all {
		assert.NotEqual(t, StatusCancelled, b.Status, "no automatic rollback")
	}
}

func TestBookRetriesFailedItemWithFreshBooking(t *testing.T) {
	flaky := &flakyReserver{failures: 1}
	repo := NewMemoryRepository()
	o := NewOrchestrator(repo, provider.Reservers{
		candidate.KindFlight:   flaky,
		candidate.KindHotel:    flaky,
		candidate.KindActivity: flaky,
	}, Options{Logger: logger.Discard(), Concurrency: 1})
	ctx := context.Background()
	it := sampleItinerary()

	first := o.Book(ctx, it)
	assert.Equal(t, Partial, first.Overall)
	assert.Equal(t, StatusFailed, first.Bookings[0].Status, "first call in order fails")

	second := o.Book(ctx, it)
	assert.Equal(t, AllConfirmed, second.Overall)
	assert.NotEqual(t, first.Bookings[0].ID, second.Bookings[0].ID)
	assert.Equal(t, 5, flaky.calls)

	all, err := o.List(ctx, it.ID)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, StatusFailed, all[0].Status)
}

func TestBookConcurrentCallsReserveOnce(t *testing.T) {
	p := fixture.New(fixture.Data{}, fixture.WithDelay(candidate.KindActivity, 20*time.Millisecond))
	o, _ := newTestOrchestrator(p, time.Second)
	it := sampleItinerary()

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.Book(context.Background(), it)
		}()
	}
	wg.Wait()
	assert.Equal(t, 4, p.ReserveCalls())
}

func TestBookPerCallTimeout(t *testing.T) {
	p := fixture.New(fixture.Data{}, fixture.WithDelay(candidate.KindHotel, time.Second))
	o, _ := newTestOrchestrator(p, 20*time.Millisecond)

	res := o.Book(context.Background(), sampleItinerary())
	assert.Equal(t, Partial, res.Overall)
	for _, b := range res.Bookings {
		if b.Type == candidate.KindHotel {
			assert.Equal(t, StatusFailed, b.Status)
			assert.Equal(t, string(provider.KindTimeout), b.FailureKind)
		} else {
			assert.Equal(t, StatusConfirmed, b.Status)
		}
	}
}

func TestBookCancelledContext(t *testing.T) {
	p := fixture.New(fixture.Data{})
	o, _ := newTestOrchestrator(p, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := o.Book(ctx, sampleItinerary())
	assert.True(t, res.Cancelled)
	assert.Equal(t, AllFailed, res.Overall)
	assert.Zero(t, p.ReserveCalls())
	for _, b := range res.Bookings {
		assert.Equal(t, FailureCancelled, b.FailureKind)
	}
}

func TestBookCallerCancelsDuringReservation(t *testing.T) {
	p := fixture.New(fixture.Data{}, fixture.WithDelay(candidate.KindHotel, time.Second))
	o, repo := newTestOrchestrator(p, 5*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	res := o.Book(ctx, sampleItinerary())
	assert.True(t, res.Cancelled)
	assert.Equal(t, Partial, res.Overall)
	assert.Equal(t, 4, p.ReserveCalls())
	for _, b := range res.Bookings {
		if b.Type != candidate.KindHotel {
			assert.Equal(t, StatusConfirmed, b.Status)
			continue
		}
		assert.Equal(t, StatusFailed, b.Status)
		assert.Equal(t, FailureCancelled, b.FailureKind)

		stored, err := repo.GetByID(context.Background(), b.ID)
		require.NoError(t, err)
		assert.Equal(t, FailureCancelled, stored.FailureKind)
	}
}

func TestBookWithoutReserver(t *testing.T) {
	o := NewOrchestrator(NewMemoryRepository(), nil, Options{Logger: logger.Discard()})
	it := &itinerary.Itinerary{ID: "no-reserver", Flight: candidate.Ranked{Candidate: cand(candidate.KindFlight, "f")}}

	res := o.Book(context.Background(), it)
	require.Len(t, res.Bookings, 1)
	assert.Equal(t, string(provider.KindUnavailable), res.Bookings[0].FailureKind, "no reserver for flights")
}

func TestCancel(t *testing.T) {
	p := fixture.New(fixture.Data{})
	o, _ := newTestOrchestrator(p, time.Second)
	ctx := context.Background()
	res := o.Book(ctx, sampleItinerary())
	flight := res.Bookings[0]

	cancelled, err := o.Cancel(ctx, flight.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.False(t, p.Active(flight.Confirmation))

	_, err = o.Cancel(ctx, flight.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = o.Cancel(ctx, "FLIGHT-missing")
	assert.ErrorIs(t, err, ErrNotFound)

	// other bookings are untouched
	got, err := o.GetByID(ctx, res.Bookings[1].ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
}

func TestCancelProviderFailureKeepsConfirmed(t *testing.T) {
	p := fixture.New(fixture.Data{}, fixture.WithCancelFailure(errors.New("upstream down")))
	o, _ := newTestOrchestrator(p, time.Second)
	ctx := context.Background()
	res := o.Book(ctx, sampleItinerary())

	_, err := o.Cancel(ctx, res.Bookings[0].ID)
	assert.ErrorIs(t, err, ErrCancelFailed)

	got, err := o.GetByID(ctx, res.Bookings[0].ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
}

func TestMemoryRepositoryRejectsSecondActive(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	c := cand(candidate.KindFlight, "f1")

	b1 := newPending("trip", "flight:f1", c, day1)
	require.NoError(t, repo.Create(ctx, b1))
	assert.ErrorIs(t, repo.Create(ctx, newPending("trip", "flight:f1", c, day1)), ErrDuplicateActive)

	require.NoError(t, b1.fail(FailureInternal, "x", day1))
	require.NoError(t, repo.Update(ctx, b1))
	require.NoError(t, repo.Create(ctx, newPending("trip", "flight:f1", c, day1)), "failed bookings do not block a retry")

	assert.ErrorIs(t, repo.Update(ctx, &Booking{ID: "nope"}), ErrNotFound)
}

// flakyReserver fails its first n calls.
type flakyReserver struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyReserver) Name() string { return "flaky" }

func (f *flakyReserver) Reserve(_ context.Context, c candidate.Candidate) (provider.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return provider.Reservation{}, errors.New("connection reset")
	}
	return provider.Reservation{Reference: "ref-" + c.ID, Confirmation: "OK-" + c.ID}, nil
}

func (f *flakyReserver) Cancel(context.Context, string) error { return nil }
