package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nekogravitycat/trip-orchestrator/internal/itinerary"
	"github.com/nekogravitycat/trip-orchestrator/internal/pkg/metrics"
	"github.com/nekogravitycat/trip-orchestrator/internal/provider"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultConcurrency = 8
)

type Options struct {
	// Timeout bounds each reserve and cancel call independently.
	Timeout time.Duration
	// Concurrency caps reserve calls in flight for one Book call.
	Concurrency int
	Logger      *slog.Logger
}

type Orchestrator interface {
	// Book reserves every item of the itinerary concurrently. It never fails
	// as a whole: per-item failures are recorded on the returned bookings.
	Book(ctx context.Context, it *itinerary.Itinerary) *Result
	// Cancel releases a confirmed booking with its provider.
	Cancel(ctx context.Context, bookingID string) (*Booking, error)
	GetByID(ctx context.Context, bookingID string) (*Booking, error)
	List(ctx context.Context, itineraryID string) ([]*Booking, error)
}

type orchestrator struct {
	repo      Repository
	reservers provider.Reservers
	opts      Options
	locks     *keyedMutex
	now       func() time.Time
}

func NewOrchestrator(repo Repository, reservers provider.Reservers, opts Options) Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &orchestrator{
		repo:      repo,
		reservers: reservers,
		opts:      opts,
		locks:     newKeyedMutex(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (o *orchestrator) Book(ctx context.Context, it *itinerary.Itinerary) *Result {
	items := it.Reservables()
	res := &Result{ItineraryID: it.ID, Bookings: make([]*Booking, len(items))}

	// No goroutine returns an error, so one failure never cancels its siblings.
	var g errgroup.Group
	g.SetLimit(o.opts.Concurrency)
	for i, item := range items {
		g.Go(func() error {
			res.Bookings[i] = o.bookItem(ctx, it.ID, item)
			return nil
		})
	}
	_ = g.Wait()

	res.Overall = OverallStatus(res.Bookings)
	res.Cancelled = ctx.Err() != nil
	o.opts.Logger.InfoContext(ctx, "itinerary booked",
		"itinerary_id", it.ID, "items", len(items), "overall", res.Overall, "cancelled", res.Cancelled)
	return res
}

// bookItem reserves one item unless it already holds an active booking.
// Ledger writes outlive the caller's context so terminal states are kept.
func (o *orchestrator) bookItem(ctx context.Context, itineraryID string, item itinerary.Reservable) *Booking {
	unlock := o.locks.lock(itineraryID + "|" + item.Key)
	defer unlock()

	store := context.WithoutCancel(ctx)
	log := o.opts.Logger.With("itinerary_id", itineraryID, "item", item.Key)

	latest, err := o.repo.LatestByItem(store, itineraryID, item.Key)
	switch {
	case err == nil && latest.Status.Active():
		return latest
	case err != nil && !errors.Is(err, ErrNotFound):
		log.ErrorContext(ctx, "load booking ledger failed", "error", err)
		b := newPending(itineraryID, item.Key, item.Candidate, o.now())
		_ = b.fail(FailureInternal, "booking ledger unavailable", o.now())
		return b
	}

	b := newPending(itineraryID, item.Key, item.Candidate, o.now())
	if err := o.repo.Create(store, b); err != nil {
		if errors.Is(err, ErrDuplicateActive) {
			if existing, err := o.repo.LatestByItem(store, itineraryID, item.Key); err == nil {
				return existing
			}
		}
		log.ErrorContext(ctx, "create booking failed", "error", err)
		_ = b.fail(FailureInternal, "booking ledger unavailable", o.now())
		return b
	}

	if ctx.Err() != nil {
		_ = b.fail(FailureCancelled, "booking cancelled by caller before reservation", o.now())
	} else {
		o.reserve(ctx, b, item)
	}

	if err := o.repo.Update(store, b); err != nil {
		log.ErrorContext(ctx, "persist booking failed", "booking_id", b.ID, "status", b.Status, "error", err)
	}
	metrics.BookingsTotal.WithLabelValues(string(b.Type), string(b.Status)).Inc()
	return b
}

func (o *orchestrator) reserve(ctx context.Context, b *Booking, item itinerary.Reservable) {
	reserver, err := o.reservers.For(item.Candidate.Kind)
	if err != nil {
		pe := provider.Classify("", err)
		_ = b.fail(string(pe.Kind), pe.Error(), o.now())
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	r, err := reserver.Reserve(callCtx, item.Candidate)
	if err != nil && ctx.Err() != nil {
		o.opts.Logger.WarnContext(ctx, "reservation abandoned by caller", "booking_id", b.ID, "error", err)
		_ = b.fail(FailureCancelled, "booking cancelled by caller during reservation", o.now())
		return
	}
	if err != nil {
		pe := provider.Classify(reserver.Name(), err)
		o.opts.Logger.WarnContext(ctx, "reservation failed",
			"booking_id", b.ID, "provider", pe.Provider, "kind", pe.Kind, "error", pe.Err)
		_ = b.fail(string(pe.Kind), pe.Error(), o.now())
		return
	}
	_ = b.confirm(r, o.now())
}

func (o *orchestrator) Cancel(ctx context.Context, bookingID string) (*Booking, error) {
	b, err := o.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	unlock := o.locks.lock(b.ItineraryID + "|" + b.ItemKey)
	defer unlock()

	// Reload under the lock; a concurrent call may have moved it.
	if b, err = o.repo.GetByID(ctx, bookingID); err != nil {
		return nil, err
	}
	if !b.Status.CanTransition(StatusCancelled) {
		return nil, ErrInvalidTransition
	}

	reserver, err := o.reservers.For(b.Type)
	if err != nil {
		return nil, ErrCancelFailed.WithCause(err)
	}
	callCtx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()
	if err := reserver.Cancel(callCtx, b.cancelReference()); err != nil {
		pe := provider.Classify(reserver.Name(), err)
		o.opts.Logger.WarnContext(ctx, "cancellation failed", "booking_id", b.ID, "kind", pe.Kind, "error", pe.Err)
		return nil, ErrCancelFailed.WithCause(pe)
	}

	if err := b.Transition(StatusCancelled, o.now()); err != nil {
		return nil, err
	}
	if err := o.repo.Update(context.WithoutCancel(ctx), b); err != nil {
		return nil, err
	}
	metrics.BookingsTotal.WithLabelValues(string(b.Type), string(b.Status)).Inc()
	return b, nil
}

func (o *orchestrator) GetByID(ctx context.Context, bookingID string) (*Booking, error) {
	return o.repo.GetByID(ctx, bookingID)
}

func (o *orchestrator) List(ctx context.Context, itineraryID string) ([]*Booking, error) {
	return o.repo.ListByItinerary(ctx, itineraryID)
}
