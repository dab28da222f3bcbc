// Package session is the entry point of the orchestration engine. A Session
// owns the provider connections for its lifetime and runs the planning
// pipeline: validate, search concurrently, rank, assemble, then enrich the
// plan with an advisory narrative. Booking is a separate call.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nekogravitycat/trip-orchestrator/internal/booking"
	"github.com/nekogravitycat/trip-orchestrator/internal/candidate"
	"github.com/nekogravitycat/trip-orchestrator/internal/constraint"
	"github.com/nekogravitycat/trip-orchestrator/internal/itinerary"
	"github.com/nekogravitycat/trip-orchestrator/internal/pkg/apperror"
	"github.com/nekogravitycat/trip-orchestrator/internal/pkg/metrics"
	"github.com/nekogravitycat/trip-orchestrator/internal/provider"
	"github.com/nekogravitycat/trip-orchestrator/internal/ranker"
)

var (
	ErrClosed    = apperror.New(http.StatusServiceUnavailable, apperror.KindInternal, "session is closed")
	ErrCancelled = apperror.New(http.StatusRequestTimeout, apperror.KindCancelled, "trip planning was cancelled")
)

const DefaultProviderTimeout = 10 * time.Second

type Config struct {
	// ProviderTimeout bounds every search and synthesis call independently.
	ProviderTimeout time.Duration
	Assembler       itinerary.Options
	Booking         booking.Options
}

// Connector opens the provider handles a session uses. The returned set is
// closed by Session.Close.
type Connector interface {
	Connect(ctx context.Context) (*provider.Set, error)
}

type ConnectorFunc func(ctx context.Context) (*provider.Set, error)

func (f ConnectorFunc) Connect(ctx context.Context) (*provider.Set, error) { return f(ctx) }

// Deps are the stores a session writes to. Nil stores default to in-memory ones.
type Deps struct {
	Bookings    booking.Repository
	Itineraries itinerary.Store
	Logger      *slog.Logger
}

type Session struct {
	cfg          Config
	providers    *provider.Set
	assembler    *itinerary.Assembler
	orchestrator booking.Orchestrator
	store        itinerary.Store
	log          *slog.Logger
	now          func() time.Time

	mu       sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
	once     sync.Once
	closeErr error
}

// Open connects the providers and returns a ready session. The caller must
// call Close on every path once done.
func Open(ctx context.Context, cfg Config, conn Connector, deps Deps) (*Session, error) {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = DefaultProviderTimeout
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Bookings == nil {
		deps.Bookings = booking.NewMemoryRepository()
	}
	if deps.Itineraries == nil {
		deps.Itineraries = itinerary.NewMemoryStore()
	}

	set, err := conn.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect providers: %w", err)
	}
	if set.Reservers == nil {
		set.Reservers = provider.Reservers{}
	}

	bookingOpts := cfg.Booking
	if bookingOpts.Logger == nil {
		bookingOpts.Logger = deps.Logger
	}

	return &Session{
		cfg:          cfg,
		providers:    set,
		assembler:    itinerary.NewAssembler(cfg.Assembler),
		orchestrator: booking.NewOrchestrator(deps.Bookings, set.Reservers, bookingOpts),
		store:        deps.Itineraries,
		log:          deps.Logger,
		now:          time.Now,
	}, nil
}

// begin registers an in-flight operation so Close waits for it.
func (s *Session) begin() (func(), error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	s.inflight.Add(1)
	return s.inflight.Done, nil
}

// Close waits for in-flight operations and releases the provider
// connections. Calling it again is a no-op returning the first result.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.inflight.Wait()
		s.closeErr = s.providers.Close()
		s.log.Info("session closed", "error", s.closeErr)
	})
	return s.closeErr
}

type searchResult struct {
	candidates []candidate.Candidate
	failure    *provider.ProviderError
}

// PlanTrip builds an itinerary for req. It fails with a validation error, an
// assembly error or ErrCancelled; provider failures only shrink the
// candidate pool and are reported in ProviderFailures.
func (s *Session) PlanTrip(ctx context.Context, req constraint.Request) (*itinerary.Itinerary, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()

	if err := constraint.Validate(req.Preferences, req, s.now()); err != nil {
		metrics.PlansTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	log := s.log.With("origin", req.Origin, "destination", req.Destination)

	budget := req.Preferences.Budget()
	criteria := []provider.Criteria{
		provider.FlightCriteria(req, budget),
		provider.HotelCriteria(req, budget),
		provider.ActivityCriteria(req),
	}
	results := make([]searchResult, len(criteria))

	var g errgroup.Group
	for i, crit := range criteria {
		g.Go(func() error {
			results[i] = s.search(ctx, crit)
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		metrics.PlansTotal.WithLabelValues("cancelled").Inc()
		return nil, ErrCancelled.WithCause(ctx.Err())
	}

	var failures []itinerary.ProviderFailure
	for i, r := range results {
		if r.failure != nil {
			log.WarnContext(ctx, "provider search failed",
				"kind", criteria[i].Kind, "provider", r.failure.Provider, "error_kind", r.failure.Kind, "error", r.failure.Err)
			failures = append(failures, toFailure(string(criteria[i].Kind), r.failure))
		}
	}

	prefs := req.Preferences
	nights := req.Nights()
	flights := ranker.Rank(results[0].candidates, prefs)
	hotels := ranker.Rank(results[1].candidates, prefs, ranker.WithNights(max(nights, 1)))
	activities := ranker.Rank(results[2].candidates, prefs)

	it, err := s.assembler.Assemble(req, flights, hotels, activities)
	if err != nil {
		metrics.PlansTotal.WithLabelValues("infeasible").Inc()
		log.InfoContext(ctx, "no feasible itinerary", "error", err,
			"flights", len(flights), "hotels", len(hotels), "activities", len(activities))
		return nil, err
	}

	if f := s.synthesize(ctx, it); f != nil {
		failures = append(failures, *f)
	}
	it.ProviderFailures = failures

	if ctx.Err() != nil {
		metrics.PlansTotal.WithLabelValues("cancelled").Inc()
		return nil, ErrCancelled.WithCause(ctx.Err())
	}

	if err := s.store.Save(ctx, it); err != nil {
		return nil, fmt.Errorf("save itinerary: %w", err)
	}

	outcome := "complete"
	if !it.Complete {
		outcome = "incomplete"
	}
	metrics.PlansTotal.WithLabelValues(outcome).Inc()
	log.InfoContext(ctx, "itinerary planned",
		"itinerary_id", it.ID, "total_cost", it.TotalCost.String(), "activities", it.ActivityCount(),
		"complete", it.Complete, "provider_failures", len(failures))
	return it, nil
}

func (s *Session) search(ctx context.Context, crit provider.Criteria) searchResult {
	src := s.providers.Searcher(crit.Kind)
	if src == nil {
		return searchResult{failure: provider.Errorf("none", provider.KindUnavailable, "no %s provider configured", crit.Kind)}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	cands, err := src.Search(callCtx, crit)
	if err != nil {
		return searchResult{failure: provider.Classify(src.Name(), err)}
	}

	// Drop anything of the wrong kind rather than trusting the provider.
	out := make([]candidate.Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Kind == crit.Kind {
			out = append(out, c)
		}
	}
	return searchResult{candidates: out}
}

// synthesize attaches a narrative to it. The narrative never changes the
// selections; a failure is returned for reporting only.
func (s *Session) synthesize(ctx context.Context, it *itinerary.Itinerary) *itinerary.ProviderFailure {
	syn := s.providers.Synthesizer
	if syn == nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	text, err := syn.Synthesize(callCtx, synthesisContext(it))
	if err != nil {
		pe := provider.Classify(syn.Name(), err)
		s.log.WarnContext(ctx, "synthesis failed", "itinerary_id", it.ID, "error_kind", pe.Kind, "error", pe.Err)
		f := toFailure("synthesis", pe)
		return &f
	}
	it.Narrative = text
	return nil
}

func toFailure(capability string, pe *provider.ProviderError) itinerary.ProviderFailure {
	msg := ""
	if pe.Err != nil {
		msg = pe.Err.Error()
	}
	return itinerary.ProviderFailure{
		Provider:   pe.Provider,
		Capability: capability,
		Kind:       string(pe.Kind),
		Message:    msg,
	}
}

func synthesisContext(it *itinerary.Itinerary) provider.SynthesisContext {
	p := it.Request.Preferences
	sc := provider.SynthesisContext{
		Destination: it.Request.Destination,
		Start:       it.Request.StartDate,
		End:         it.Request.EndDate,
		Style:       p.Style(),
		Interests:   p.Interests().Strings(),
		Dietary:     p.Dietary().Strings(),
		Flight:      it.Flight.Name,
	}
	if it.Hotel != nil {
		sc.Hotel = it.Hotel.Name
	}
	for _, d := range it.Days {
		day := provider.SynthesisDay{Date: d.Date}
		for _, item := range d.Items {
			day.Activities = append(day.Activities,
				fmt.Sprintf("%s %s-%s", item.Candidate.Name, item.Start.Format("15:04"), item.End.Format("15:04")))
		}
		sc.Days = append(sc.Days, day)
	}
	return sc
}

// Itinerary returns a previously planned itinerary.
func (s *Session) Itinerary(ctx context.Context, id string) (*itinerary.Itinerary, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	return s.store.Get(ctx, id)
}

// Book reserves every item of it. The only error is ErrClosed; reservation
// failures are reported per booking in the result.
func (s *Session) Book(ctx context.Context, it *itinerary.Itinerary) (*booking.Result, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	return s.orchestrator.Book(ctx, it), nil
}

// BookTrip loads a stored itinerary and books it.
func (s *Session) BookTrip(ctx context.Context, itineraryID string) (*booking.Result, error) {
	it, err := s.Itinerary(ctx, itineraryID)
	if err != nil {
		return nil, err
	}
	return s.Book(ctx, it)
}

// Cancel releases a confirmed booking. It is the only way a confirmed
// booking becomes cancelled.
func (s *Session) Cancel(ctx context.Context, bookingID string) (*booking.Booking, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	return s.orchestrator.Cancel(ctx, bookingID)
}

func (s *Session) Booking(ctx context.Context, bookingID string) (*booking.Booking, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	return s.orchestrator.GetByID(ctx, bookingID)
}

// Bookings lists every booking of the itinerary, failed ones included.
func (s *Session) Bookings(ctx context.Context, itineraryID string) ([]*booking.Booking, error) {
	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	return s.orchestrator.List(ctx, itineraryID)
}
