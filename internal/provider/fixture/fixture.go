// Package fixture is an in-memory provider backed by a fixed catalog. It
// serves the development server when no inventory database is configured and
// stands in for real services in tests, with optional latency and failures.
package fixture

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nekogravitycat/trip-orchestrator/internal/candidate"
	"github.com/nekogravitycat/trip-orchestrator/internal/provider"
)

const Name = "fixture"

// Data is the catalog a fixture provider serves.
type Data struct {
	Flights    []candidate.Candidate
	Hotels     []candidate.Candidate
	Activities []candidate.Candidate
}

type Option func(*Provider)

// WithDelay makes every call for kind wait d before answering. Waiting honours
// context cancellation.
func WithDelay(kind candidate.Kind, d time.Duration) Option {
	return func(p *Provider) { p.delay[kind] = d }
}

// WithSearchFailure makes searches for kind fail with err.
func WithSearchFailure(kind candidate.Kind, err error) Option {
	return func(p *Provider) { p.searchFail[kind] = err }
}

// WithReserveFailure makes reservations of the candidate id fail with err.
func WithReserveFailure(id string, err error) Option {
	return func(p *Provider) { p.reserveFail[id] = err }
}

// WithCancelFailure makes every cancellation fail with err.
func WithCancelFailure(err error) Option {
	return func(p *Provider) { p.cancelFail = err }
}

// WithSynthesisFailure makes Synthesize fail with err.
func WithSynthesisFailure(err error) Option {
	return func(p *Provider) { p.synthFail = err }
}

// Provider implements provider.Searcher, provider.Reserver and
// provider.Synthesizer over a fixed catalog.
type Provider struct {
	data        Data
	delay       map[candidate.Kind]time.Duration
	searchFail  map[candidate.Kind]error
	reserveFail map[string]error
	cancelFail  error
	synthFail   error

	reserveCalls atomic.Int64
	mu           sync.Mutex
	active       map[string]string // confirmation -> candidate id
	closed       atomic.Bool
}

func New(data Data, opts ...Option) *Provider {
	p := &Provider{
		data:        data,
		delay:       make(map[candidate.Kind]time.Duration),
		searchFail:  make(map[candidate.Kind]error),
		reserveFail: make(map[string]error),
		active:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string { return Name }

func (p *Provider) wait(ctx context.Context, kind candidate.Kind) error {
	d := p.delay[kind]
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *Provider) Search(ctx context.Context, c provider.Criteria) ([]candidate.Candidate, error) {
	if p.closed.Load() {
		return nil, provider.Errorf(Name, provider.KindUnavailable, "provider closed")
	}
	if err := p.wait(ctx, c.Kind); err != nil {
		return nil, err
	}
	if err := p.searchFail[c.Kind]; err != nil {
		return nil, err
	}

	var src []candidate.Candidate
	switch c.Kind {
	case candidate.KindFlight:
		src = p.data.Flights
	case candidate.KindHotel:
		src = p.data.Hotels
	case candidate.KindActivity:
		src = p.data.Activities
	default:
		return nil, provider.Errorf(Name, provider.KindInvalidResponse, "unsupported kind %q", c.Kind)
	}

	out := make([]candidate.Candidate, len(src))
	copy(out, src)
	for i := range out {
		if out[i].Provider == "" {
			out[i].Provider = Name
		}
		out[i].Guests = c.Guests
		if out[i].Kind == candidate.KindActivity && out[i].Location == "" {
			out[i].Location = CityCentre
		}
	}
	return out, nil
}

// Reserve confirms any candidate with code CONF-<id> unless a failure was
// injected for it. The provider returns no reference of its own.
func (p *Provider) Reserve(ctx context.Context, c candidate.Candidate) (provider.Reservation, error) {
	p.reserveCalls.Add(1)
	if err := p.wait(ctx, c.Kind); err != nil {
		return provider.Reservation{}, err
	}
	if err := p.reserveFail[c.ID]; err != nil {
		return provider.Reservation{}, err
	}

	conf := "CONF-" + c.ID
	p.mu.Lock()
	p.active[conf] = c.ID
	p.mu.Unlock()
	return provider.Reservation{Confirmation: conf}, nil
}

// Cancel releases a reservation by its confirmation code.
func (p *Provider) Cancel(_ context.Context, reference string) error {
	if p.cancelFail != nil {
		return p.cancelFail
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.active[reference]; !ok {
		return provider.Errorf(Name, provider.KindInvalidResponse, "unknown reservation %q", reference)
	}
	delete(p.active, reference)
	return nil
}

// ReserveCalls reports how many reserve calls reached the provider.
func (p *Provider) ReserveCalls() int {
	return int(p.reserveCalls.Load())
}

// Active reports whether the confirmation is currently held.
func (p *Provider) Active(confirmation string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.active[confirmation]
	return ok
}

// Synthesize writes a plain day-by-day summary.
func (p *Provider) Synthesize(ctx context.Context, sc provider.SynthesisContext) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.synthFail != nil {
		return "", p.synthFail
	}

	var b strings.Builder
	fmt.Fprintf(&b, "A %s trip to %s", sc.Style, sc.Destination)
	if sc.Hotel != "" {
		fmt.Fprintf(&b, ", staying at %s", sc.Hotel)
	}
	b.WriteString(".\n")
	for i, d := range sc.Days {
		if len(d.Activities) == 0 {
			fmt.Fprintf(&b, "Day %d (%s): free day.\n", i+1, d.Date.Format(time.DateOnly))
			continue
		}
		fmt.Fprintf(&b, "Day %d (%s): %s.\n", i+1, d.Date.Format(time.DateOnly), strings.Join(d.Activities, ", "))
	}
	return b.String(), nil
}

func (p *Provider) Close() error {
	p.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (p *Provider) Closed() bool {
	return p.closed.Load()
}

// Set exposes p as every capability of a provider.Set.
func (p *Provider) Set() *provider.Set {
	return &provider.Set{
		Flights:     p,
		Hotels:      p,
		Activities:  p,
		Synthesizer: p,
		Reservers: provider.Reservers{
			candidate.KindFlight:   p,
			candidate.KindHotel:    p,
			candidate.KindActivity: p,
		},
		Closers: []io.Closer{p},
	}
}
