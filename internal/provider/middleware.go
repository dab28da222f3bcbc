package provider

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/nekogravitycat/trip-orchestrator/internal/candidate"
	"github.com/nekogravitycat/trip-orchestrator/internal/pkg/metrics"
)

type throttled struct {
	Searcher
	limiter *rate.Limiter
}

// Throttle guards a searcher with a client-side quota. When the limiter has no
// token left the call fails as rate_limited without reaching the provider.
func Throttle(s Searcher, limiter *rate.Limiter) Searcher {
	if limiter == nil {
		return s
	}
	return &throttled{Searcher: s, limiter: limiter}
}

func (t *throttled) Search(ctx context.Context, c Criteria) ([]candidate.Candidate, error) {
	if !t.limiter.Allow() {
		return nil, Errorf(t.Name(), KindRateLimited, "client quota exhausted")
	}
	return t.Searcher.Search(ctx, c)
}

func observe(provider, capability string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
	}
	metrics.ProviderCalls.WithLabelValues(provider, capability, outcome).Inc()
	metrics.ProviderLatency.WithLabelValues(provider, capability).Observe(time.Since(start).Seconds())
}

type instrumentedSearcher struct{ Searcher }

// Instrument records call counts and latency for every search.
func Instrument(s Searcher) Searcher {
	return instrumentedSearcher{s}
}

func (i instrumentedSearcher) Search(ctx context.Context, c Criteria) ([]candidate.Candidate, error) {
	start := time.Now()
	out, err := i.Searcher.Search(ctx, c)
	observe(i.Name(), "search_"+string(c.Kind), start, err)
	return out, err
}

type instrumentedSynthesizer struct{ Synthesizer }

func InstrumentSynthesizer(s Synthesizer) Synthesizer {
	return instrumentedSynthesizer{s}
}

func (i instrumentedSynthesizer) Synthesize(ctx context.Context, sc SynthesisContext) (string, error) {
	start := time.Now()
	out, err := i.Synthesizer.Synthesize(ctx, sc)
	observe(i.Name(), "synthesize", start, err)
	return out, err
}

type instrumentedReserver struct{ Reserver }

func InstrumentReserver(r Reserver) Reserver {
	return instrumentedReserver{r}
}

func (i instrumentedReserver) Reserve(ctx context.Context, c candidate.Candidate) (Reservation, error) {
	start := time.Now()
	out, err := i.Reserver.Reserve(ctx, c)
	observe(i.Name(), "reserve_"+string(c.Kind), start, err)
	return out, err
}

func (i instrumentedReserver) Cancel(ctx context.Context, reference string) error {
	start := time.Now()
	err := i.Reserver.Cancel(ctx, reference)
	observe(i.Name(), "cancel", start, err)
	return err
}
