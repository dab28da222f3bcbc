package provider

import (
	"errors"
	"io"

	"golang.org/x/time/rate"

	"github.com/nekogravitycat/trip-orchestrator/internal/candidate"
)

// Set is the group of provider handles one session works with. Synthesizer
// is optional. Closers are released by Close in reverse order.
type Set struct {
	Flights     Searcher
	Hotels      Searcher
	Activities  Searcher
	Synthesizer Synthesizer
	Reservers   Reservers
	Closers     []io.Closer
}

// Searcher returns the searcher for kind, or nil.
func (s *Set) Searcher(kind candidate.Kind) Searcher {
	switch kind {
	case candidate.KindFlight:
		return s.Flights
	case candidate.KindHotel:
		return s.Hotels
	case candidate.KindActivity:
		return s.Activities
	}
	return nil
}

// Close closes every registered closer and joins their errors.
func (s *Set) Close() error {
	var errs []error
	for i := len(s.Closers) - 1; i >= 0; i-- {
		if err := s.Closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.Closers = nil
	return errors.Join(errs...)
}

// Wrap instruments every handle in the set. Searchers are also throttled
// with a limiter from newLimiter when it is not nil.
func (s *Set) Wrap(newLimiter func(name string) *rate.Limiter) {
	wrap := func(src Searcher) Searcher {
		if src == nil {
			return nil
		}
		if newLimiter != nil {
			src = Throttle(src, newLimiter(src.Name()))
		}
		return Instrument(src)
	}
	s.Flights = wrap(s.Flights)
	s.Hotels = wrap(s.Hotels)
	s.Activities = wrap(s.Activities)
	if s.Synthesizer != nil {
		s.Synthesizer = InstrumentSynthesizer(s.Synthesizer)
	}
	for k, r := range s.Reservers {
		s.Reservers[k] = InstrumentReserver(r)
	}
}
