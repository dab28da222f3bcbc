package itinerary

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/trip-orchestrator/internal/candidate"
	"github.com/nekogravitycat/trip-orchestrator/internal/constraint"
)

// Options tune how activities are laid out over the days.
type Options struct {
	MaxPerDay       int
	DayStart        time.Duration // offset from midnight
	DayEnd          time.Duration
	DefaultDuration time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxPerDay:       3,
		DayStart:        9 * time.Hour,
		DayEnd:          21 * time.Hour,
		DefaultDuration: 2 * time.Hour,
	}
}

// Assembler composes ranked candidates into a budget-feasible itinerary.
type Assembler struct {
	opts Options
	now  func() time.Time
}

func NewAssembler(opts Options) *Assembler {
	d := DefaultOptions()
	if opts.MaxPerDay <= 0 {
		opts.MaxPerDay = d.MaxPerDay
	}
	if opts.DayEnd <= opts.DayStart {
		opts.DayStart, opts.DayEnd = d.DayStart, d.DayEnd
	}
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = d.DefaultDuration
	}
	return &Assembler{opts: opts, now: time.Now}
}

// ledger tracks spend against the budget. It has exactly one writer: the
// Assemble call that owns it.
type ledger struct {
	budget decimal.Decimal
	spent  decimal.Decimal
}

func (l *ledger) remaining() decimal.Decimal { return l.budget.Sub(l.spent) }

// charge books amount if it fits. Spending exactly the budget is allowed.
func (l *ledger) charge(amount decimal.Decimal) bool {
	if l.spent.Add(amount).GreaterThan(l.budget) {
		return false
	}
	l.spent = l.spent.Add(amount)
	return true
}

// Assemble picks a flight, a hotel and activities greedily in rank order.
// The inputs must already be ranked best first.
func (a *Assembler) Assemble(req constraint.Request, flights, hotels, activities []candidate.Ranked) (*Itinerary, error) {
	led := &ledger{budget: req.Preferences.Budget()}
	nights := req.Nights()

	it := &Itinerary{
		ID:        uuid.NewString(),
		Request:   req,
		Nights:    nights,
		CreatedAt: a.now().UTC(),
	}

	flight, ok := pickFirst(flights, led, 0)
	if !ok {
		return nil, ErrNoFeasibleFlight
	}
	it.Flight = flight

	if nights > 0 {
		hotel, ok := pickFirst(hotels, led, nights)
		if !ok {
			return nil, ErrNoFeasibleHotel
		}
		it.Hotel = &hotel
	}

	it.Days = a.schedule(req, activities, led)
	it.TotalCost = led.spent
	it.Complete = it.ActivityCount() > 0

	if it.TotalCost.GreaterThan(req.Preferences.Budget()) {
		return nil, ErrBudgetExceeded
	}
	return it, nil
}

func pickFirst(ranked []candidate.Ranked, led *ledger, nights int) (candidate.Ranked, bool) {
	for _, r := range ranked {
		if led.charge(r.EffectivePrice(nights)) {
			return r, true
		}
	}
	return candidate.Ranked{}, false
}

func (a *Assembler) schedule(req constraint.Request, activities []candidate.Ranked, led *ledger) []Day {
	dates := req.Days()
	days := make([]Day, len(dates))
	for i, d := range dates {
		days[i] = Day{Date: d, Items: []Item{}}
	}
	if len(days) == 0 {
		return days
	}

	covered := 0
	for _, act := range activities {
		if covered == len(days) {
			break
		}
		if act.Price.GreaterThan(led.remaining()) {
			continue
		}
		for i := range days {
			if len(days[i].Items) >= a.opts.MaxPerDay {
				continue
			}
			start, end, ok := a.slotFor(days[i], act.Candidate, req.StartDate, req.EndDate)
			if !ok {
				continue
			}
			led.charge(act.Price)
			if len(days[i].Items) == 0 {
				covered++
			}
			days[i].Items = insertSorted(days[i].Items, Item{Candidate: act, Start: start, End: end})
			break
		}
	}
	return days
}

// slotFor finds where c fits on day: a fixed window must be free as is, a
// flexible activity takes the earliest gap inside opening hours. Opening
// hours are cut to the trip's [tripStart, tripEnd) on arrival and departure
// days.
func (a *Assembler) slotFor(day Day, c candidate.Candidate, tripStart, tripEnd time.Time) (time.Time, time.Time, bool) {
	open := day.Date.Add(a.opts.DayStart)
	if tripStart.After(open) {
		open = tripStart
	}
	closeAt := day.Date.Add(a.opts.DayEnd)
	if tripEnd.Before(closeAt) {
		closeAt = tripEnd
	}
	if !closeAt.After(open) {
		return time.Time{}, time.Time{}, false
	}

	if c.Window != nil {
		start := day.Date.Add(c.Window.Start)
		end := day.Date.Add(c.Window.End)
		if !end.After(start) || start.Before(open) || end.After(closeAt) || !free(day.Items, start, end) {
			return time.Time{}, time.Time{}, false
		}
		return start, end, true
	}

	dur := c.Duration
	if dur <= 0 {
		dur = a.opts.DefaultDuration
	}
	start := open
	for _, item := range day.Items {
		if !start.Add(dur).After(item.Start) {
			break
		}
		if item.End.After(start) {
			start = item.End
		}
	}
	end := start.Add(dur)
	if end.After(closeAt) || !free(day.Items, start, end) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func free(items []Item, start, end time.Time) bool {
	for _, it := range items {
		if it.overlaps(start, end) {
			return false
		}
	}
	return true
}

func insertSorted(items []Item, item Item) []Item {
	i := 0
	for i < len(items) && !items[i].Start.After(item.Start) {
		i++
	}
	items = append(items, Item{})
	copy(items[i+1:], items[i:])
	items[i] = item
	return items
}
