package candidate

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/trip-orchestrator/internal/constraint"
)

type Kind string

const (
	KindFlight   Kind = "flight"
	KindHotel    Kind = "hotel"
	KindActivity Kind = "activity"
)

// TimeWindow is a fixed time of day, as offsets from midnight.
type TimeWindow struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
}

// Candidate is one option returned by a provider. Values are snapshots and
// are never mutated after retrieval.
type Candidate struct {
	ID       string            `json:"id"`
	Kind     Kind              `json:"kind"`
	Provider string            `json:"provider"`
	Name     string            `json:"name"`
	Price    decimal.Decimal   `json:"price"` // nightly rate for hotels
	Location string            `json:"location"`
	Tags     constraint.TagSet `json:"tags"`

	// Guests is the party size the offer was quoted for.
	Guests int `json:"guests,omitempty"`

	// Activities only. Zero Duration means the scheduler default.
	Duration time.Duration `json:"duration,omitempty"`
	Window   *TimeWindow   `json:"window,omitempty"`

	Payload json.RawMessage `json:"payload,omitempty"`
}

// EffectivePrice is the cost of the candidate for a trip of the given nights.
func (c Candidate) EffectivePrice(nights int) decimal.Decimal {
	if c.Kind != KindHotel {
		return c.Price
	}
	if nights < 0 {
		nights = 0
	}
	return c.Price.Mul(decimal.NewFromInt(int64(nights)))
}

// Units is how much provider capacity a reservation of c takes.
func (c Candidate) Units() int {
	return max(c.Guests, 1)
}

// Ranked is a candidate annotated with its score against the traveler's
// constraints.
type Ranked struct {
	Candidate
	Score      float64  `json:"score"`
	Matches    []string `json:"matches,omitempty"`
	Violations []string `json:"violations,omitempty"`
}
