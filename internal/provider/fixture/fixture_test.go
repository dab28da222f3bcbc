package fixture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/trip-orchestrator/internal/candidate"
	"github.com/nekogravitycat/trip-orchestrator/internal/provider"
)

func TestSearchByKind(t *testing.T) {
	p := New(Paris())
	ctx := context.Background()

	flights, err := p.Search(ctx, provider.Criteria{Kind: candidate.KindFlight, Guests: 2})
	require.NoError(t, err)
	assert.Len(t, flights, 4)
	assert.Equal(t, 2, flights[0].Guests)

	acts, err := p.Search(ctx, provider.Criteria{Kind: candidate.KindActivity})
	require.NoError(t, err)
	for _, a := range acts {
		assert.Equal(t, candidate.KindActivity, a.Kind)
		assert.NotEmpty(t, a.Location)
		assert.Equal(t, Name, a.Provider)
	}

	_, err = p.Search(ctx, provider.Criteria{Kind: "train"})
	assert.Equal(t, provider.KindInvalidResponse, provider.KindOf(err))
}

func TestSearchDelayHonoursDeadline(t *testing.T) {
	p := New(Paris(), WithDelay(candidate.KindActivity, time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Search(ctx, provider.Criteria{Kind: candidate.KindActivity})
	require.Error(t, err)
	assert.Equal(t, provider.KindTimeout, provider.KindOf(err))
}

func TestSearchInjectedFailure(t *testing.T) {
	down := provider.Errorf(Name, provider.KindUnavailable, "maintenance")
	p := New(Paris(), WithSearchFailure(candidate.KindHotel, down))

	_, err := p.Search(context.Background(), provider.Criteria{Kind: candidate.KindHotel})
	assert.ErrorIs(t, err, down)
}

func TestReserveAndCancel(t *testing.T) {
	boom := errors.New("sold out")
	p := New(Paris(), WithReserveFailure("v124", boom))
	ctx := context.Background()

	res, err := p.Reserve(ctx, candidate.Candidate{ID: "v123", Kind: candidate.KindActivity})
	require.NoError(t, err)
	assert.Equal(t, "CONF-v123", res.Confirmation)
	assert.Empty(t, res.Reference)
	assert.True(t, p.Active("CONF-v123"))

	_, err = p.Reserve(ctx, candidate.Candidate{ID: "v124", Kind: candidate.KindActivity})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, p.ReserveCalls())

	require.NoError(t, p.Cancel(ctx, "CONF-v123"))
	assert.False(t, p.Active("CONF-v123"))

	err = p.Cancel(ctx, "CONF-v123")
	assert.Equal(t, provider.KindInvalidResponse, provider.KindOf(err))
}

func TestSynthesize(t *testing.T) {
	p := New(Data{})
	text, err := p.Synthesize(context.Background(), provider.SynthesisContext{
		Destination: "Paris",
		Style:       "budget",
		Hotel:       "Generator Paris",
		Days: []provider.SynthesisDay{
			{Date: time.Date(2027, 5, 1, 0, 0, 0, 0, time.UTC), Activities: []string{"Louvre Museum"}},
			{Date: time.Date(2027, 5, 2, 0, 0, 0, 0, time.UTC)},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, text, "staying at Generator Paris")
	assert.Contains(t, text, "Day 1 (2027-05-01): Louvre Museum.")
	assert.Contains(t, text, "Day 2 (2027-05-02): free day.")
}

func TestCloseStopsSearches(t *testing.T) {
	p := New(Paris())
	set := p.Set()
	require.NoError(t, set.Close())
	assert.True(t, p.Closed())

	_, err := p.Search(context.Background(), provider.Criteria{Kind: candidate.KindFlight})
	assert.Equal(t, provider.KindUnavailable, provider.KindOf(err))
}
