package assign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homesolution/homesolution/internal/domain"
)

func workers(delays ...int) []*domain.Worker {
	out := make([]*domain.Worker, len(delays))
	for i, d := range delays {
		out[i] = &domain.Worker{ID: i + 1, Name: "w", Kind: domain.WorkerHourly, HourlyRate: 1, Delays: d}
	}
	return out
}

func TestFirstAvailable(t *testing.T) {
	ws := workers(0, 0, 0)
	ws[0].Assigned = true

	got, err := FirstAvailable(ws)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ID)
}

func TestFirstAvailable_OrderIndependent(t *testing.T) {
	ws := workers(0, 0, 0)
	shuffled := []*domain.Worker{ws[2], ws[0], ws[1]}

	got, err := FirstAvailable(shuffled)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ID)
	assert.Equal(t, 3, shuffled[0].ID, "input slice is not reordered")
}

func TestFewestDelays(t *testing.T) {
	ws := workers(3, 1, 2)
	for i := 0; i < 5; i++ {
		got, err := FewestDelays(ws)
		require.NoError(t, err)
		assert.Equal(t, 2, got.ID)
		assert.Equal(t, 1, got.Delays)
	}
}

func TestFewestDelays_TieGoesToLowestID(t *testing.T) {
	ws := workers(2, 1, 1, 1)
	ws[1].Assigned = true

	got, err := FewestDelays([]*domain.Worker{ws[3], ws[2], ws[1], ws[0]})
	require.NoError(t, err)
	assert.Equal(t, 3, got.ID)
}

func TestFewestDelays_SkipsAssigned(t *testing.T) {
	ws := workers(0, 5)
	ws[0].Assigned = true

	got, err := FewestDelays(ws)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ID)
}

func TestNoWorkerAvailable(t *testing.T) {
	ws := workers(0, 0)
	for _, w := range ws {
		w.Assigned = true
	}

	for name, p := range map[string]Policy{"first": FirstAvailable, "fewest": FewestDelays} {
		t.Run(name, func(t *testing.T) {
			_, err := p(ws)
			assert.ErrorIs(t, err, domain.ErrNoWorkerAvailable)

			_, err = p(nil)
			assert.ErrorIs(t, err, domain.ErrNoFreeWorker)
		})
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []Name{"", PolicyFirstAvailable, PolicyFewestDelays} {
		_, ok := Lookup(name)
		assert.True(t, ok, name)
	}
	_, ok := Lookup("random")
	assert.False(t, ok)
}
