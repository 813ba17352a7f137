package weighted

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// cyclicSource walks [0, 1) in fixed steps, covering the interval evenly so
// empirical frequencies converge to weight/total without real randomness.
type cyclicSource struct {
	n    int
	next int
}

func (s *cyclicSource) Float64() float64 {
	v := float64(s.next) / float64(s.n)
	s.next = (s.next + 1) % s.n
	return v
}

func TestPickConvergesToWeights(t *testing.T) {
	items := []Item{
		{ID: "small", Weight: 1},
		{ID: "medium", Weight: 3},
		{ID: "large", Weight: 6},
	}

	const draws = 10000
	src := &cyclicSource{n: draws}

	counts := map[string]int{}
	for i := 0; i < draws; i++ {
		id, err := Pick(items, src)
		require.NoError(t, err)
		counts[id]++
	}

	require.InDelta(t, 0.10, float64(counts["small"])/draws, 0.01)
	require.InDelta(t, 0.30, float64(counts["medium"])/draws, 0.01)
	require.InDelta(t, 0.60, float64(counts["large"])/draws, 0.01)
}

func TestPickSingleItem(t *testing.T) {
	id, err := Pick([]Item{{ID: "only", Weight: 42}}, SourceFunc(func() float64 { return 0.999 }))
	require.NoError(t, err)
	require.Equal(t, "only", id)
}

func TestPickEmptyList(t *testing.T) {
	_, err := Pick(nil, SourceFunc(func() float64 { return 0 }))
	require.ErrorIs(t, err, ErrNoItems)
}

func TestPickInvalidWeights(t *testing.T) {
	src := SourceFunc(func() float64 { return 0 })

	for _, weight := range []float64{0, -1, math.Inf(1), math.NaN()} {
		_, err := Pick([]Item{{ID: "a", Weight: weight}}, src)
		require.ErrorIs(t, err, ErrInvalidWeight)
	}
}

func TestPickEmptyID(t *testing.T) {
	_, err := Pick([]Item{{ID: "", Weight: 1}}, SourceFunc(func() float64 { return 0 }))
	require.ErrorIs(t, err, ErrInvalidID)
}

func TestPickBadSource(t *testing.T) {
	items := []Item{{ID: "a", Weight: 1}}

	_, err := Pick(items, SourceFunc(func() float64 { return 1 }))
	require.ErrorIs(t, err, ErrBadSource)

	_, err = Pick(items, SourceFunc(func() float64 { return -0.1 }))
	require.ErrorIs(t, err, ErrBadSource)
}

func TestPickBoundaries(t *testing.T) {
	items := []Item{
		{ID: "first", Weight: 1},
		{ID: "second", Weight: 1},
	}

	id, err := Pick(items, SourceFunc(func() float64 { return 0 }))
	require.NoError(t, err)
	require.Equal(t, "first", id)

	id, err = Pick(items, SourceFunc(func() float64 { return 0.5 }))
	require.NoError(t, err)
	require.Equal(t, "second", id)
}
