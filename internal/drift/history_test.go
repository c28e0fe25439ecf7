package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMagnitudeRingAppendAndOrder(t *testing.T) {
	t.Parallel()

	ring := newMagnitudeRing(4)
	assert.Zero(t, ring.Len())
	assert.Nil(t, ring.Values())

	ring.Push(1)
	ring.Push(2)
	ring.Push(3)
	assert.Equal(t, 3, ring.Len())
	assert.Equal(t, []float64{1, 2, 3}, ring.Values())
}

func TestMagnitudeRingEvictsOldest(t *testing.T) {
	t.Parallel()

	ring := newMagnitudeRing(3)
	for v := 1.0; v <= 5; v++ {
		ring.Push(v)
	}
	require.Equal(t, 3, ring.Len())
	assert.Equal(t, []float64{3, 4, 5}, ring.Values())

	ring.Push(6)
	assert.Equal(t, []float64{4, 5, 6}, ring.Values())
}

func TestMagnitudeRingNeverExceedsHistoryCapacity(t *testing.T) {
	t.Parallel()

	ring := newMagnitudeRing(historyCapacity)
	for i := 0; i < historyCapacity*3; i++ {
		ring.Push(float64(i))
	}
	assert.Equal(t, historyCapacity, ring.Len())
	values := ring.Values()
	assert.Len(t, values, historyCapacity)
	assert.Equal(t, float64(historyCapacity*2), values[0])
	assert.Equal(t, float64(historyCapacity*3-1), values[historyCapacity-1])
}

func TestMagnitudeRingMinimumCapacity(t *testing.T) {
	t.Parallel()

	ring := newMagnitudeRing(0)
	ring.Push(1)
	ring.Push(2)
	assert.Equal(t, []float64{2}, ring.Values())
}
