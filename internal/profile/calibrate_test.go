package profile

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedCollector replays one canned sample batch per calibration pass.
type scriptedCollector struct {
	batches []map[int][]float64
	calls   int
}

func (c *scriptedCollector) CollectNeutral(axes []int, _ time.Duration) (map[int][]float64, error) {
	if c.calls >= len(c.batches) {
		return nil, errors.New("no more scripted batches")
	}
	batch := c.batches[c.calls]
	c.calls++
	return batch, nil
}

func steadyBatch(noise float64) map[int][]float64 {
	batch := make(map[int][]float64)
	for _, axis := range []int{0, 1, 3, 4} {
		samples := make([]float64, 50)
		for i := range samples {
			if i%2 == 0 {
				samples[i] = noise
			} else {
				samples[i] = -noise
			}
		}
		batch[axis] = samples
	}
	return batch
}

var testInfo = ControllerInfo{
	Index:     0,
	Name:      "Test Pad",
	GUID:      "cafe0123",
	AxisCount: 6,
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
}

func TestCalibrateReturnsFirstGoodPass(t *testing.T) {
	t.Parallel()

	collector := &scriptedCollector{batches: []map[int][]float64{steadyBatch(0.01)}}
	p, err := Calibrate(collector, testInfo, [2]int{0, 1}, [2]int{3, 4}, CalibrateOptions{
		MaxAttempts: 3,
		Now:         fixedNow,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, collector.calls)

	tier, _ := Quality(p)
	assert.Equal(t, TierGood, tier)
	assert.Equal(t, "Test Pad", p.ControllerName)
	assert.Equal(t, "cafe0123", p.ControllerGUID)
	assert.Equal(t, fixedNow().Format(time.RFC3339), p.GeneratedAt)
	assert.Equal(t, 0, p.Left.X.Axis)
	assert.Equal(t, 4, p.Right.Y.Axis)
}

func TestCalibrateRetriesBadPasses(t *testing.T) {
	t.Parallel()

	collector := &scriptedCollector{batches: []map[int][]float64{
		steadyBatch(0.5),  // stick moved mid-pass, grades bad
		steadyBatch(0.01), // clean retry
	}}
	p, err := Calibrate(collector, testInfo, [2]int{0, 1}, [2]int{3, 4}, CalibrateOptions{
		MaxAttempts: 3,
		Now:         fixedNow,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, collector.calls)

	tier, _ := Quality(p)
	assert.Equal(t, TierGood, tier)
}

func TestCalibrateKeepsLastBadAttempt(t *testing.T) {
	t.Parallel()

	collector := &scriptedCollector{batches: []map[int][]float64{
		steadyBatch(0.5),
		steadyBatch(0.5),
	}}
	p, err := Calibrate(collector, testInfo, [2]int{0, 1}, [2]int{3, 4}, CalibrateOptions{
		MaxAttempts: 2,
		Now:         fixedNow,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, collector.calls)

	tier, _ := Quality(p)
	assert.Equal(t, TierBad, tier)
}

func TestCalibrateWarnReturnsUnlessRetryRequested(t *testing.T) {
	t.Parallel()

	// Deadzone lands in the warn band: deviations of 0.1 give
	// p95*2.2+0.01 ~= 0.23.
	warnBatch := steadyBatch(0.1)

	collector := &scriptedCollector{batches: []map[int][]float64{warnBatch, steadyBatch(0.01)}}
	p, err := Calibrate(collector, testInfo, [2]int{0, 1}, [2]int{3, 4}, CalibrateOptions{
		MaxAttempts: 3,
		Now:         fixedNow,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, collector.calls)
	tier, _ := Quality(p)
	assert.Equal(t, TierWarn, tier)

	retry := &scriptedCollector{batches: []map[int][]float64{warnBatch, steadyBatch(0.01)}}
	p, err = Calibrate(retry, testInfo, [2]int{0, 1}, [2]int{3, 4}, CalibrateOptions{
		MaxAttempts: 3,
		RetryOnWarn: true,
		Now:         fixedNow,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, retry.calls)
	tier, _ = Quality(p)
	assert.Equal(t, TierGood, tier)
}

func TestCalibratePropagatesCollectorErrors(t *testing.T) {
	t.Parallel()

	collector := &scriptedCollector{}
	_, err := Calibrate(collector, testInfo, [2]int{0, 1}, [2]int{3, 4}, CalibrateOptions{})
	assert.Error(t, err)
}

func TestCalibrateRejectsEmptyAxisSamples(t *testing.T) {
	t.Parallel()

	batch := steadyBatch(0.01)
	batch[3] = nil // one axis produced nothing
	collector := &scriptedCollector{batches: []map[int][]float64{batch}}

	_, err := Calibrate(collector, testInfo, [2]int{0, 1}, [2]int{3, 4}, CalibrateOptions{})
	assert.ErrorIs(t, err, ErrNoSamples)
}
