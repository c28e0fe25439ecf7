package session

import (
	"log"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/driftline/internal/drift"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf
// but may be replaced to redirect or mute it in tests.
var Logf func(format string, v ...interface{}) = log.Printf

// Rollup summarises one stick's metrics over a window of frames.
type Rollup struct {
	SessionID string    `json:"session_id"`
	Side      string    `json:"side"`
	Frames    int64     `json:"frames"`
	At        time.Time `json:"at"`

	WindowSize int `json:"window_size"`

	DriftMean         float64 `json:"drift_mean"`
	DriftStdDev       float64 `json:"drift_stddev"`
	JitterMean        float64 `json:"jitter_mean"`
	JitterStdDev      float64 `json:"jitter_stddev"`
	SuppressionMean   float64 `json:"suppression_mean"`
	SuppressionStdDev float64 `json:"suppression_stddev"`
	NeutralP95Last    float64 `json:"neutral_p95_last"`
	CorrectedP95Last  float64 `json:"corrected_p95_last"`
}

// RollupSink receives periodic rollups, typically a database store.
type RollupSink interface {
	RecordRollup(Rollup) error
}

// rollupAggregator accumulates one stick's per-frame metrics until the
// window is flushed.
type rollupAggregator struct {
	side        string
	count       int
	drifts      []float64
	jitters     []float64
	suppression []float64
	lastMetrics drift.StickMetrics
}

func (a *rollupAggregator) observe(m drift.StickMetrics) {
	a.count++
	a.drifts = append(a.drifts, m.DriftIndex)
	a.jitters = append(a.jitters, m.JitterIndex)
	a.suppression = append(a.suppression, m.Suppression)
	a.lastMetrics = m
}

func (a *rollupAggregator) flush(sessionID string, frames int64, now time.Time) Rollup {
	driftMean, driftStd := meanStdDev(a.drifts)
	jitterMean, jitterStd := meanStdDev(a.jitters)
	suppMean, suppStd := meanStdDev(a.suppression)

	rollup := Rollup{
		SessionID:         sessionID,
		Side:              a.side,
		Frames:            frames,
		At:                now,
		WindowSize:        a.count,
		DriftMean:         driftMean,
		DriftStdDev:       driftStd,
		JitterMean:        jitterMean,
		JitterStdDev:      jitterStd,
		SuppressionMean:   suppMean,
		SuppressionStdDev: suppStd,
		NeutralP95Last:    a.lastMetrics.NeutralP95,
		CorrectedP95Last:  a.lastMetrics.CorrectedP95,
	}

	a.count = 0
	a.drifts = a.drifts[:0]
	a.jitters = a.jitters[:0]
	a.suppression = a.suppression[:0]
	return rollup
}

func meanStdDev(xs []float64) (mean, stddev float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	mean = stat.Mean(xs, nil)
	if len(xs) > 1 {
		stddev = stat.StdDev(xs, nil)
	}
	return mean, stddev
}
