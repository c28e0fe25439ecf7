package monitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/driftline/internal/drift"
	"github.com/banshee-data/driftline/internal/session"
	"github.com/banshee-data/driftline/internal/timeutil"
)

func snapshotAt(frame int64, driftIdx float64) session.Snapshot {
	metrics := drift.StickMetrics{DriftIndex: driftIdx, JitterIndex: 1.1, Suppression: 85}
	return session.Snapshot{
		SessionID: "plot-test",
		Frames:    frame,
		Left:      drift.StickProcessed{Metrics: metrics},
		Right:     drift.StickProcessed{Metrics: metrics},
	}
}

func TestPlotterIgnoresObservationsWhenIdle(t *testing.T) {
	t.Parallel()
	mp := NewMetricsPlotter()

	mp.Observe(snapshotAt(1, 5))
	assert.Zero(t, mp.SampleCount())
}

func TestPlotterDeduplicatesFrames(t *testing.T) {
	t.Parallel()
	mp := NewMetricsPlotter()
	require.NoError(t, mp.Start(t.TempDir()))

	mp.Observe(snapshotAt(1, 5))
	mp.Observe(snapshotAt(1, 5))
	mp.Observe(snapshotAt(2, 6))

	assert.Equal(t, 2, mp.SampleCount())
}

func TestPlotterGeneratesPNGPerSide(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	mp := NewMetricsPlotter()
	require.NoError(t, mp.Start(dir))

	for frame := int64(1); frame <= 30; frame++ {
		mp.Observe(snapshotAt(frame, 5+float64(frame)*0.1))
	}
	mp.Stop()

	count, err := mp.GeneratePlots()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	for _, side := range []string{"left", "right"} {
		info, err := os.Stat(filepath.Join(dir, "metrics_"+side+".png"))
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestPlotterSamplesRunningSession(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(start)
	runner := session.NewRunner(session.NewSyntheticSource(3), session.Config{
		Rate:        60,
		LeftConfig:  drift.NewStickRuntimeConfig(0, 0, 0.1, 0.1),
		RightConfig: drift.NewStickRuntimeConfig(0, 0, 0.1, 0.1),
		Clock:       clock,
	})

	mp := NewMetricsPlotter()
	require.NoError(t, mp.Start(t.TempDir()))

	ws := NewWebServer(WebServerConfig{
		Address: "127.0.0.1:0",
		Runner:  runner,
		Plotter: mp,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ws.Start(ctx)
	}()
	go func() { _ = runner.Run(ctx) }()

	// Drive frames through the session; the server's sampling loop runs on
	// real time and should pick them up.
	period := time.Second / 60
	require.Eventually(t, func() bool {
		clock.Advance(period)
		return mp.SampleCount() >= 5
	}, 5*time.Second, time.Millisecond)

	cancel()
	<-done
}

func TestPlotterRequiresStart(t *testing.T) {
	t.Parallel()
	mp := NewMetricsPlotter()

	_, err := mp.GeneratePlots()
	assert.Error(t, err)
}
