package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/driftline/internal/drift"
	"github.com/banshee-data/driftline/internal/timeutil"
)

// DefaultRate is the polling rate used when Config.Rate is unset.
const DefaultRate = 60.0

// defaultRollupWindow is how many frames feed one metrics rollup.
const defaultRollupWindow = 60

// Config configures a session Runner.
type Config struct {
	// Rate is the polling rate in Hz. Defaults to DefaultRate.
	Rate float64

	// LeftConfig and RightConfig are the initial per-stick runtime
	// configs, typically derived from a calibration profile. They can be
	// replaced live via UpdateConfigs.
	LeftConfig  drift.StickRuntimeConfig
	RightConfig drift.StickRuntimeConfig

	// Clock defaults to the real clock; tests inject a mock.
	Clock timeutil.Clock

	// Sink, when set, receives periodic metric rollups.
	Sink RollupSink

	// RollupWindow is the number of frames per rollup. Defaults to
	// defaultRollupWindow.
	RollupWindow int
}

// Snapshot is the latest processed frame pair, published after every tick.
type Snapshot struct {
	SessionID string               `json:"session_id"`
	Frames    int64                `json:"frames"`
	Left      drift.StickProcessed `json:"left"`
	Right     drift.StickProcessed `json:"right"`
}

// Runner owns one controller's compensation loop. All stick state is
// confined to the Run goroutine; the published snapshot and the live
// configs are guarded by a mutex.
type Runner struct {
	id     string
	source Source
	clock  timeutil.Clock
	rate   float64
	sink   RollupSink
	window int

	comp *drift.DriftCompensator

	mu           sync.Mutex
	leftCfg      drift.StickRuntimeConfig
	rightCfg     drift.StickRuntimeConfig
	snapshot     Snapshot
	resetPending bool

	leftAgg  rollupAggregator
	rightAgg rollupAggregator
}

// NewRunner creates a session runner. The session ID is a fresh UUID.
func NewRunner(source Source, cfg Config) *Runner {
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	rate := cfg.Rate
	if rate <= 0 {
		rate = DefaultRate
	}
	window := cfg.RollupWindow
	if window < 1 {
		window = defaultRollupWindow
	}

	id := uuid.NewString()
	return &Runner{
		id:       id,
		source:   source,
		clock:    clock,
		rate:     rate,
		sink:     cfg.Sink,
		window:   window,
		comp:     drift.NewDriftCompensator(),
		leftCfg:  cfg.LeftConfig,
		rightCfg: cfg.RightConfig,
		snapshot: Snapshot{SessionID: id},
		leftAgg:  rollupAggregator{side: "left"},
		rightAgg: rollupAggregator{side: "right"},
	}
}

// ID returns the session UUID.
func (r *Runner) ID() string { return r.id }

// Snapshot returns the most recently published frame pair.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}

// Configs returns the current live runtime configs.
func (r *Runner) Configs() (left, right drift.StickRuntimeConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leftCfg, r.rightCfg
}

// UpdateConfigs replaces the live runtime configs. Takes effect on the
// next frame; no revalidation happens here, the core clamps at use.
func (r *Runner) UpdateConfigs(left, right drift.StickRuntimeConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leftCfg = left
	r.rightCfg = right
}

// Reset discards the compensator state mid-session. The compensator is
// confined to the Run goroutine, so the reset is deferred to the start
// of the next frame rather than applied here.
func (r *Runner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetPending = true
}

// Run polls the source at the configured rate until ctx is cancelled or
// the source fails. The loop owns the wall clock: dt is measured between
// ticks and handed to the core, which clamps it.
func (r *Runner) Run(ctx context.Context) error {
	period := time.Duration(float64(time.Second) / r.rate)
	ticker := r.clock.NewTicker(period)
	defer ticker.Stop()

	last := r.clock.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C():
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = period.Seconds()
			}
			last = now

			if err := r.step(dt, now); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) step(dt float64, now time.Time) error {
	rawLeft, rawRight, err := r.source.ReadSticks()
	if err != nil {
		return fmt.Errorf("session %s: read sticks: %w", r.id, err)
	}

	r.mu.Lock()
	leftCfg, rightCfg := r.leftCfg, r.rightCfg
	pendingReset := r.resetPending
	r.resetPending = false
	r.mu.Unlock()

	if pendingReset {
		r.comp.Reset()
	}

	left, right := r.comp.ProcessPair(rawLeft, rawRight, leftCfg, rightCfg, dt)

	r.mu.Lock()
	r.snapshot.Frames++
	r.snapshot.Left = left
	r.snapshot.Right = right
	snapshot := r.snapshot
	r.mu.Unlock()

	if r.sink != nil {
		r.leftAgg.observe(left.Metrics)
		r.rightAgg.observe(right.Metrics)
		if r.leftAgg.count >= r.window {
			r.flushRollup(&r.leftAgg, snapshot.Frames, now)
			r.flushRollup(&r.rightAgg, snapshot.Frames, now)
		}
	}
	return nil
}

func (r *Runner) flushRollup(agg *rollupAggregator, frames int64, now time.Time) {
	rollup := agg.flush(r.id, frames, now)
	if err := r.sink.RecordRollup(rollup); err != nil {
		Logf("session %s: record rollup: %v", r.id, err)
	}
}
