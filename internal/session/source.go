// Package session drives a drift compensation loop at a fixed polling
// rate: it reads raw stick pairs from a Source, runs them through a
// DriftCompensator and publishes the latest corrected frame plus periodic
// metric rollups.
package session

import (
	"math"
	"math/rand"

	"github.com/banshee-data/driftline/internal/drift"
)

// Source supplies raw stick readings. Device discovery, reconnection and
// axis mapping are the hardware collaborator's concern; the session loop
// only consumes coordinate pairs.
type Source interface {
	// ReadSticks returns the current raw left and right stick coordinates,
	// nominally in [-1, 1] per axis.
	ReadSticks() (left, right drift.Vec2, err error)
}

// SyntheticSource generates a drifting, jittery stick signal for demos,
// replay and tests. Given the same seed it produces the same sequence.
type SyntheticSource struct {
	// DriftLeft and DriftRight are fixed neutral-position offsets,
	// emulating worn centering springs.
	DriftLeft  drift.Vec2
	DriftRight drift.Vec2

	// JitterAmplitude is the peak uniform noise added per axis.
	JitterAmplitude float64

	// WobblePeriodFrames, when positive, superimposes a slow circular
	// wobble of WobbleRadius on the left stick to emulate a user input.
	WobblePeriodFrames int
	WobbleRadius       float64

	rng   *rand.Rand
	frame int
}

// NewSyntheticSource creates a source with typical worn-controller
// characteristics and a deterministic noise stream.
func NewSyntheticSource(seed int64) *SyntheticSource {
	return &SyntheticSource{
		DriftLeft:       drift.Vec2{X: 0.07, Y: -0.04},
		DriftRight:      drift.Vec2{X: -0.05, Y: 0.03},
		JitterAmplitude: 0.015,
		rng:             rand.New(rand.NewSource(seed)),
	}
}

// ReadSticks returns the next synthetic reading. It never fails.
func (s *SyntheticSource) ReadSticks() (left, right drift.Vec2, err error) {
	left = drift.Vec2{
		X: s.DriftLeft.X + s.noise(),
		Y: s.DriftLeft.Y + s.noise(),
	}
	right = drift.Vec2{
		X: s.DriftRight.X + s.noise(),
		Y: s.DriftRight.Y + s.noise(),
	}

	if s.WobblePeriodFrames > 0 {
		phase := 2 * math.Pi * float64(s.frame%s.WobblePeriodFrames) / float64(s.WobblePeriodFrames)
		left.X += s.WobbleRadius * math.Cos(phase)
		left.Y += s.WobbleRadius * math.Sin(phase)
	}

	s.frame++
	return left, right, nil
}

func (s *SyntheticSource) noise() float64 {
	if s.JitterAmplitude == 0 {
		return 0
	}
	return (s.rng.Float64()*2 - 1) * s.JitterAmplitude
}
