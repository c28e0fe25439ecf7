package profile

import (
	"fmt"
	"time"
)

// SampleCollector supplies neutral-position axis samples. Implementations
// own the hardware access and any user prompting; the calibration policy
// here only consumes the collected batches.
type SampleCollector interface {
	// CollectNeutral samples the given axes for the given duration while
	// the sticks are meant to be untouched. The result maps axis index to
	// its readings; every requested axis must be present and non-empty.
	CollectNeutral(axes []int, duration time.Duration) (map[int][]float64, error)
}

// CalibrateOptions tunes the multi-pass calibration policy.
type CalibrateOptions struct {
	// NeutralDuration is how long each pass samples the untouched sticks.
	NeutralDuration time.Duration

	// MaxAttempts bounds the number of passes. A bad pass is retried
	// automatically while attempts remain; a warn pass is retried only
	// when RetryOnWarn is set. Values below 1 mean a single pass.
	MaxAttempts int

	// RetryOnWarn retries warn-grade passes too. The interactive front-end
	// sets this from a user prompt.
	RetryOnWarn bool

	// Now stamps the generated profile; defaults to time.Now.
	Now func() time.Time
}

// Calibrate runs up to MaxAttempts neutral-sampling passes and builds a
// profile from each, returning the first good one. Bad passes are retried
// automatically for a cleaner sample; the last attempt is returned
// regardless of its grade.
func Calibrate(collector SampleCollector, info ControllerInfo, leftAxes, rightAxes [2]int, opts CalibrateOptions) (ControllerProfile, error) {
	attempts := opts.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var last ControllerProfile
	for attempt := 1; attempt <= attempts; attempt++ {
		axes := []int{leftAxes[0], leftAxes[1], rightAxes[0], rightAxes[1]}
		samples, err := collector.CollectNeutral(axes, opts.NeutralDuration)
		if err != nil {
			return ControllerProfile{}, fmt.Errorf("profile: calibration pass %d: %w", attempt, err)
		}

		p, err := buildProfile(samples, info, leftAxes, rightAxes, now())
		if err != nil {
			return ControllerProfile{}, fmt.Errorf("profile: calibration pass %d: %w", attempt, err)
		}
		last = p

		tier, _ := Quality(p)
		switch {
		case tier == TierGood:
			return p, nil
		case tier == TierBad && attempt < attempts:
			continue
		case tier == TierWarn && attempt < attempts && opts.RetryOnWarn:
			continue
		}
		return p, nil
	}
	return last, nil
}

func buildProfile(samples map[int][]float64, info ControllerInfo, leftAxes, rightAxes [2]int, generatedAt time.Time) (ControllerProfile, error) {
	axisCal := func(axis int) (AxisCalibration, error) {
		return BuildAxisCalibration(samples[axis], axis)
	}

	leftX, err := axisCal(leftAxes[0])
	if err != nil {
		return ControllerProfile{}, err
	}
	leftY, err := axisCal(leftAxes[1])
	if err != nil {
		return ControllerProfile{}, err
	}
	rightX, err := axisCal(rightAxes[0])
	if err != nil {
		return ControllerProfile{}, err
	}
	rightY, err := axisCal(rightAxes[1])
	if err != nil {
		return ControllerProfile{}, err
	}

	return ControllerProfile{
		ControllerName: info.Name,
		ControllerGUID: info.GUID,
		GeneratedAt:    generatedAt.Format(time.RFC3339),
		AxisCount:      info.AxisCount,
		Left:           StickCalibration{X: leftX, Y: leftY},
		Right:          StickCalibration{X: rightX, Y: rightY},
	}, nil
}
