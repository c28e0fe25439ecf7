package drift

// Default tuning values. These match the shipped slider defaults; callers
// building a config by hand should start from NewStickRuntimeConfig.
const (
	DefaultManualDeadzone       = 0.08
	DefaultAntiDeadzone         = 0.02
	DefaultResponseGamma        = 1.0
	DefaultSmoothing            = 0.35
	DefaultAdaptiveLearningRate = 0.015
	DefaultAdaptiveLimit        = 0.14
	DefaultNeutralCaptureRadius = 0.24
)

// StickRuntimeConfig carries all tunable parameters for one stick. It is a
// plain value: the caller may rebuild or mutate it between frames (live
// slider state), and the processor clamps every field at point of use
// rather than validating up front.
type StickRuntimeConfig struct {
	// Base neutral position, used as-is.
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`

	// Calibrated deadzone radii, used when AutoDeadzone is set.
	// Clamped to [0.01, 0.60].
	DeadzoneX float64 `json:"deadzone_x"`
	DeadzoneY float64 `json:"deadzone_y"`

	// AutoDeadzone selects between the calibrated and manual radii.
	AutoDeadzone    bool    `json:"auto_deadzone"`
	ManualDeadzoneX float64 `json:"manual_deadzone_x"`
	ManualDeadzoneY float64 `json:"manual_deadzone_y"`

	// AntiDeadzone is the minimum output floor past the deadzone boundary,
	// clamped to [0, 0.30].
	AntiDeadzone float64 `json:"anti_deadzone"`

	// ResponseGamma is the output curve exponent, clamped to [0.35, 2.5].
	ResponseGamma float64 `json:"response_gamma"`

	// Smoothing sets low-pass strength: 0 is none, values toward 1 filter
	// heavily. The effective per-frame alpha is clamped to [0.03, 1.0].
	Smoothing float64 `json:"smoothing"`

	// AdaptiveCenter enables live re-tracking of the neutral position while
	// the stick is at rest.
	AdaptiveCenter       bool    `json:"adaptive_center"`
	AdaptiveLearningRate float64 `json:"adaptive_learning_rate"`
	AdaptiveLimit        float64 `json:"adaptive_limit"`

	// NeutralCaptureRadius is the centered magnitude below which a reading
	// counts as "at rest" for adaptive tracking and metrics.
	NeutralCaptureRadius float64 `json:"neutral_capture_radius"`
}

// NewStickRuntimeConfig builds a config with the given center and
// calibrated deadzone, and documented defaults for everything else.
func NewStickRuntimeConfig(centerX, centerY, deadzoneX, deadzoneY float64) StickRuntimeConfig {
	return StickRuntimeConfig{
		CenterX:              centerX,
		CenterY:              centerY,
		DeadzoneX:            deadzoneX,
		DeadzoneY:            deadzoneY,
		AutoDeadzone:         true,
		ManualDeadzoneX:      DefaultManualDeadzone,
		ManualDeadzoneY:      DefaultManualDeadzone,
		AntiDeadzone:         DefaultAntiDeadzone,
		ResponseGamma:        DefaultResponseGamma,
		Smoothing:            DefaultSmoothing,
		AdaptiveCenter:       true,
		AdaptiveLearningRate: DefaultAdaptiveLearningRate,
		AdaptiveLimit:        DefaultAdaptiveLimit,
		NeutralCaptureRadius: DefaultNeutralCaptureRadius,
	}
}

// ResolvedDeadzone returns the active deadzone radii, each clamped to
// [0.01, 0.60], honouring the AutoDeadzone switch.
func (c StickRuntimeConfig) ResolvedDeadzone() (x, y float64) {
	if c.AutoDeadzone {
		return Clamp(c.DeadzoneX, 0.01, 0.60), Clamp(c.DeadzoneY, 0.01, 0.60)
	}
	return Clamp(c.ManualDeadzoneX, 0.01, 0.60), Clamp(c.ManualDeadzoneY, 0.01, 0.60)
}
