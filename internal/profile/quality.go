package profile

import "math"

// Tier grades a calibration profile.
type Tier string

const (
	TierGood Tier = "good"
	TierWarn Tier = "warn"
	TierBad  Tier = "bad"
)

// Quality inspects all four axis calibrations and returns a tier plus
// human-readable findings. A profile is bad when any deadzone exceeds 0.30
// or any center offset exceeds 0.35; heavy-but-usable drift grades warn.
func Quality(p ControllerProfile) (Tier, []string) {
	checks := []AxisCalibration{p.Left.X, p.Left.Y, p.Right.X, p.Right.Y}

	var maxDeadzone, maxCenter float64
	for _, axis := range checks {
		if axis.Deadzone > maxDeadzone {
			maxDeadzone = axis.Deadzone
		}
		if c := math.Abs(axis.Center); c > maxCenter {
			maxCenter = c
		}
	}

	var findings []string
	if maxDeadzone > 0.30 {
		findings = append(findings,
			"Very large drift/noise detected (>30% deadzone). You may have moved a stick during calibration.")
	}
	if maxCenter > 0.35 {
		findings = append(findings,
			"Large center offset detected (>0.35). Stick may be held off-center or heavily worn.")
	}
	if len(findings) > 0 {
		return TierBad, findings
	}

	if maxDeadzone > 0.20 || maxCenter > 0.20 {
		findings = append(findings,
			"Calibration is usable but drift appears heavy. Consider recalibrating.")
		return TierWarn, findings
	}

	return TierGood, nil
}

// AxisHealth summarises a single deadzone as a one-word health label.
func AxisHealth(deadzone float64) string {
	switch {
	case deadzone <= 0.08:
		return "good"
	case deadzone <= 0.15:
		return "ok"
	case deadzone <= 0.24:
		return "high"
	default:
		return "severe"
	}
}
