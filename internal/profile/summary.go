package profile

import (
	"fmt"
	"strings"
)

// Summary renders a human-readable calibration summary, one line per axis
// plus the overall drift grade and any findings.
func Summary(p ControllerProfile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Calibration summary\n")
	fmt.Fprintf(&b, "-------------------\n")
	fmt.Fprintf(&b, "Controller: %s\n", p.ControllerName)
	fmt.Fprintf(&b, "Generated:  %s\n", p.GeneratedAt)

	rows := []struct {
		side, axisName string
		axis           AxisCalibration
	}{
		{"Left", "X", p.Left.X},
		{"Left", "Y", p.Left.Y},
		{"Right", "X", p.Right.X},
		{"Right", "Y", p.Right.Y},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "%-5s %s axis %2d center %+.4f deadzone %.3f (%s)\n",
			row.side, row.axisName, row.axis.Axis, row.axis.Center, row.axis.Deadzone,
			AxisHealth(row.axis.Deadzone))
	}

	tier, findings := Quality(p)
	switch tier {
	case TierGood:
		fmt.Fprintf(&b, "Drift grade: stable\n")
	case TierWarn:
		fmt.Fprintf(&b, "Drift grade: heavy but compensated\n")
	default:
		fmt.Fprintf(&b, "Drift grade: severe\n")
	}
	for _, finding := range findings {
		fmt.Fprintf(&b, "Note: %s\n", finding)
	}
	if tier == TierBad {
		fmt.Fprintf(&b, "Recommendation: if drift stays severe, hardware replacement may be needed.\n")
	}

	return b.String()
}
