// Package profile provides controller calibration profiles: building
// per-axis calibrations from neutral-position samples, grading the result,
// and persisting profiles as JSON documents.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/driftline/internal/drift"
)

// ErrNoSamples is returned when a calibration is requested from an empty
// sample batch. Sample collection is the caller's responsibility; the
// numeric pipeline never sees an empty batch.
var ErrNoSamples = errors.New("profile: no neutral samples collected")

// AxisCalibration holds one axis's neutral center and deadzone radius.
// Values are immutable once built and round to six decimals on disk.
type AxisCalibration struct {
	Axis     int     `json:"axis"`
	Center   float64 `json:"center"`
	Deadzone float64 `json:"deadzone"`
}

// MarshalJSON rounds center and deadzone to six decimals, matching the
// stored document format.
func (c AxisCalibration) MarshalJSON() ([]byte, error) {
	type axisDoc struct {
		Axis     int     `json:"axis"`
		Center   float64 `json:"center"`
		Deadzone float64 `json:"deadzone"`
	}
	return json.Marshal(axisDoc{
		Axis:     c.Axis,
		Center:   round6(c.Center),
		Deadzone: round6(c.Deadzone),
	})
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// StickCalibration pairs the X and Y axis calibrations of one stick.
type StickCalibration struct {
	X AxisCalibration `json:"x"`
	Y AxisCalibration `json:"y"`
}

// ControllerProfile is the persisted calibration document for one
// controller: identity, generation timestamp and both stick calibrations.
type ControllerProfile struct {
	ControllerName string
	ControllerGUID string
	GeneratedAt    string
	AxisCount      int
	Left           StickCalibration
	Right          StickCalibration
}

// profileDoc is the on-disk JSON shape, with the stick calibrations nested
// under a "sticks" object.
type profileDoc struct {
	ControllerName string          `json:"controller_name"`
	ControllerGUID string          `json:"controller_guid"`
	GeneratedAt    string          `json:"generated_at"`
	AxisCount      int             `json:"axis_count"`
	Sticks         *profileDocSide `json:"sticks"`
}

type profileDocSide struct {
	Left  StickCalibration `json:"left"`
	Right StickCalibration `json:"right"`
}

// MarshalJSON writes the nested "sticks" document shape.
func (p ControllerProfile) MarshalJSON() ([]byte, error) {
	return json.Marshal(profileDoc{
		ControllerName: p.ControllerName,
		ControllerGUID: p.ControllerGUID,
		GeneratedAt:    p.GeneratedAt,
		AxisCount:      p.AxisCount,
		Sticks: &profileDocSide{
			Left:  p.Left,
			Right: p.Right,
		},
	})
}

// UnmarshalJSON parses the nested document shape and rejects documents
// with a missing or malformed "sticks" object.
func (p *ControllerProfile) UnmarshalJSON(data []byte) error {
	var doc profileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Sticks == nil {
		return fmt.Errorf("profile: invalid document: 'sticks' missing or malformed")
	}

	p.ControllerName = doc.ControllerName
	p.ControllerGUID = doc.ControllerGUID
	p.GeneratedAt = doc.GeneratedAt
	p.AxisCount = doc.AxisCount
	p.Left = doc.Sticks.Left
	p.Right = doc.Sticks.Right
	return nil
}

// ControllerInfo identifies a connected controller as reported by the
// hardware-input collaborator.
type ControllerInfo struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	GUID        string `json:"guid"`
	AxisCount   int    `json:"axis_count"`
	ButtonCount int    `json:"button_count"`
	HatCount    int    `json:"hat_count"`
}

// BuildAxisCalibration derives one axis's calibration from raw readings
// captured while the stick was untouched. The center is the sample mean;
// the deadzone covers the 95th-percentile neutral noise plus margin and is
// kept within [0.03, 0.35].
func BuildAxisCalibration(samples []float64, axis int) (AxisCalibration, error) {
	if len(samples) == 0 {
		return AxisCalibration{}, ErrNoSamples
	}

	var sum float64
	for _, v := range samples {
		sum += v
	}
	center := sum / float64(len(samples))

	deviations := make([]float64, len(samples))
	for i, v := range samples {
		deviations[i] = math.Abs(v - center)
	}
	p95 := drift.Percentile(deviations, 0.95)

	// P95 neutral noise plus margin yields a stable deadzone for drift.
	deadzone := drift.Clamp(p95*2.2+0.01, 0.03, 0.35)

	return AxisCalibration{Axis: axis, Center: center, Deadzone: deadzone}, nil
}

// RuntimeConfig derives the initial per-stick runtime config from a stick
// calibration. The caller may tune the result live afterwards.
func RuntimeConfig(stick StickCalibration) drift.StickRuntimeConfig {
	return drift.NewStickRuntimeConfig(stick.X.Center, stick.Y.Center, stick.X.Deadzone, stick.Y.Deadzone)
}

// RuntimeConfigs derives both sticks' runtime configs from a profile.
func RuntimeConfigs(p ControllerProfile) (left, right drift.StickRuntimeConfig) {
	return RuntimeConfig(p.Left), RuntimeConfig(p.Right)
}

// CompensateAxis is the simple one-dimensional fallback compensation used
// by the basic CLI apply path: subtract the center, zero inside the
// deadzone and rescale the remainder to [0, 1], preserving sign.
func CompensateAxis(value float64, calibration AxisCalibration) float64 {
	shifted := value - calibration.Center
	magnitude := math.Abs(shifted)

	if magnitude <= calibration.Deadzone {
		return 0
	}

	normalized := (magnitude - calibration.Deadzone) / math.Max(1e-6, 1.0-calibration.Deadzone)
	normalized = drift.Clamp(normalized, 0.0, 1.0)
	return math.Copysign(normalized, shifted)
}
