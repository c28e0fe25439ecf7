// Package drift implements the stick drift compensation engine: a stateful
// per-stick pipeline that turns raw analog stick readings into corrected
// output plus rolling quality metrics.
//
// The pipeline runs once per input frame and applies, in order: adaptive
// center tracking, elliptical deadzone removal, anti-deadzone floor
// injection, gamma response shaping and temporal smoothing. Every division
// is guarded and out-of-range configuration is clamped at point of use, so
// the per-frame path never fails.
//
// A StickProcessor owns exactly one stick's state and is not safe for
// concurrent use; callers that process multiple controllers must give each
// DriftCompensator a single logical owner.
package drift
