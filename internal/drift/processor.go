package drift

import "math"

const (
	// historyCapacity bounds each rolling metrics history.
	historyCapacity = 240

	// Frame-time clamp range. Guards the adaptive filter against zero,
	// negative or abnormally large gaps when the host stalls.
	minFrameDT = 1.0 / 500.0
	maxFrameDT = 0.25

	// nominalFrameDT is the reference frame time the adaptive learning
	// rate is expressed against.
	nominalFrameDT = 1.0 / 60.0

	// Guard thresholds for divisions.
	magnitudeEpsilon   = 1e-9
	denominatorEpsilon = 1e-6
)

// Vec2 is an (x, y) stick coordinate pair.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Mag returns the Euclidean magnitude.
func (v Vec2) Mag() float64 {
	return math.Hypot(v.X, v.Y)
}

// StickMetrics is a per-frame snapshot of rolling quality metrics,
// recomputed from the current history contents on every Process call.
type StickMetrics struct {
	// DriftIndex is the mean corrected output magnitude while at rest,
	// scaled to percent of full deflection.
	DriftIndex float64 `json:"drift_index"`

	// JitterIndex is the population standard deviation of per-frame output
	// displacement, scaled to percent.
	JitterIndex float64 `json:"jitter_index"`

	// Suppression reports how much of the at-rest wobble was removed,
	// in [0, 100].
	Suppression float64 `json:"suppression"`

	// NeutralP95 and CorrectedP95 are the 95th percentiles of the raw and
	// corrected at-rest magnitudes, scaled to percent.
	NeutralP95   float64 `json:"neutral_p95"`
	CorrectedP95 float64 `json:"corrected_p95"`

	// AdaptiveX and AdaptiveY are the current adaptive center offsets,
	// unscaled.
	AdaptiveX float64 `json:"adaptive_x"`
	AdaptiveY float64 `json:"adaptive_y"`
}

// StickProcessed is the per-frame output of a StickProcessor.
type StickProcessed struct {
	Raw         Vec2         `json:"raw"`
	CenteredRaw Vec2         `json:"centered_raw"`
	Corrected   Vec2         `json:"corrected"`
	Metrics     StickMetrics `json:"metrics"`

	// Resolved deadzone radii and effective center used for this frame.
	DeadzoneX        float64 `json:"deadzone_x"`
	DeadzoneY        float64 `json:"deadzone_y"`
	EffectiveCenterX float64 `json:"effective_center_x"`
	EffectiveCenterY float64 `json:"effective_center_y"`
}

// stickState is the mutable state owned by one StickProcessor. It is
// discarded and recreated wholesale on Reset.
type stickState struct {
	adaptiveX float64
	adaptiveY float64
	prevOutX  float64
	prevOutY  float64

	historyRawNeutral *magnitudeRing
	historyOutNeutral *magnitudeRing
	historyOutDelta   *magnitudeRing
}

func newStickState() *stickState {
	return &stickState{
		historyRawNeutral: newMagnitudeRing(historyCapacity),
		historyOutNeutral: newMagnitudeRing(historyCapacity),
		historyOutDelta:   newMagnitudeRing(historyCapacity),
	}
}

// StickProcessor is the stateful compensation pipeline for a single stick.
// Calls to Process must be sequential; the processor does no locking.
type StickProcessor struct {
	state *stickState
}

// NewStickProcessor creates a processor with fresh state.
func NewStickProcessor() *StickProcessor {
	return &StickProcessor{state: newStickState()}
}

// Reset discards all adaptive, smoothing and history state.
func (p *StickProcessor) Reset() {
	p.state = newStickState()
}

// Process runs one frame through the pipeline and returns the corrected
// reading plus a metrics snapshot. dt is the elapsed time in seconds since
// the previous call; it is clamped internally. The step order matters:
// reordering changes the output.
func (p *StickProcessor) Process(raw Vec2, config StickRuntimeConfig, dt float64) StickProcessed {
	dt = Clamp(dt, minFrameDT, maxFrameDT)

	deadzoneX, deadzoneY := config.ResolvedDeadzone()

	effectiveCenterX := config.CenterX + p.state.adaptiveX
	effectiveCenterY := config.CenterY + p.state.adaptiveY

	centeredX := raw.X - effectiveCenterX
	centeredY := raw.Y - effectiveCenterY
	centeredMag := math.Hypot(centeredX, centeredY)

	if config.AdaptiveCenter && centeredMag <= config.NeutralCaptureRadius {
		// Scale the learning rate by dt so the filter's time constant is
		// independent of the host's polling rate.
		frameRateScale := dt / nominalFrameDT
		alpha := Clamp(config.AdaptiveLearningRate*frameRateScale, 0.0005, 0.20)

		targetAdaptiveX := raw.X - config.CenterX
		targetAdaptiveY := raw.Y - config.CenterY

		p.state.adaptiveX += alpha * (targetAdaptiveX - p.state.adaptiveX)
		p.state.adaptiveY += alpha * (targetAdaptiveY - p.state.adaptiveY)

		limit := Clamp(config.AdaptiveLimit, 0.01, 0.35)
		p.state.adaptiveX = Clamp(p.state.adaptiveX, -limit, limit)
		p.state.adaptiveY = Clamp(p.state.adaptiveY, -limit, limit)

		// Recompute with the updated offset. Only done when this branch
		// fires; an unconditional recompute would change the histories.
		effectiveCenterX = config.CenterX + p.state.adaptiveX
		effectiveCenterY = config.CenterY + p.state.adaptiveY
		centeredX = raw.X - effectiveCenterX
		centeredY = raw.Y - effectiveCenterY
		centeredMag = math.Hypot(centeredX, centeredY)
	}

	shapedX, shapedY := applyEllipticalDeadzone(
		centeredX,
		centeredY,
		deadzoneX,
		deadzoneY,
		Clamp(config.AntiDeadzone, 0.0, 0.30),
		Clamp(config.ResponseGamma, 0.35, 2.5),
	)

	// Exponential smoothing: higher smoothing value means stronger
	// filtering, so alpha shrinks as smoothing grows.
	alpha := Clamp(1.0-config.Smoothing, 0.03, 1.0)
	outX := p.state.prevOutX + alpha*(shapedX-p.state.prevOutX)
	outY := p.state.prevOutY + alpha*(shapedY-p.state.prevOutY)

	delta := math.Hypot(outX-p.state.prevOutX, outY-p.state.prevOutY)

	p.state.prevOutX = outX
	p.state.prevOutY = outY

	outMag := math.Hypot(outX, outY)

	if centeredMag <= config.NeutralCaptureRadius {
		p.state.historyRawNeutral.Push(centeredMag)
		p.state.historyOutNeutral.Push(outMag)
	}
	p.state.historyOutDelta.Push(delta)

	return StickProcessed{
		Raw:              raw,
		CenteredRaw:      Vec2{X: centeredX, Y: centeredY},
		Corrected:        Vec2{X: outX, Y: outY},
		Metrics:          p.buildMetrics(),
		DeadzoneX:        deadzoneX,
		DeadzoneY:        deadzoneY,
		EffectiveCenterX: effectiveCenterX,
		EffectiveCenterY: effectiveCenterY,
	}
}

func (p *StickProcessor) buildMetrics() StickMetrics {
	rawNeutral := p.state.historyRawNeutral.Values()
	outNeutral := p.state.historyOutNeutral.Values()
	deltas := p.state.historyOutDelta.Values()

	rawMean := mean(rawNeutral)
	outMean := mean(outNeutral)

	var suppression float64
	if rawMean > denominatorEpsilon {
		suppression = Clamp(1.0-outMean/rawMean, 0.0, 1.0) * 100.0
	} else if outMean == 0.0 {
		suppression = 100.0
	}

	return StickMetrics{
		DriftIndex:   outMean * 100.0,
		JitterIndex:  popStdDev(deltas) * 100.0,
		Suppression:  suppression,
		NeutralP95:   Percentile(rawNeutral, 0.95) * 100.0,
		CorrectedP95: Percentile(outNeutral, 0.95) * 100.0,
		AdaptiveX:    p.state.adaptiveX,
		AdaptiveY:    p.state.adaptiveY,
	}
}

// applyEllipticalDeadzone removes the deadzone ellipse defined by the per-
// axis radii, remaps the remaining range to [0,1], injects the
// anti-deadzone floor and applies the gamma response curve. The direction
// of the input is preserved.
func applyEllipticalDeadzone(x, y, deadzoneX, deadzoneY, antiDeadzone, gamma float64) (float64, float64) {
	magnitude := math.Hypot(x, y)
	if magnitude <= magnitudeEpsilon {
		return 0, 0
	}

	ux := x / magnitude
	uy := y / magnitude

	dx := Clamp(deadzoneX, 0.001, 0.95)
	dy := Clamp(deadzoneY, 0.001, 0.95)

	// Radius of the deadzone ellipse along the input direction.
	boundary := 1.0 / math.Sqrt((ux*ux)/(dx*dx)+(uy*uy)/(dy*dy))
	boundary = Clamp(boundary, 0.0, 0.95)

	if magnitude <= boundary {
		return 0, 0
	}

	normalized := (magnitude - boundary) / math.Max(denominatorEpsilon, 1.0-boundary)
	normalized = Clamp(normalized, 0.0, 1.0)

	if normalized > 0.0 && antiDeadzone > 0.0 {
		normalized = antiDeadzone + normalized*(1.0-antiDeadzone)
	}

	normalized = math.Pow(normalized, gamma)
	normalized = Clamp(normalized, 0.0, 1.0)

	return ux * normalized, uy * normalized
}
