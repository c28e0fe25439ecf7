package drift

// DriftCompensator pairs a left and right StickProcessor. The two sticks
// are processed independently; there is no cross-stick coupling.
type DriftCompensator struct {
	Left  *StickProcessor
	Right *StickProcessor
}

// NewDriftCompensator creates a compensator with fresh per-stick state.
func NewDriftCompensator() *DriftCompensator {
	return &DriftCompensator{
		Left:  NewStickProcessor(),
		Right: NewStickProcessor(),
	}
}

// Reset discards both processors' state.
func (c *DriftCompensator) Reset() {
	c.Left.Reset()
	c.Right.Reset()
}

// ProcessPair runs one frame for both sticks.
func (c *DriftCompensator) ProcessPair(rawLeft, rawRight Vec2, leftConfig, rightConfig StickRuntimeConfig, dt float64) (left, right StickProcessed) {
	return c.Left.Process(rawLeft, leftConfig, dt), c.Right.Process(rawRight, rightConfig, dt)
}
