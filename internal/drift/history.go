package drift

// magnitudeRing is a fixed-capacity ring buffer of float64 samples.
// Append is O(1); once full, each push evicts the oldest sample.
type magnitudeRing struct {
	samples  []float64
	capacity int
	head     int // next write position
	size     int
}

func newMagnitudeRing(capacity int) *magnitudeRing {
	if capacity < 1 {
		capacity = 1
	}
	return &magnitudeRing{
		samples:  make([]float64, capacity),
		capacity: capacity,
	}
}

// Push stores a sample, overwriting the oldest if at capacity.
func (r *magnitudeRing) Push(v float64) {
	r.samples[r.head] = v
	r.head = (r.head + 1) % r.capacity
	if r.size < r.capacity {
		r.size++
	}
}

// Len returns the number of stored samples.
func (r *magnitudeRing) Len() int {
	return r.size
}

// Values returns the stored samples from oldest to newest.
func (r *magnitudeRing) Values() []float64 {
	if r.size == 0 {
		return nil
	}
	out := make([]float64, r.size)
	for i := 0; i < r.size; i++ {
		idx := (r.head - r.size + i + r.capacity) % r.capacity
		out[i] = r.samples[idx]
	}
	return out
}
