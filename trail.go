package orrery

// DefaultTrailLength is the number of past positions kept per body unless overridden.
const DefaultTrailLength = 1000

// Trail is a bounded history of past positions. Once full, every push evicts the
// oldest point. It only feeds rendering; physics never reads it.
type Trail struct {
	points [][]float64
	head   int // index of the oldest point once full
	full   bool
}

// NewTrail returns a trail which holds at most capacity points. A non-positive
// capacity disables the trail.
func NewTrail(capacity int) *Trail {
	if capacity < 0 {
		capacity = 0
	}
	return &Trail{points: make([][]float64, 0, capacity)}
}

// Push records a copy of the provided position.
func (t *Trail) Push(p []float64) {
	c := cap(t.points)
	if c == 0 {
		return
	}
	if !t.full {
		t.points = append(t.points, vcopy(p))
		t.full = len(t.points) == c
		return
	}
	copy(t.points[t.head], p)
	t.head = (t.head + 1) % c
}

// Len returns the number of points currently held.
func (t *Trail) Len() int {
	return len(t.points)
}

// Cap returns the maximum number of points.
func (t *Trail) Cap() int {
	return cap(t.points)
}

// Points returns a copy of the points, oldest first.
func (t *Trail) Points() [][]float64 {
	out := make([][]float64, 0, len(t.points))
	for i := range t.points {
		out = append(out, vcopy(t.points[(t.head+i)%len(t.points)]))
	}
	return out
}
