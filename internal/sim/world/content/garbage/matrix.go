package garbage

// Matrix is a square probability matrix stored row-major.
type Matrix struct {
	Size int
	P    []float64
}

func (m Matrix) At(row, col int) float64 { return m.P[row*m.Size+col] }

func (m Matrix) set(row, col int, p float64) { m.P[row*m.Size+col] = p }

// MatrixSize is the side of the matrix built for a pile radius: 0 stays 0,
// even radii round up to the next odd number.
func MatrixSize(radius int) int {
	if radius <= 0 {
		return 0
	}
	if radius%2 == 0 {
		return radius + 1
	}
	return radius
}

// RingProbability is the value of ring r (0 = outermost) in a matrix with
// the given number of rings. It is not clamped to [0, 1].
func RingProbability(step float64, rings, r int) float64 {
	return 1 - float64(step*float64(rings-r))
}

// RingMatrix builds the ring-decay matrix for one pile. The matrix has
// Size/2 concentric square rings; probabilities rise by step per ring from
// the border inward. The centre cell of an odd matrix belongs to no ring and
// stays 0, so it never passes the spawn test.
func RingMatrix(radius int, step float64) Matrix {
	size := MatrixSize(radius)
	m := Matrix{Size: size, P: make([]float64, size*size)}
	rings := size / 2
	for ring := 0; ring < rings; ring++ {
		p := RingProbability(step, rings, ring)
		for i := ring; i < size-ring; i++ {
			m.set(ring, i, p)
			m.set(size-1-ring, i, p)
			m.set(i, ring, p)
			m.set(i, size-1-ring, p)
		}
	}
	return m
}
