package garbage

import "testing"

func TestMatrixSize(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 2: 3, 3: 3, 4: 5, 5: 5, 10: 11}
	for radius, want := range cases {
		if got := MatrixSize(radius); got != want {
			t.Fatalf("radius %d: got %d want %d", radius, got, want)
		}
		if got := RingMatrix(radius, 0.2).Size; got != want {
			t.Fatalf("RingMatrix(%d).Size: got %d want %d", radius, got, want)
		}
	}
}

func TestRingMatrix_ZeroRadiusIsEmpty(t *testing.T) {
	m := RingMatrix(0, 0.2)
	if m.Size != 0 || len(m.P) != 0 {
		t.Fatalf("expected empty matrix, got size=%d len=%d", m.Size, len(m.P))
	}
}

func TestRingMatrix_RadiusFive(t *testing.T) {
	m := RingMatrix(5, 0.2)
	outer := RingProbability(0.2, 2, 0)
	inner := RingProbability(0.2, 2, 1)
	want := [][]float64{
		{outer, outer, outer, outer, outer},
		{outer, inner, inner, inner, outer},
		{outer, inner, 0, inner, outer},
		{outer, inner, inner, inner, outer},
		{outer, outer, outer, outer, outer},
	}
	for row := range want {
		for col := range want[row] {
			if got := m.At(row, col); got != want[row][col] {
				t.Fatalf("(%d,%d): got %v want %v", row, col, got, want[row][col])
			}
		}
	}
	if outer < 0.59 || outer > 0.61 || inner < 0.79 || inner > 0.81 {
		t.Fatalf("unexpected ring values outer=%v inner=%v", outer, inner)
	}
}

func TestRingMatrix_RingValuesAndSymmetry(t *testing.T) {
	for radius := 1; radius <= 21; radius += 2 {
		m := RingMatrix(radius, 0.07)
		n := m.Size
		rings := n / 2
		for row := 0; row < n; row++ {
			for col := 0; col < n; col++ {
				if m.At(row, col) != m.At(n-1-row, n-1-col) {
					t.Fatalf("radius %d: not symmetric at (%d,%d)", radius, row, col)
				}
				ring := min(row, col, n-1-row, n-1-col)
				want := 0.0
				if ring < rings {
					want = RingProbability(0.07, rings, ring)
				}
				if got := m.At(row, col); got != want {
					t.Fatalf("radius %d (%d,%d) ring %d: got %v want %v", radius, row, col, ring, got, want)
				}
			}
		}
	}
}

func TestRingMatrix_NotClamped(t *testing.T) {
	m := RingMatrix(9, 0.5)
	// Four rings: the outermost is 1 - 0.5*4 = -1.
	if got := m.At(0, 0); got != -1 {
		t.Fatalf("outer ring: got %v want -1", got)
	}
	if got := m.At(3, 3); got != 0.5 {
		t.Fatalf("innermost ring: got %v want 0.5", got)
	}

	m = RingMatrix(3, -0.5)
	if got := m.At(0, 1); got != 1.5 {
		t.Fatalf("negative step: got %v want 1.5", got)
	}
}
