package numeric

// PolyFit2 fits y = a·x² + b·x + c by degree-2 least squares over at least
// three points. Duplicate abscissae make the fit singular.
func PolyFit2(x, y []float64) (a, b, c float64, err error) {
	// Normal equations over the Vandermonde columns [x², x, 1].
	var s0, s1, s2, s3, s4 float64
	var t0, t1, t2 float64
	for i, xi := range x {
		x2 := xi * xi
		s0++
		s1 += xi
		s2 += x2
		s3 += x2 * xi
		s4 += x2 * x2
		t0 += y[i]
		t1 += xi * y[i]
		t2 += x2 * y[i]
	}
	m := [][]float64{
		{s4, s3, s2},
		{s3, s2, s1},
		{s2, s1, s0},
	}
	v := []float64{t2, t1, t0}
	sol, err := SolveLinear(m, v)
	if err != nil {
		return 0, 0, 0, err
	}
	return sol[0], sol[1], sol[2], nil
}
