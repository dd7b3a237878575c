package numeric

// LegendreBasis evaluates the first deg Legendre polynomials at each point
// of x, after mapping [xmin, xmax] linearly onto [-1, 1]. The result holds
// one row per polynomial order.
func LegendreBasis(deg int, x []float64, xmin, xmax float64) [][]float64 {
	basis := make([][]float64, deg)
	for k := range basis {
		basis[k] = make([]float64, len(x))
	}
	span := xmax - xmin
	for i, xi := range x {
		t := (xi-xmin)/span*2 - 1
		var pPrev, p float64 = 0, 1
		for k := 0; k < deg; k++ {
			basis[k][i] = p
			// Bonnet recurrence: (k+1) P_{k+1} = (2k+1) t P_k - k P_{k-1}
			pNext := (float64(2*k+1)*t*p - float64(k)*pPrev) / float64(k+1)
			pPrev, p = p, pNext
		}
	}
	return basis
}
