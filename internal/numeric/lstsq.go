package numeric

import (
	"errors"
	"math"
)

// ErrSingular signals a singular or near-singular linear system.
var ErrSingular = errors.New("singular matrix")

// SolveLinear solves the dense square system m·x = v in place by Gaussian
// elimination with partial pivoting. m and v are clobbered.
func SolveLinear(m [][]float64, v []float64) ([]float64, error) {
	n := len(m)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[pivot][col]) {
				pivot = row
			}
		}
		if m[pivot][col] == 0 || math.IsNaN(m[pivot][col]) {
			return nil, ErrSingular
		}
		m[col], m[pivot] = m[pivot], m[col]
		v[col], v[pivot] = v[pivot], v[col]

		inv := 1 / m[col][col]
		for row := col + 1; row < n; row++ {
			f := m[row][col] * inv
			if f == 0 {
				continue
			}
			for k := col; k < n; k++ {
				m[row][k] -= f * m[col][k]
			}
			v[row] -= f * v[col]
		}
	}
	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := v[row]
		for k := row + 1; k < n; k++ {
			sum -= m[row][k] * x[k]
		}
		x[row] = sum / m[row][row]
	}
	for _, xi := range x {
		if math.IsNaN(xi) || math.IsInf(xi, 0) {
			return nil, ErrSingular
		}
	}
	return x, nil
}

// Chi2Fit solves the weighted linear least-squares problem
// min ||W^(1/2)(flux - T·c)|| over coefficients c, where cols holds the
// design-matrix columns. It returns the coefficients and the chi-squared of
// the fit. A singular normal-equations matrix yields ErrSingular.
func Chi2Fit(cols [][]float64, weights, flux, wflux []float64) ([]float64, float64, error) {
	k := len(cols)
	n := len(flux)

	// Normal equations: M = T^T W T, y = T^T W flux.
	m := make([][]float64, k)
	y := make([]float64, k)
	for a := 0; a < k; a++ {
		m[a] = make([]float64, k)
		var ya float64
		for i := 0; i < n; i++ {
			ya += cols[a][i] * wflux[i]
		}
		y[a] = ya
		for b := a; b < k; b++ {
			var sum float64
			for i := 0; i < n; i++ {
				sum += cols[a][i] * weights[i] * cols[b][i]
			}
			m[a][b] = sum
		}
	}
	for a := 1; a < k; a++ {
		for b := 0; b < a; b++ {
			m[a][b] = m[b][a]
		}
	}

	coeff, err := SolveLinear(m, y)
	if err != nil {
		return nil, 0, err
	}

	var chi2 float64
	for i := 0; i < n; i++ {
		var model float64
		for a := 0; a < k; a++ {
			model += cols[a][i] * coeff[a]
		}
		d := flux[i] - model
		chi2 += weights[i] * d * d
	}
	return coeff, chi2, nil
}
