package numeric

import (
	"errors"
	"math"
	"testing"
)

func TestSolveLinear(t *testing.T) {
	m := [][]float64{
		{2, 1},
		{1, 3},
	}
	v := []float64{5, 10}
	x, err := SolveLinear(m, v)
	if err != nil {
		t.Fatalf("SolveLinear: %v", err)
	}
	// 2x + y = 5, x + 3y = 10 -> x = 1, y = 3
	if math.Abs(x[0]-1) > 1e-12 || math.Abs(x[1]-3) > 1e-12 {
		t.Errorf("got %v, want [1 3]", x)
	}
}

func TestSolveLinear_NeedsPivoting(t *testing.T) {
	m := [][]float64{
		{0, 1},
		{1, 0},
	}
	v := []float64{2, 3}
	x, err := SolveLinear(m, v)
	if err != nil {
		t.Fatalf("SolveLinear: %v", err)
	}
	if math.Abs(x[0]-3) > 1e-12 || math.Abs(x[1]-2) > 1e-12 {
		t.Errorf("got %v, want [3 2]", x)
	}
}

func TestSolveLinear_Singular(t *testing.T) {
	m := [][]float64{
		{1, 2},
		{2, 4},
	}
	v := []float64{1, 2}
	if _, err := SolveLinear(m, v); !errors.Is(err, ErrSingular) {
		t.Errorf("got %v, want ErrSingular", err)
	}
}

func TestChi2Fit_ExactRecovery(t *testing.T) {
	// flux = 3*c0 - 2*c1 exactly; the fit must recover the coefficients
	// with zero chi-squared.
	n := 50
	c0 := make([]float64, n)
	c1 := make([]float64, n)
	flux := make([]float64, n)
	weights := make([]float64, n)
	wflux := make([]float64, n)
	for i := 0; i < n; i++ {
		c0[i] = math.Sin(float64(i) / 5)
		c1[i] = float64(i) / 10
		flux[i] = 3*c0[i] - 2*c1[i]
		weights[i] = 1 + float64(i%3)
		wflux[i] = weights[i] * flux[i]
	}

	coeff, chi2, err := Chi2Fit([][]float64{c0, c1}, weights, flux, wflux)
	if err != nil {
		t.Fatalf("Chi2Fit: %v", err)
	}
	if math.Abs(coeff[0]-3) > 1e-9 || math.Abs(coeff[1]+2) > 1e-9 {
		t.Errorf("coeff = %v, want [3 -2]", coeff)
	}
	if chi2 > 1e-16 {
		t.Errorf("chi2 = %g, want ~0", chi2)
	}
}

func TestChi2Fit_WeightsMatter(t *testing.T) {
	// One column, two points disagreeing; the weighted solution tracks the
	// heavy point.
	col := []float64{1, 1}
	flux := []float64{0, 10}
	weights := []float64{1, 999}
	wflux := []float64{0, 9990}

	coeff, _, err := Chi2Fit([][]float64{col}, weights, flux, wflux)
	if err != nil {
		t.Fatalf("Chi2Fit: %v", err)
	}
	if coeff[0] < 9.9 {
		t.Errorf("coeff = %g, want close to 10", coeff[0])
	}
}

func TestChi2Fit_SingularColumns(t *testing.T) {
	col := []float64{1, 2, 3}
	weights := []float64{1, 1, 1}
	flux := []float64{1, 2, 3}
	if _, _, err := Chi2Fit([][]float64{col, col}, weights, flux, flux); !errors.Is(err, ErrSingular) {
		t.Errorf("duplicate columns: got %v, want ErrSingular", err)
	}

	zero := []float64{0, 0, 0}
	if _, _, err := Chi2Fit([][]float64{zero}, weights, flux, flux); !errors.Is(err, ErrSingular) {
		t.Errorf("zero column: got %v, want ErrSingular", err)
	}
}

func TestPolyFit2_ExactQuadratic(t *testing.T) {
	x := []float64{-1, 0, 1, 2, 3}
	y := make([]float64, len(x))
	for i, xi := range x {
		y[i] = 2.5*xi*xi - 4*xi + 0.5
	}
	a, b, c, err := PolyFit2(x, y)
	if err != nil {
		t.Fatalf("PolyFit2: %v", err)
	}
	if math.Abs(a-2.5) > 1e-9 || math.Abs(b+4) > 1e-9 || math.Abs(c-0.5) > 1e-9 {
		t.Errorf("got (%g, %g, %g), want (2.5, -4, 0.5)", a, b, c)
	}
}

func TestPolyFit2_DuplicateAbscissae(t *testing.T) {
	x := []float64{1, 1, 1}
	y := []float64{2, 2, 2}
	if _, _, _, err := PolyFit2(x, y); !errors.Is(err, ErrSingular) {
		t.Errorf("got %v, want ErrSingular", err)
	}
}
