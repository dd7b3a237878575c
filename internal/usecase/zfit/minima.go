package zfit

import (
	"math"
	"sort"

	"github.com/abhi0395/redrock/internal/domain"
	"github.com/abhi0395/redrock/internal/numeric"
)

// FindMinima returns the indices of local minima of x, ordered by ascending
// value with ties broken by original index. Boundary indices count as
// minima, treating the missing outer neighbor as satisfied. Runs of equal
// values are conservative: FindMinima([1,1,1,2,2,2]) keeps 0,1,2,4,5.
func FindMinima(x []float64) []int {
	var ii []int
	for i := range x {
		leftOK := i == 0 || x[i] <= x[i-1]
		rightOK := i == len(x)-1 || x[i] <= x[i+1]
		if leftOK && rightOK {
			ii = append(ii, i)
		}
	}
	sort.SliceStable(ii, func(a, b int) bool { return x[ii[a]] < x[ii[b]] })
	return ii
}

// Minfit fits y = y0 + ((x-x0)/xerr)² by degree-2 polynomial regression.
// zwarn is zero for a good fit. A failed fit returns the sentinel
// (-1, -1, -1) with ZWarnBadMinfit: fewer than 3 points, a singular fit, a
// zero leading coefficient, a fitted vertex outside [min(x), max(x)], or a
// non-positive y0. A negative leading coefficient still yields xerr from
// its magnitude, flagged bad.
func Minfit(x, y []float64) (x0, xerr, y0 float64, zwarn domain.ZWarn) {
	if len(x) < 3 {
		return -1, -1, -1, domain.ZWarnBadMinfit
	}

	a, b, c, err := numeric.PolyFit2(x, y)
	if err != nil {
		return -1, -1, -1, domain.ZWarnBadMinfit
	}
	if a == 0 {
		return -1, -1, -1, domain.ZWarnBadMinfit
	}

	// Recast y = a·x² + b·x + c as y = y0 + ((x-x0)/xerr)².
	x0 = -b / (2 * a)
	y0 = c - b*b/(4*a)

	xmin, xmax := x[0], x[0]
	for _, xi := range x[1:] {
		if xi < xmin {
			xmin = xi
		}
		if xi > xmax {
			xmax = xi
		}
	}
	if x0 <= xmin || xmax <= x0 {
		return -1, -1, -1, domain.ZWarnBadMinfit
	}
	if y0 <= 0 {
		return -1, -1, -1, domain.ZWarnBadMinfit
	}

	if a > 0 {
		xerr = 1 / math.Sqrt(a)
	} else {
		xerr = 1 / math.Sqrt(-a)
		zwarn |= domain.ZWarnBadMinfit
	}
	return x0, xerr, y0, zwarn
}
