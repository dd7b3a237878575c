// Package numeric provides the small dense numeric kernels used by the
// redshift fitter: flux-conserving rebinning, Legendre bases, quadratic
// fits and weighted linear least squares. Matrices here are tiny (a handful
// of columns), so everything is hand-rolled dense math.
package numeric

import (
	"fmt"

	"github.com/abhi0395/redrock/internal/domain"
)

// CentersToEdges converts bin centers to bin edges, extrapolating half a bin
// beyond each end.
func CentersToEdges(centers []float64) []float64 {
	n := len(centers)
	edges := make([]float64, n+1)
	for i := 1; i < n; i++ {
		edges[i] = 0.5 * (centers[i-1] + centers[i])
	}
	edges[0] = centers[0] - 0.5*(centers[1]-centers[0])
	edges[n] = centers[n-1] + 0.5*(centers[n-1]-centers[n-2])
	return edges
}

// TrapzRebin integrates the piecewise-linear function defined by (x, y)
// over each bin of edges and divides by the bin width, conserving flux.
// x must be strictly ascending and cover the full edge range; otherwise
// domain.ErrOutOfRange is returned.
func TrapzRebin(x, y, edges []float64) ([]float64, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("x and y lengths differ: %d vs %d", len(x), len(y))
	}
	if len(edges) < 2 {
		return nil, fmt.Errorf("need at least 2 edges, got %d", len(edges))
	}
	if edges[0] < x[0] || edges[len(edges)-1] > x[len(x)-1] {
		return nil, fmt.Errorf("%w: edges [%g, %g] vs grid [%g, %g]",
			domain.ErrOutOfRange, edges[0], edges[len(edges)-1], x[0], x[len(x)-1])
	}

	out := make([]float64, len(edges)-1)
	seg := 0 // input segment index: x[seg] <= position < x[seg+1]
	for j := range out {
		lo, hi := edges[j], edges[j+1]
		for seg < len(x)-2 && x[seg+1] <= lo {
			seg++
		}
		pos := lo
		yPos := interpSeg(x, y, seg, lo)
		var area float64
		for seg < len(x)-1 && x[seg+1] < hi {
			area += (x[seg+1] - pos) * 0.5 * (yPos + y[seg+1])
			pos = x[seg+1]
			yPos = y[seg+1]
			seg++
		}
		yHi := interpSeg(x, y, seg, hi)
		area += (hi - pos) * 0.5 * (yPos + yHi)
		out[j] = area / (hi - lo)
	}
	return out, nil
}

// interpSeg linearly interpolates within segment seg.
func interpSeg(x, y []float64, seg int, p float64) float64 {
	x0, x1 := x[seg], x[seg+1]
	return y[seg] + (y[seg+1]-y[seg])*(p-x0)/(x1-x0)
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// ArgMin returns the index of the first minimum value.
func ArgMin(x []float64) int {
	best := 0
	for i := 1; i < len(x); i++ {
		if x[i] < x[best] {
			best = i
		}
	}
	return best
}
