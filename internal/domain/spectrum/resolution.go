package spectrum

import "fmt"

// Resolution is a band-diagonal resolution operator mapping a model binned
// on the observed wavelength grid to the instrument-convolved observation.
// Storage follows the diagonal-offset layout: element (i, i+offset[k]) is
// diags[k][i+offset[k]].
type Resolution struct {
	dim     int
	offsets []int
	diags   [][]float64
}

// NewResolution validates and creates a band-diagonal resolution operator
// of dimension dim. Each diagonal carries dim values indexed by column.
func NewResolution(dim int, offsets []int, diags [][]float64) (*Resolution, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("resolution dimension must be positive, got %d", dim)
	}
	if len(offsets) != len(diags) {
		return nil, fmt.Errorf("resolution has %d offsets but %d diagonals", len(offsets), len(diags))
	}
	for k, d := range diags {
		if len(d) != dim {
			return nil, fmt.Errorf("resolution diagonal %d has length %d, want %d", k, len(d), dim)
		}
		if offsets[k] <= -dim || offsets[k] >= dim {
			return nil, fmt.Errorf("resolution offset %d out of range for dimension %d", offsets[k], dim)
		}
	}
	return &Resolution{dim: dim, offsets: offsets, diags: diags}, nil
}

// Identity returns the identity resolution operator of dimension dim.
func Identity(dim int) *Resolution {
	d := make([]float64, dim)
	for i := range d {
		d[i] = 1
	}
	r, _ := NewResolution(dim, []int{0}, [][]float64{d})
	return r
}

// Dim returns the operator dimension.
func (r *Resolution) Dim() int { return r.dim }

// NDiag returns the number of stored diagonals.
func (r *Resolution) NDiag() int { return len(r.offsets) }

// RowSum returns the integral of row i.
func (r *Resolution) RowSum(i int) float64 {
	var sum float64
	for k, off := range r.offsets {
		j := i + off
		if j >= 0 && j < r.dim {
			sum += r.diags[k][j]
		}
	}
	return sum
}

// MulVec applies the operator to x, writing the result into out.
// out and x must both have the operator dimension.
func (r *Resolution) MulVec(out, x []float64) {
	for i := 0; i < r.dim; i++ {
		var sum float64
		for k, off := range r.offsets {
			j := i + off
			if j >= 0 && j < r.dim {
				sum += r.diags[k][j] * x[j]
			}
		}
		out[i] = sum
	}
}
