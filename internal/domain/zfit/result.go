// Package zfit holds the refined-minimum result records and their columnar
// projection.
package zfit

import (
	"sort"

	"github.com/abhi0395/redrock/internal/domain"
)

// Minimum is one refined chi-squared minimum. Immutable once appended to a
// result list.
type Minimum struct {
	Z        float64
	ZErr     float64
	ZWarn    domain.ZWarn
	Chi2     float64
	ZZ       []float64 // fine-scan redshifts
	ZZChi2   []float64 // fine-scan chi-squared
	Coeff    []float64
	NPixels  int
	FullType string // archetype full type; empty when no archetype was fit
}

// SortByChi2 orders minima by ascending chi-squared, keeping the original
// order for ties.
func SortByChi2(minima []Minimum) {
	sort.SliceStable(minima, func(i, j int) bool {
		return minima[i].Chi2 < minima[j].Chi2
	})
}

// ResultSet is the columnar projection of a refined-minimum list, one row
// per minimum, sorted ascending by chi-squared.
type ResultSet struct {
	Z        []float64   `json:"z"`
	ZErr     []float64   `json:"zerr"`
	ZWarn    []uint64    `json:"zwarn"`
	Chi2     []float64   `json:"chi2"`
	ZZ       [][]float64 `json:"zz"`
	ZZChi2   [][]float64 `json:"zzchi2"`
	Coeff    [][]float64 `json:"coeff"`
	NPixels  []int       `json:"npixels"`
	FullType []string    `json:"fulltype,omitempty"`
}

// Columnar projects each field of the minimum records across the list.
// The FullType column is present only when archetype labels were attached.
func Columnar(minima []Minimum) ResultSet {
	n := len(minima)
	rs := ResultSet{
		Z:       make([]float64, n),
		ZErr:    make([]float64, n),
		ZWarn:   make([]uint64, n),
		Chi2:    make([]float64, n),
		ZZ:      make([][]float64, n),
		ZZChi2:  make([][]float64, n),
		Coeff:   make([][]float64, n),
		NPixels: make([]int, n),
	}
	hasFullType := false
	for _, m := range minima {
		if m.FullType != "" {
			hasFullType = true
			break
		}
	}
	if hasFullType {
		rs.FullType = make([]string, n)
	}
	for i, m := range minima {
		rs.Z[i] = m.Z
		rs.ZErr[i] = m.ZErr
		rs.ZWarn[i] = uint64(m.ZWarn)
		rs.Chi2[i] = m.Chi2
		rs.ZZ[i] = m.ZZ
		rs.ZZChi2[i] = m.ZZChi2
		rs.Coeff[i] = m.Coeff
		rs.NPixels[i] = m.NPixels
		if hasFullType {
			rs.FullType[i] = m.FullType
		}
	}
	return rs
}

// Len returns the number of rows.
func (rs ResultSet) Len() int { return len(rs.Z) }
