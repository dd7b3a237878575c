// Package archetype scores refined redshift minima against a library of
// non-parametric archetype spectra, finding the subtype (plus Legendre
// continuum) that best matches the data at a fixed redshift.
package archetype

import (
	"fmt"
	"math"
	"sort"

	"github.com/abhi0395/redrock/internal/domain"
	domarch "github.com/abhi0395/redrock/internal/domain/archetype"
	"github.com/abhi0395/redrock/internal/domain/spectrum"
	"github.com/abhi0395/redrock/internal/numeric"
)

// Scorer finds the best-fitting archetype of one set. Safe for concurrent
// use; the set is read-only.
type Scorer struct {
	set        *domarch.Set
	policy     NeighborPolicy
	nNeighbors int
}

// New creates a scorer over an archetype set that scans every subtype.
func New(set *domarch.Set) *Scorer {
	return &Scorer{set: set}
}

// WithNeighbors restricts scans to the n subtypes chosen by the policy.
func (s *Scorer) WithNeighbors(policy NeighborPolicy, n int) *Scorer {
	s.policy = policy
	s.nNeighbors = n
	return s
}

// Set returns the underlying archetype set.
func (s *Scorer) Set() *domarch.Set { return s.set }

// BestArchetype fits every candidate archetype (rebinned to redshift z on
// each band, plus the Legendre continuum columns) to the data and returns
// the chi-squared, coefficients and full-type label of the best one. Ties
// keep the first archetype index achieving the minimum. Singular solves
// score as domain.HugeChi2 rather than failing the scan.
func (s *Scorer) BestArchetype(
	spectra []*spectrum.Spectrum,
	weights, flux, wflux []float64,
	dwave map[uint64][]float64,
	z float64,
	legendre map[uint64][][]float64,
) (float64, []float64, string, error) {
	candidates, err := s.candidates(spectra, dwave, wflux, z)
	if err != nil {
		return 0, nil, "", err
	}
	if len(candidates) == 0 {
		return 0, nil, "", fmt.Errorf("%w: empty candidate list for %s",
			domain.ErrArchetypeNotFound, s.set.Type())
	}

	nleg := 0
	for _, basis := range legendre {
		nleg = len(basis)
		break
	}
	ncols := 1 + nleg
	npix := len(flux)

	// Continuum columns are fixed across candidates; only column 0 changes.
	cols := make([][]float64, ncols)
	cols[0] = make([]float64, npix)
	for j := 0; j < nleg; j++ {
		col := make([]float64, 0, npix)
		for _, sp := range spectra {
			col = append(col, legendre[sp.WaveHash()][j]...)
		}
		cols[1+j] = col
	}

	edges := make(map[uint64][]float64, len(dwave))
	for hash, wave := range dwave {
		edges[hash] = numeric.CentersToEdges(wave)
	}

	restWave := s.set.Wave()
	shifted := make([]float64, len(restWave))
	for i, w := range restWave {
		shifted[i] = w * (1 + z)
	}

	bestChi2 := domain.HugeChi2
	bestCoeff := make([]float64, ncols)
	bestIdx := -1

	binnedByGrid := make(map[uint64][]float64, len(dwave))
	for _, idx := range candidates {
		for hash := range dwave {
			col, err := numeric.TrapzRebin(shifted, s.set.Flux(idx), edges[hash])
			if err != nil {
				return 0, nil, "", fmt.Errorf("rebin archetype %s at z=%g: %w",
					s.set.FullType(idx), z, err)
			}
			binnedByGrid[hash] = col
		}
		off := 0
		for _, sp := range spectra {
			off += copy(cols[0][off:], binnedByGrid[sp.WaveHash()])
		}

		coeff, chi2, err := numeric.Chi2Fit(cols, weights, flux, wflux)
		if err != nil {
			chi2 = domain.HugeChi2
			coeff = make([]float64, ncols)
		}
		if chi2 < bestChi2 || bestIdx < 0 {
			bestChi2, bestCoeff, bestIdx = chi2, coeff, idx
		}
	}

	return bestChi2, bestCoeff, s.set.FullType(bestIdx), nil
}

func (s *Scorer) candidates(
	spectra []*spectrum.Spectrum,
	dwave map[uint64][]float64,
	wflux []float64,
	z float64,
) ([]int, error) {
	if s.policy == nil || s.nNeighbors <= 0 || s.nNeighbors >= s.set.NArch() {
		all := make([]int, s.set.NArch())
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	nbh, err := s.policy.Neighbors(s.set, spectra, dwave, wflux, z, s.nNeighbors)
	if err != nil {
		return nil, fmt.Errorf("neighbor policy for %s: %w", s.set.Type(), err)
	}
	return nbh, nil
}

// CorrelationNeighbors is the reference NeighborPolicy: it ranks subtypes
// by the normalized correlation of their redshifted, rebinned flux with the
// weighted observed flux and keeps the top n, ties broken by subtype index.
type CorrelationNeighbors struct{}

// Neighbors implements NeighborPolicy.
func (CorrelationNeighbors) Neighbors(
	set *domarch.Set,
	spectra []*spectrum.Spectrum,
	dwave map[uint64][]float64,
	wflux []float64,
	z float64,
	n int,
) ([]int, error) {
	restWave := set.Wave()
	shifted := make([]float64, len(restWave))
	for i, w := range restWave {
		shifted[i] = w * (1 + z)
	}

	edges := make(map[uint64][]float64, len(dwave))
	for hash, wave := range dwave {
		edges[hash] = numeric.CentersToEdges(wave)
	}

	type ranked struct {
		idx   int
		score float64
	}
	scores := make([]ranked, set.NArch())
	for idx := range scores {
		var dot, norm float64
		binned := make(map[uint64][]float64, len(dwave))
		off := 0
		for _, sp := range spectra {
			hash := sp.WaveHash()
			col, ok := binned[hash]
			if !ok {
				var err error
				col, err = numeric.TrapzRebin(shifted, set.Flux(idx), edges[hash])
				if err != nil {
					return nil, err
				}
				binned[hash] = col
			}
			for i, v := range col {
				dot += v * wflux[off+i]
				norm += v * v
			}
			off += len(col)
		}
		if norm > 0 {
			scores[idx] = ranked{idx, dot / math.Sqrt(norm)}
		} else {
			scores[idx] = ranked{idx, 0}
		}
	}
	sort.SliceStable(scores, func(a, b int) bool { return scores[a].score > scores[b].score })

	if n > len(scores) {
		n = len(scores)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = scores[i].idx
	}
	sort.Ints(out)
	return out, nil
}
