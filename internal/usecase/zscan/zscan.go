// Package zscan evaluates chi-squared of template models against observed
// spectra: it packs spectral data, projects rest-frame bases onto observed
// grids at trial redshifts, and solves the weighted least-squares problem
// per redshift.
package zscan

import (
	"fmt"
	"sort"

	"github.com/abhi0395/redrock/internal/domain"
	"github.com/abhi0395/redrock/internal/domain/spectrum"
	"github.com/abhi0395/redrock/internal/domain/template"
	"github.com/abhi0395/redrock/internal/numeric"
)

// SpectralData concatenates weights, flux and weighted flux across spectra
// in list order.
func SpectralData(spectra []*spectrum.Spectrum) (weights, flux, wflux []float64) {
	var n int
	for _, s := range spectra {
		n += s.NWave()
	}
	weights = make([]float64, 0, n)
	flux = make([]float64, 0, n)
	wflux = make([]float64, 0, n)
	for _, s := range spectra {
		iv, fl := s.Ivar(), s.Flux()
		weights = append(weights, iv...)
		flux = append(flux, fl...)
		for i := range fl {
			wflux = append(wflux, iv[i]*fl[i])
		}
	}
	return weights, flux, wflux
}

// Wavegrids collects the distinct wavelength grids of the spectra keyed by
// wavehash, plus the keys in a stable sorted order.
func Wavegrids(spectra []*spectrum.Spectrum) (map[uint64][]float64, []uint64) {
	dwave := make(map[uint64][]float64)
	for _, s := range spectra {
		if _, ok := dwave[s.WaveHash()]; !ok {
			dwave[s.WaveHash()] = s.Wave()
		}
	}
	keys := make([]uint64, 0, len(dwave))
	for k := range dwave {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return dwave, keys
}

// RebinTemplate projects the template basis onto every wavelength grid at
// every trial redshift via flux-conserving trapezoidal rebinning. The
// result maps wavehash to an [nz][nwave][nbasis] array. A grid outside the
// redshifted template coverage yields domain.ErrOutOfRange.
func RebinTemplate(
	t *template.Template, zz []float64, dwave map[uint64][]float64,
) (map[uint64][][][]float64, error) {
	nbasis := t.NBasis()
	restWave := t.Wave()
	shifted := make([]float64, len(restWave))

	binned := make(map[uint64][][][]float64, len(dwave))
	for hash, wave := range dwave {
		edges := numeric.CentersToEdges(wave)
		perZ := make([][][]float64, len(zz))
		for iz, z := range zz {
			for i, w := range restWave {
				shifted[i] = w * (1 + z)
			}
			grid := make([][]float64, len(wave))
			for i := range grid {
				grid[i] = make([]float64, nbasis)
			}
			for k := 0; k < nbasis; k++ {
				col, err := numeric.TrapzRebin(shifted, t.Basis(k), edges)
				if err != nil {
					return nil, fmt.Errorf("rebin %s basis %d at z=%g: %w", t.Type(), k, z, err)
				}
				for i, v := range col {
					grid[i][k] = v
				}
			}
			perZ[iz] = grid
		}
		binned[hash] = perZ
	}
	return binned, nil
}

// ApplyTransmission multiplies each binned basis vector by the Lyman
// transmission for its grid, skipping grids the suppression band does not
// reach.
func ApplyTransmission(zz []float64, dwave map[uint64][]float64, binned map[uint64][][][]float64) {
	for hash, wave := range dwave {
		t := TransmissionLyman(zz, wave)
		if t == nil {
			continue
		}
		perZ := binned[hash]
		for iz := range perZ {
			for i := range perZ[iz] {
				for k := range perZ[iz][i] {
					perZ[iz][i][k] *= t[iz][i]
				}
			}
		}
	}
}

// CalcZChi2Batch solves the weighted least-squares fit at each of nz trial
// redshifts, returning chi-squared and coefficients per redshift. A
// singular solve yields domain.HugeChi2 and zero coefficients for that
// redshift rather than an error. Batch slots are evaluated independently in
// index order, so results are identical to looping CalcZChi2One.
func CalcZChi2Batch(
	spectra []*spectrum.Spectrum, binned map[uint64][][][]float64,
	weights, flux, wflux []float64, nz, nbasis int,
) (zchi2 []float64, zcoeff [][]float64) {
	zchi2 = make([]float64, nz)
	zcoeff = make([][]float64, nz)

	npix := len(flux)
	cols := make([][]float64, nbasis)
	for k := range cols {
		cols[k] = make([]float64, npix)
	}
	conv := make([]float64, 0)
	raw := make([]float64, 0)

	for iz := 0; iz < nz; iz++ {
		off := 0
		for _, s := range spectra {
			grid := binned[s.WaveHash()][iz]
			nw := s.NWave()
			if cap(raw) < nw {
				raw = make([]float64, nw)
				conv = make([]float64, nw)
			}
			raw, conv = raw[:nw], conv[:nw]
			for k := 0; k < nbasis; k++ {
				for i := 0; i < nw; i++ {
					raw[i] = grid[i][k]
				}
				if r := s.Resolution(); r != nil {
					r.MulVec(conv, raw)
					copy(cols[k][off:off+nw], conv)
				} else {
					copy(cols[k][off:off+nw], raw)
				}
			}
			off += nw
		}

		coeff, chi2, err := numeric.Chi2Fit(cols, weights, flux, wflux)
		if err != nil {
			zchi2[iz] = domain.HugeChi2
			zcoeff[iz] = make([]float64, nbasis)
			continue
		}
		zchi2[iz] = chi2
		zcoeff[iz] = coeff
	}
	return zchi2, zcoeff
}

// CalcZChi2One evaluates a single redshift slot.
func CalcZChi2One(
	spectra []*spectrum.Spectrum, binned map[uint64][][][]float64,
	weights, flux, wflux []float64, nbasis int,
) (float64, []float64) {
	zchi2, zcoeff := CalcZChi2Batch(spectra, binned, weights, flux, wflux, 1, nbasis)
	return zchi2[0], zcoeff[0]
}
