// Package spectrum holds the observed-spectrum value objects consumed by
// the redshift fitter.
package spectrum

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/abhi0395/redrock/internal/domain"
)

// Spectrum is a single observed spectrum on one wavelength grid.
// Immutable after construction.
type Spectrum struct {
	wave     []float64
	flux     []float64
	ivar     []float64
	res      *Resolution
	wavehash uint64
}

// New validates and creates a Spectrum. The wavelength grid must be strictly
// ascending and match flux/ivar in length; inverse variances must be
// non-negative. Pixels whose resolution row integral falls below
// domain.MinResolutionIntegral get their inverse variance zeroed, since the
// truncated resolution rows there cannot produce a trustworthy model.
func New(wave, flux, ivar []float64, res *Resolution) (*Spectrum, error) {
	n := len(wave)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 pixels, got %d", domain.ErrInvalidSpectrum, n)
	}
	if len(flux) != n || len(ivar) != n {
		return nil, fmt.Errorf("%w: wave/flux/ivar lengths %d/%d/%d differ",
			domain.ErrInvalidSpectrum, n, len(flux), len(ivar))
	}
	for i := 1; i < n; i++ {
		if !(wave[i] > wave[i-1]) {
			return nil, fmt.Errorf("%w: wavelength grid not strictly ascending at pixel %d",
				domain.ErrInvalidSpectrum, i)
		}
	}
	for i, w := range ivar {
		if w < 0 || math.IsNaN(w) {
			return nil, fmt.Errorf("%w: negative or NaN ivar at pixel %d", domain.ErrInvalidSpectrum, i)
		}
	}
	if res != nil {
		if res.Dim() != n {
			return nil, fmt.Errorf("%w: resolution dimension %d does not match %d pixels",
				domain.ErrInvalidSpectrum, res.Dim(), n)
		}
		clipped := make([]float64, n)
		copy(clipped, ivar)
		for i := 0; i < n; i++ {
			if res.RowSum(i) < domain.MinResolutionIntegral {
				clipped[i] = 0
			}
		}
		ivar = clipped
	}

	s := &Spectrum{wave: wave, flux: flux, ivar: ivar, res: res}
	s.wavehash = hashGrid(wave, res)
	return s, nil
}

// hashGrid identifies a wavelength grid by its length, boundary values and
// resolution bandwidth. Spectra sharing a hash share a grid.
func hashGrid(wave []float64, res *Resolution) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	put := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	binary.LittleEndian.PutUint64(buf[:], uint64(len(wave)))
	h.Write(buf[:])
	put(wave[0])
	put(wave[1])
	put(wave[len(wave)-2])
	put(wave[len(wave)-1])
	if res != nil {
		binary.LittleEndian.PutUint64(buf[:], uint64(res.NDiag()))
		h.Write(buf[:])
	}
	return h.Sum64()
}

// Wave returns the wavelength grid. Callers must not mutate it.
func (s *Spectrum) Wave() []float64 { return s.wave }

// Flux returns the flux values. Callers must not mutate it.
func (s *Spectrum) Flux() []float64 { return s.flux }

// Ivar returns the inverse-variance weights. Callers must not mutate it.
func (s *Spectrum) Ivar() []float64 { return s.ivar }

// Resolution returns the band-diagonal resolution operator, or nil.
func (s *Spectrum) Resolution() *Resolution { return s.res }

// NWave returns the number of pixels.
func (s *Spectrum) NWave() int { return len(s.wave) }

// WaveHash identifies the wavelength grid this spectrum lives on.
func (s *Spectrum) WaveHash() uint64 { return s.wavehash }

// NGoodPixels returns the number of strictly-positive-weight pixels.
func (s *Spectrum) NGoodPixels() int {
	var n int
	for _, w := range s.ivar {
		if w > 0 {
			n++
		}
	}
	return n
}
