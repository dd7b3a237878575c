package zfit

import (
	"github.com/abhi0395/redrock/internal/domain"
	"github.com/abhi0395/redrock/internal/domain/spectrum"
)

// ArchetypeScorer re-scores a refined minimum against an archetype library
// at a fixed redshift. Implementations must be deterministic given
// identical inputs and must not mutate them.
type ArchetypeScorer interface {
	BestArchetype(
		spectra []*spectrum.Spectrum,
		weights, flux, wflux []float64,
		dwave map[uint64][]float64,
		z float64,
		legendre map[uint64][][]float64,
	) (chi2 float64, coeff []float64, fullType string, err error)
}

// Options tunes a refinement run.
type Options struct {
	// NMinima is the maximum number of accepted minima (default 3).
	NMinima int
	// MaxVeloDiff is the minimum velocity separation in km/s between
	// distinct minima (default domain.MaxVeloDiff).
	MaxVeloDiff float64
	// DegLegendre is the number of Legendre continuum terms used by
	// archetype re-scoring (default 3).
	DegLegendre int
	// Archetype, when set, re-scores each accepted minimum.
	Archetype ArchetypeScorer
}

func (o Options) withDefaults() Options {
	if o.NMinima <= 0 {
		o.NMinima = 3
	}
	if o.MaxVeloDiff <= 0 {
		o.MaxVeloDiff = domain.MaxVeloDiff
	}
	if o.DegLegendre <= 0 {
		o.DegLegendre = 3
	}
	return o
}
