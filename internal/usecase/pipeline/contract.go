package pipeline

import (
	"context"

	domarch "github.com/abhi0395/redrock/internal/domain/archetype"
	"github.com/abhi0395/redrock/internal/domain/spectrum"
	"github.com/abhi0395/redrock/internal/domain/template"
	domzfit "github.com/abhi0395/redrock/internal/domain/zfit"
	uzfit "github.com/abhi0395/redrock/internal/usecase/zfit"
)

// TemplateScan is one coarse chi-squared scan to refine: the template it
// was computed with and the chi-squared curve over the scanned redshifts.
type TemplateScan struct {
	Template  *template.Template
	Redshifts []float64
	ZChi2     []float64
}

// FitRequest is one target's fit: the target's spectra plus one scan per
// template.
type FitRequest struct {
	Target        *spectrum.Target
	Scans         []TemplateScan
	NMinima       int
	UseArchetypes bool
}

// Refiner refines the minima of one coarse scan.
type Refiner interface {
	Refine(
		zchi2, redshifts []float64,
		spectra []*spectrum.Spectrum,
		tmpl *template.Template,
		opts uzfit.Options,
	) ([]domzfit.Minimum, error)
}

// ArchetypeStore resolves an archetype set by spectral type.
type ArchetypeStore interface {
	Get(ctx context.Context, rrtype string) (*domarch.Set, error)
}

// FitCache is a best-effort cache of completed fits keyed by request
// digest. Implementations swallow backend errors; a miss is (nil, false).
type FitCache interface {
	Get(ctx context.Context, key string) (*domzfit.FitResult, bool)
	Set(ctx context.Context, key string, res *domzfit.FitResult)
}

// Params are the tuning knobs of the fit pipeline, normally taken from
// configuration.
type Params struct {
	NMinima      int
	MaxVeloDiff  float64 // km/s
	MinDeltaChi2 float64
	DegLegendre  int
	Workers      int
	NNeighbors   int // 0 scans every archetype subtype
}
