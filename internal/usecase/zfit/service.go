// Package zfit refines coarse chi-squared redshift scans: it locates
// candidate minima, re-samples each one finely, fits a parabola to the
// bottom, validates and flags the fit, de-duplicates minima by velocity
// separation, and optionally re-scores each one against an archetype
// library.
package zfit

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/abhi0395/redrock/internal/domain"
	"github.com/abhi0395/redrock/internal/domain/spectrum"
	"github.com/abhi0395/redrock/internal/domain/template"
	domzfit "github.com/abhi0395/redrock/internal/domain/zfit"
	"github.com/abhi0395/redrock/internal/metrics"
	"github.com/abhi0395/redrock/internal/numeric"
	"github.com/abhi0395/redrock/internal/usecase/zscan"
)

// fineScanPoints is the size of the fine redshift grid spanning one coarse
// step on each side of a candidate minimum.
const fineScanPoints = 15

// Service is the minimum-refinement engine. Safe for concurrent use; all
// per-invocation state is local.
type Service struct {
	logger *zap.Logger
}

// New creates a refinement engine.
func New(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger}
}

// Refine locates and refines up to opts.NMinima chi-squared minima of the
// coarse scan (zchi2 over redshifts) for the given spectra and template.
// The returned minima are sorted by ascending chi-squared. Recoverable fit
// problems are encoded as zwarn bits on the results; a structurally invalid
// scan or an empty surviving result set is an error.
func (s *Service) Refine(
	zchi2, redshifts []float64,
	spectra []*spectrum.Spectrum,
	tmpl *template.Template,
	opts Options,
) ([]domzfit.Minimum, error) {
	opts = opts.withDefaults()

	if len(zchi2) != len(redshifts) {
		return nil, fmt.Errorf("%w: %d chi2 values vs %d redshifts",
			domain.ErrMalformedScan, len(zchi2), len(redshifts))
	}
	if len(zchi2) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 scan points, got %d",
			domain.ErrMalformedScan, len(zchi2))
	}
	if len(spectra) == 0 {
		return nil, fmt.Errorf("%w: no spectra to fit", domain.ErrInvalidSpectrum)
	}

	nbasis := tmpl.NBasis()
	dwave, _ := zscan.Wavegrids(spectra)

	var legendre map[uint64][][]float64
	if opts.Archetype != nil {
		legendre = legendreByGrid(dwave, opts.DegLegendre)
	}

	weights, flux, wflux := zscan.SpectralData(spectra)

	var results []domzfit.Minimum
	for _, imin := range FindMinima(zchi2) {
		if len(results) == opts.NMinima {
			break
		}

		// Skip candidates within MaxVeloDiff of an already-accepted minimum.
		if tooClose(redshifts[imin], results, opts.MaxVeloDiff) {
			continue
		}

		// Sample more finely around the minimum: one coarse step each side.
		ilo := imin - 1
		if ilo < 0 {
			ilo = 0
		}
		ihi := imin + 1
		if ihi > len(zchi2)-1 {
			ihi = len(zchi2) - 1
		}
		zz := numeric.Linspace(redshifts[ilo], redshifts[ihi], fineScanPoints)

		binned, err := zscan.RebinTemplate(tmpl, zz, dwave)
		if err != nil {
			return nil, fmt.Errorf("fine scan around z=%g: %w", redshifts[imin], err)
		}
		zscan.ApplyTransmission(zz, dwave, binned)
		zzchi2, _ := zscan.CalcZChi2Batch(spectra, binned, weights, flux, wflux, fineScanPoints, nbasis)
		for _, c := range zzchi2 {
			if c >= domain.HugeChi2 {
				metrics.DegenerateSolvesTotal.Inc()
			}
		}

		// Parabola through the 3 points around the fine-scan minimum.
		i := numeric.ArgMin(zzchi2)
		if i < 1 {
			i = 1
		}
		if i > len(zz)-2 {
			i = len(zz) - 2
		}
		zmin, sigma, chi2min, zwarn := Minfit(zz[i-1:i+2], zzchi2[i-1:i+2])

		// Evaluate coefficients at the fitted vertex. Beyond the scanned
		// redshift range the template cannot be evaluated; substitute zeros.
		var coeff []float64
		if zmin < redshifts[0] || zmin > redshifts[len(redshifts)-1] {
			coeff = make([]float64, nbasis)
			zwarn |= domain.ZWarnZFitLimit | domain.ZWarnBadMinfit
		} else {
			one := []float64{zmin}
			binned1, err := zscan.RebinTemplate(tmpl, one, dwave)
			if err != nil {
				return nil, fmt.Errorf("evaluate vertex z=%g: %w", zmin, err)
			}
			zscan.ApplyTransmission(one, dwave, binned1)
			_, coeff = zscan.CalcZChi2One(spectra, binned1, weights, flux, wflux, nbasis)
		}

		zbest, zerr := zmin, sigma

		// Failed parabola or vertex outside the fine scan: fall back to the
		// scanned minimum point.
		if zbest < zz[0] || zbest > zz[len(zz)-1] {
			zwarn |= domain.ZWarnBadMinfit
			j := numeric.ArgMin(zzchi2)
			zbest = zz[j]
			chi2min = zzchi2[j]
		}

		// Initial or accepted minimum too close to the edge of the scan range.
		if zbest < redshifts[1] || zbest > redshifts[len(redshifts)-2] {
			zwarn |= domain.ZWarnZFitLimit
		}
		if zmin < redshifts[1] || zmin > redshifts[len(redshifts)-2] {
			zwarn |= domain.ZWarnZFitLimit
		}

		// Re-check separation with the refined redshift: coarse and fine
		// estimates can converge to the same physical minimum from
		// different candidates.
		if tooClose(zbest, results, opts.MaxVeloDiff) {
			continue
		}

		fullType := ""
		if opts.Archetype != nil {
			aChi2, aCoeff, aFull, err := opts.Archetype.BestArchetype(
				spectra, weights, flux, wflux, dwave, zbest, legendre)
			if err != nil {
				return nil, fmt.Errorf("archetype re-scoring at z=%g: %w", zbest, err)
			}
			metrics.ArchetypeScansTotal.WithLabelValues(tmpl.Type()).Inc()
			chi2min, coeff, fullType = aChi2, aCoeff, aFull
		}

		results = append(results, domzfit.Minimum{
			Z: zbest, ZErr: zerr, ZWarn: zwarn, Chi2: chi2min,
			ZZ: zz, ZZChi2: zzchi2, Coeff: coeff, FullType: fullType,
		})
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s template over %d scan points",
			domain.ErrNoMinima, tmpl.Type(), len(zchi2))
	}

	// Detailed fits (and archetype re-scoring) may have changed the order.
	domzfit.SortByChi2(results)

	npix := 0
	for _, sp := range spectra {
		npix += sp.NGoodPixels()
	}
	for i := range results {
		results[i].NPixels = npix
	}

	metrics.MinimaRefinedTotal.Add(float64(len(results)))
	s.logger.Debug("refined redshift minima",
		zap.String("spectype", tmpl.Type()),
		zap.Int("nminima", len(results)),
		zap.Float64("zbest", results[0].Z),
		zap.Float64("chi2", results[0].Chi2),
	)
	return results, nil
}

// tooClose reports whether z is within minDV km/s of any accepted minimum.
func tooClose(z float64, accepted []domzfit.Minimum, minDV float64) bool {
	for _, m := range accepted {
		if math.Abs(domain.GetDV(z, m.Z)) < minDV {
			return true
		}
	}
	return false
}

// legendreByGrid builds the Legendre continuum basis per wavelength grid,
// normalized over the union of all grids.
func legendreByGrid(dwave map[uint64][]float64, deg int) map[uint64][][]float64 {
	wmin, wmax := math.Inf(1), math.Inf(-1)
	for _, wave := range dwave {
		if wave[0] < wmin {
			wmin = wave[0]
		}
		if wave[len(wave)-1] > wmax {
			wmax = wave[len(wave)-1]
		}
	}
	legendre := make(map[uint64][][]float64, len(dwave))
	for hash, wave := range dwave {
		legendre[hash] = numeric.LegendreBasis(deg, wave, wmin, wmax)
	}
	return legendre
}
