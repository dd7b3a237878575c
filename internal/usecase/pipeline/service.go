// Package pipeline runs the full per-target fit: it refines every
// template's coarse scan, merges the refined minima into a global ranking,
// flags ambiguous best fits, and caches completed results.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhi0395/redrock/internal/domain"
	domzfit "github.com/abhi0395/redrock/internal/domain/zfit"
	"github.com/abhi0395/redrock/internal/metrics"
	uarch "github.com/abhi0395/redrock/internal/usecase/archetype"
	uzfit "github.com/abhi0395/redrock/internal/usecase/zfit"
)

// Service coordinates one fit per request across all templates.
type Service struct {
	refiner    Refiner
	archetypes ArchetypeStore // nil disables archetype re-scoring
	cache      FitCache       // nil disables caching
	params     Params
	logger     *zap.Logger
}

// New creates the fit pipeline. archetypes and cache may be nil.
func New(refiner Refiner, archetypes ArchetypeStore, cache FitCache, params Params, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if params.NMinima <= 0 {
		params.NMinima = 3
	}
	if params.MaxVeloDiff <= 0 {
		params.MaxVeloDiff = domain.MaxVeloDiff
	}
	if params.MinDeltaChi2 <= 0 {
		params.MinDeltaChi2 = domain.MinDeltaChi2
	}
	if params.DegLegendre <= 0 {
		params.DegLegendre = 3
	}
	if params.Workers <= 0 {
		params.Workers = 4
	}
	return &Service{
		refiner:    refiner,
		archetypes: archetypes,
		cache:      cache,
		params:     params,
		logger:     logger,
	}
}

// Fit refines every scan of the request and assembles the per-target
// result. Template scans run concurrently; the output is deterministic for
// identical inputs regardless of scheduling.
func (s *Service) Fit(ctx context.Context, req FitRequest) (*domzfit.FitResult, error) {
	start := time.Now()
	res, err := s.fit(ctx, req)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.FitDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	return res, err
}

func (s *Service) fit(ctx context.Context, req FitRequest) (*domzfit.FitResult, error) {
	if req.Target == nil {
		return nil, fmt.Errorf("%w: request has no target", domain.ErrInvalidSpectrum)
	}
	if len(req.Scans) == 0 {
		return nil, fmt.Errorf("%w: request has no template scans", domain.ErrMalformedScan)
	}
	spectra := req.Target.Spectra()

	key := ""
	if s.cache != nil {
		key = cacheKey(req)
		if res, ok := s.cache.Get(ctx, key); ok {
			return res, nil
		}
	}

	nminima := req.NMinima
	if nminima <= 0 {
		nminima = s.params.NMinima
	}

	perScan := make([][]domzfit.Minimum, len(req.Scans))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.params.Workers)
	for i, scan := range req.Scans {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			opts := uzfit.Options{
				NMinima:     nminima,
				MaxVeloDiff: s.params.MaxVeloDiff,
				DegLegendre: s.params.DegLegendre,
			}
			if req.UseArchetypes && s.archetypes != nil {
				scorer, err := s.scorer(gctx, scan.Template.Type())
				if err != nil {
					return err
				}
				opts.Archetype = scorer
			}
			minima, err := s.refiner.Refine(scan.ZChi2, scan.Redshifts, spectra, scan.Template, opts)
			if err != nil {
				return fmt.Errorf("refine %s scan: %w", scan.Template.Type(), err)
			}
			perScan[i] = minima
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := s.assemble(req, perScan)

	if s.cache != nil {
		s.cache.Set(ctx, key, res)
	}
	s.logger.Debug("target fit complete",
		zap.String("targetid", req.Target.ID()),
		zap.String("spectype", res.Best.SpecType),
		zap.Float64("z", res.Best.Z),
		zap.Float64("deltachi2", res.Best.DeltaChi2),
	)
	return res, nil
}

// scorer builds the archetype scorer for one spectral type. A type with no
// archetype set falls back to plain template coefficients.
func (s *Service) scorer(ctx context.Context, rrtype string) (uzfit.ArchetypeScorer, error) {
	set, err := s.archetypes.Get(ctx, rrtype)
	if errors.Is(err, domain.ErrArchetypeNotFound) {
		s.logger.Warn("no archetype set for spectral type", zap.String("spectype", rrtype))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load archetypes for %s: %w", rrtype, err)
	}
	scorer := uarch.New(set)
	if s.params.NNeighbors > 0 {
		scorer = scorer.WithNeighbors(uarch.CorrelationNeighbors{}, s.params.NNeighbors)
	}
	return scorer, nil
}

// candidate pairs a refined minimum with the template it came from for the
// global ranking.
type candidate struct {
	min      domzfit.Minimum
	spectype string
}

// assemble merges the per-template minima into the final result. The best
// fit is the global chi-squared minimum; its delta chi-squared is measured
// against the nearest rival that is a genuinely different solution, either
// another spectral type or the same type at a distinct velocity.
func (s *Service) assemble(req FitRequest, perScan [][]domzfit.Minimum) *domzfit.FitResult {
	res := &domzfit.FitResult{
		TargetID:  req.Target.ID(),
		Templates: make([]domzfit.TemplateResult, len(req.Scans)),
	}

	var all []candidate
	for i, scan := range req.Scans {
		res.Templates[i] = domzfit.TemplateResult{
			Template: scan.Template.Type(),
			SpecType: scan.Template.Type(),
			Version:  scan.Template.Version(),
			Results:  domzfit.Columnar(perScan[i]),
		}
		for _, m := range perScan[i] {
			all = append(all, candidate{min: m, spectype: scan.Template.Type()})
		}
	}

	best := all[0]
	for _, c := range all[1:] {
		if c.min.Chi2 < best.min.Chi2 {
			best = c
		}
	}

	deltaChi2 := 0.0
	haveRival := false
	for _, c := range all {
		if c.spectype == best.spectype &&
			math.Abs(domain.GetDV(c.min.Z, best.min.Z)) < s.params.MaxVeloDiff {
			continue
		}
		d := c.min.Chi2 - best.min.Chi2
		if !haveRival || d < deltaChi2 {
			deltaChi2 = d
			haveRival = true
		}
	}

	zwarn := best.min.ZWarn
	if haveRival && deltaChi2 < s.params.MinDeltaChi2 {
		zwarn |= domain.ZWarnSmallDeltaChi2
	}

	fullType := best.min.FullType
	if fullType == "" {
		fullType = best.spectype
	}
	res.Best = domzfit.BestFit{
		Z:         best.min.Z,
		ZErr:      best.min.ZErr,
		ZWarn:     uint64(zwarn),
		Chi2:      best.min.Chi2,
		DeltaChi2: deltaChi2,
		SpecType:  best.spectype,
		FullType:  fullType,
		Coeff:     best.min.Coeff,
		NPixels:   best.min.NPixels,
	}
	return res
}

// cacheKey digests everything that determines the fit outcome: the target's
// spectra, every scan, and the request knobs.
func cacheKey(req FitRequest) string {
	h := sha256.New()
	write := func(v any) { _ = binary.Write(h, binary.LittleEndian, v) }
	writeFloats := func(v []float64) {
		write(uint64(len(v)))
		write(v)
	}

	h.Write([]byte(req.Target.ID()))
	write(uint64(req.NMinima))
	write(req.UseArchetypes)

	spectra := req.Target.Spectra()
	write(uint64(len(spectra)))
	for _, sp := range spectra {
		writeFloats(sp.Wave())
		writeFloats(sp.Flux())
		writeFloats(sp.Ivar())
	}

	write(uint64(len(req.Scans)))
	for _, scan := range req.Scans {
		h.Write([]byte(scan.Template.Type()))
		h.Write([]byte(scan.Template.Version()))
		writeFloats(scan.Redshifts)
		writeFloats(scan.ZChi2)
	}
	return "redrock:fit:" + hex.EncodeToString(h.Sum(nil))
}
