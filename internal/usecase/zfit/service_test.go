package zfit

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abhi0395/redrock/internal/domain"
	"github.com/abhi0395/redrock/internal/domain/spectrum"
	"github.com/abhi0395/redrock/internal/domain/template"
	"github.com/abhi0395/redrock/internal/numeric"
	"github.com/abhi0395/redrock/internal/usecase/zscan"
)

// fixture bundles a synthetic observation with a known redshift: a template
// carrying one emission line over a flat continuum, a spectrum generated
// from that template at zTrue plus a small structured residual, and the
// coarse chi-squared scan over the trial grid.
type fixture struct {
	tmpl      *template.Template
	spectra   []*spectrum.Spectrum
	redshifts []float64
	zchi2     []float64
	zTrue     float64
}

func makeFixture(t *testing.T) fixture {
	t.Helper()
	const zTrue = 0.5

	restWave := numeric.Linspace(1500, 10500, 1500)
	comp := make([]float64, len(restWave))
	for i, w := range restWave {
		d := (w - 4000) / 50
		comp[i] = 1 + 4*math.Exp(-0.5*d*d)
	}
	tmpl, err := template.New("GALAXY", "test", restWave, [][]float64{comp})
	if err != nil {
		t.Fatalf("template.New: %v", err)
	}

	obsWave := numeric.Linspace(3600, 9800, 250)
	ivar := make([]float64, len(obsWave))
	for i := range ivar {
		ivar[i] = 1
	}

	// Generate the observed flux from the template at the true redshift,
	// plus a smooth residual the single-component basis cannot absorb, so
	// the minimum chi-squared stays strictly positive.
	probe, err := spectrum.New(obsWave, make([]float64, len(obsWave)), ivar, nil)
	if err != nil {
		t.Fatalf("spectrum.New: %v", err)
	}
	dwave, _ := zscan.Wavegrids([]*spectrum.Spectrum{probe})
	binned, err := zscan.RebinTemplate(tmpl, []float64{zTrue}, dwave)
	if err != nil {
		t.Fatalf("RebinTemplate: %v", err)
	}
	model := binned[probe.WaveHash()][0]
	flux := make([]float64, len(obsWave))
	for i := range flux {
		flux[i] = 1.3*model[i][0] + 0.1*math.Sin(obsWave[i]/700)
	}
	sp, err := spectrum.New(obsWave, flux, ivar, nil)
	if err != nil {
		t.Fatalf("spectrum.New: %v", err)
	}
	spectra := []*spectrum.Spectrum{sp}

	redshifts := numeric.Linspace(0.3, 0.7, 41)
	scanBinned, err := zscan.RebinTemplate(tmpl, redshifts, dwave)
	if err != nil {
		t.Fatalf("RebinTemplate scan: %v", err)
	}
	zscan.ApplyTransmission(redshifts, dwave, scanBinned)
	weights, fl, wfl := zscan.SpectralData(spectra)
	zchi2, _ := zscan.CalcZChi2Batch(spectra, scanBinned, weights, fl, wfl, len(redshifts), 1)

	return fixture{tmpl: tmpl, spectra: spectra, redshifts: redshifts, zchi2: zchi2, zTrue: zTrue}
}

func TestRefine_RecoversKnownRedshift(t *testing.T) {
	fx := makeFixture(t)
	svc := New(nil)

	results, err := svc.Refine(fx.zchi2, fx.redshifts, fx.spectra, fx.tmpl, Options{NMinima: 3})
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if len(results) == 0 || len(results) > 3 {
		t.Fatalf("got %d results, want 1..3", len(results))
	}

	best := results[0]
	if math.Abs(best.Z-fx.zTrue) > 0.02 {
		t.Errorf("best z = %g, want ~%g", best.Z, fx.zTrue)
	}
	if best.ZWarn != 0 {
		t.Errorf("best zwarn = %b, want 0", best.ZWarn)
	}
	if best.ZErr <= 0 {
		t.Errorf("best zerr = %g, want positive", best.ZErr)
	}
	if len(best.Coeff) != 1 || best.Coeff[0] <= 0 {
		t.Errorf("best coeff = %v, want one positive value", best.Coeff)
	}

	for i := 1; i < len(results); i++ {
		if results[i].Chi2 < results[i-1].Chi2 {
			t.Errorf("results not sorted by chi2 at %d", i)
		}
	}
	for i := range results {
		if results[i].NPixels != fx.spectra[0].NGoodPixels() {
			t.Errorf("result %d npixels = %d, want %d",
				i, results[i].NPixels, fx.spectra[0].NGoodPixels())
		}
		if len(results[i].ZZ) != fineScanPoints || len(results[i].ZZChi2) != fineScanPoints {
			t.Errorf("result %d fine scan has %d/%d points, want %d",
				i, len(results[i].ZZ), len(results[i].ZZChi2), fineScanPoints)
		}
	}

	// Accepted minima are velocity-distinct.
	for i := range results {
		for j := i + 1; j < len(results); j++ {
			dv := math.Abs(domain.GetDV(results[j].Z, results[i].Z))
			if dv < domain.MaxVeloDiff {
				t.Errorf("minima %d and %d only %g km/s apart", i, j, dv)
			}
		}
	}

	// No archetype scorer: no full-type labels.
	for i := range results {
		if results[i].FullType != "" {
			t.Errorf("result %d has fulltype %q without archetype scoring", i, results[i].FullType)
		}
	}
}

func TestRefine_NMinimaLimits(t *testing.T) {
	fx := makeFixture(t)
	svc := New(nil)

	results, err := svc.Refine(fx.zchi2, fx.redshifts, fx.spectra, fx.tmpl, Options{NMinima: 1})
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want exactly 1", len(results))
	}
	if math.Abs(results[0].Z-fx.zTrue) > 0.02 {
		t.Errorf("z = %g, want ~%g", results[0].Z, fx.zTrue)
	}
}

func TestRefine_SingleMinimumNotPadded(t *testing.T) {
	fx := makeFixture(t)
	svc := New(nil)

	// A 20-point scan with one deep minimum at index 10: only a single
	// candidate exists, so nminima=3 must yield exactly one result rather
	// than padding the list.
	redshifts := numeric.Linspace(0.3, 0.7, 20)
	zchi2 := make([]float64, len(redshifts))
	for i := range zchi2 {
		d := float64(i - 10)
		zchi2[i] = 100 + d*d
	}

	results, err := svc.Refine(zchi2, redshifts, fx.spectra, fx.tmpl, Options{NMinima: 3})
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want exactly 1", len(results))
	}
	if want := fx.spectra[0].NGoodPixels(); results[0].NPixels != want {
		t.Errorf("npixels = %d, want %d positive-weight pixels", results[0].NPixels, want)
	}
}

func TestRefine_Idempotent(t *testing.T) {
	fx := makeFixture(t)
	svc := New(nil)

	first, err := svc.Refine(fx.zchi2, fx.redshifts, fx.spectra, fx.tmpl, Options{NMinima: 3})
	if err != nil {
		t.Fatalf("first Refine: %v", err)
	}
	second, err := svc.Refine(fx.zchi2, fx.redshifts, fx.spectra, fx.tmpl, Options{NMinima: 3})
	if err != nil {
		t.Fatalf("second Refine: %v", err)
	}
	// Bit-identical, not merely close: repeated runs must not differ in
	// iteration or reduction order.
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated refinement differs (-first +second):\n%s", diff)
	}
}

// stubScorer implements ArchetypeScorer with canned values.
type stubScorer struct {
	chi2     float64
	coeff    []float64
	fullType string
	err      error
	calls    int
}

func (s *stubScorer) BestArchetype(
	_ []*spectrum.Spectrum, _, _, _ []float64, _ map[uint64][]float64,
	_ float64, legendre map[uint64][][]float64,
) (float64, []float64, string, error) {
	s.calls++
	if len(legendre) == 0 {
		return 0, nil, "", errors.New("missing legendre basis")
	}
	return s.chi2, s.coeff, s.fullType, s.err
}

func TestRefine_ArchetypeOverridesFit(t *testing.T) {
	fx := makeFixture(t)
	svc := New(nil)

	stub := &stubScorer{chi2: 42, coeff: []float64{1, 2}, fullType: "GALAXY:::BGS"}
	results, err := svc.Refine(fx.zchi2, fx.redshifts, fx.spectra, fx.tmpl,
		Options{NMinima: 3, Archetype: stub})
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if stub.calls != len(results) {
		t.Errorf("scorer called %d times for %d results", stub.calls, len(results))
	}
	for i, r := range results {
		if r.Chi2 != 42 {
			t.Errorf("result %d chi2 = %g, want archetype chi2 42", i, r.Chi2)
		}
		if r.FullType != "GALAXY:::BGS" {
			t.Errorf("result %d fulltype = %q", i, r.FullType)
		}
		if len(r.Coeff) != 2 || r.Coeff[0] != 1 || r.Coeff[1] != 2 {
			t.Errorf("result %d coeff = %v, want archetype coeff", i, r.Coeff)
		}
	}
}

func TestRefine_ArchetypeErrorPropagates(t *testing.T) {
	fx := makeFixture(t)
	svc := New(nil)

	wantErr := errors.New("archetype library corrupt")
	stub := &stubScorer{err: wantErr}
	_, err := svc.Refine(fx.zchi2, fx.redshifts, fx.spectra, fx.tmpl,
		Options{NMinima: 3, Archetype: stub})
	if !errors.Is(err, wantErr) {
		t.Errorf("got %v, want wrapped scorer error", err)
	}
}

func TestRefine_MalformedScan(t *testing.T) {
	fx := makeFixture(t)
	svc := New(nil)

	_, err := svc.Refine([]float64{1, 2, 3}, []float64{0.1, 0.2}, fx.spectra, fx.tmpl, Options{})
	if !errors.Is(err, domain.ErrMalformedScan) {
		t.Errorf("length mismatch: got %v, want ErrMalformedScan", err)
	}

	_, err = svc.Refine([]float64{1}, []float64{0.1}, fx.spectra, fx.tmpl, Options{})
	if !errors.Is(err, domain.ErrMalformedScan) {
		t.Errorf("single point: got %v, want ErrMalformedScan", err)
	}
}

func TestRefine_NoSpectra(t *testing.T) {
	fx := makeFixture(t)
	svc := New(nil)

	_, err := svc.Refine(fx.zchi2, fx.redshifts, nil, fx.tmpl, Options{})
	if !errors.Is(err, domain.ErrInvalidSpectrum) {
		t.Errorf("got %v, want ErrInvalidSpectrum", err)
	}
}
