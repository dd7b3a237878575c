package archetype

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	domarch "github.com/abhi0395/redrock/internal/domain/archetype"
	"github.com/abhi0395/redrock/internal/domain/spectrum"
	"github.com/abhi0395/redrock/internal/numeric"
	"github.com/abhi0395/redrock/internal/usecase/zscan"
)

// scoringFixture holds one observed spectrum generated from a known
// archetype at a known redshift, plus the packed inputs BestArchetype takes.
type scoringFixture struct {
	set      *domarch.Set
	spectra  []*spectrum.Spectrum
	weights  []float64
	flux     []float64
	wflux    []float64
	dwave    map[uint64][]float64
	legendre map[uint64][][]float64
	z        float64
}

// makeScoringFixture builds a 3-subtype set where the data matches subtype
// matchIdx scaled by 2.
func makeScoringFixture(t *testing.T, matchIdx int) scoringFixture {
	t.Helper()
	const z = 0.25

	restWave := numeric.Linspace(2800, 4800, 600)
	shapes := make([][]float64, 3)
	centers := []float64{3300, 3600, 3900}
	for a := range shapes {
		row := make([]float64, len(restWave))
		for i, w := range restWave {
			d := (w - centers[a]) / 40
			row[i] = math.Exp(-0.5 * d * d)
		}
		shapes[a] = row
	}
	set, err := domarch.New("GALAXY", "v1", restWave,
		[]string{"E", "Sb", "Irr"}, shapes)
	if err != nil {
		t.Fatalf("archetype.New: %v", err)
	}

	obsWave := numeric.Linspace(4000, 5500, 80)
	ivar := make([]float64, len(obsWave))
	for i := range ivar {
		ivar[i] = 1
	}
	_, err = spectrum.New(obsWave, make([]float64, len(obsWave)), ivar, nil)
	if err != nil {
		t.Fatalf("spectrum.New: %v", err)
	}

	shifted := make([]float64, len(restWave))
	for i, w := range restWave {
		shifted[i] = w * (1 + z)
	}
	model, err := numeric.TrapzRebin(shifted, set.Flux(matchIdx), numeric.CentersToEdges(obsWave))
	if err != nil {
		t.Fatalf("TrapzRebin: %v", err)
	}
	flux := make([]float64, len(obsWave))
	for i := range flux {
		flux[i] = 2 * model[i]
	}
	sp, err := spectrum.New(obsWave, flux, ivar, nil)
	if err != nil {
		t.Fatalf("spectrum.New: %v", err)
	}
	spectra := []*spectrum.Spectrum{sp}

	dwave, _ := zscan.Wavegrids(spectra)
	weights, fl, wfl := zscan.SpectralData(spectra)
	legendre := map[uint64][][]float64{
		sp.WaveHash(): numeric.LegendreBasis(2, obsWave, obsWave[0], obsWave[len(obsWave)-1]),
	}

	return scoringFixture{
		set: set, spectra: spectra,
		weights: weights, flux: fl, wflux: wfl,
		dwave: dwave, legendre: legendre, z: z,
	}
}

func TestBestArchetype_PicksMatchingSubtype(t *testing.T) {
	for _, matchIdx := range []int{0, 1, 2} {
		fx := makeScoringFixture(t, matchIdx)
		scorer := New(fx.set)

		chi2, coeff, fullType, err := scorer.BestArchetype(
			fx.spectra, fx.weights, fx.flux, fx.wflux, fx.dwave, fx.z, fx.legendre)
		if err != nil {
			t.Fatalf("match %d: BestArchetype: %v", matchIdx, err)
		}
		if fullType != fx.set.FullType(matchIdx) {
			t.Errorf("match %d: got %q, want %q", matchIdx, fullType, fx.set.FullType(matchIdx))
		}
		if chi2 > 1e-9 {
			t.Errorf("match %d: chi2 = %g, want ~0 for exact data", matchIdx, chi2)
		}
		// Columns: [archetype | P0 | P1]; the data is 2x the archetype with
		// no continuum.
		if len(coeff) != 3 || math.Abs(coeff[0]-2) > 1e-6 {
			t.Errorf("match %d: coeff = %v, want leading ~2", matchIdx, coeff)
		}
	}
}

func TestBestArchetype_FullTypeFormat(t *testing.T) {
	fx := makeScoringFixture(t, 1)
	_, _, fullType, err := New(fx.set).BestArchetype(
		fx.spectra, fx.weights, fx.flux, fx.wflux, fx.dwave, fx.z, fx.legendre)
	if err != nil {
		t.Fatalf("BestArchetype: %v", err)
	}
	if fullType != "GALAXY:::Sb" {
		t.Errorf("fulltype = %q, want GALAXY:::Sb", fullType)
	}
}

// fixedPolicy always returns the same candidate indices.
type fixedPolicy struct{ idx []int }

func (p fixedPolicy) Neighbors(
	_ *domarch.Set, _ []*spectrum.Spectrum, _ map[uint64][]float64, _ []float64, _ float64, _ int,
) ([]int, error) {
	return p.idx, nil
}

func TestBestArchetype_NeighborRestriction(t *testing.T) {
	// Data matches subtype 0, but the policy only admits subtype 2.
	fx := makeScoringFixture(t, 0)
	scorer := New(fx.set).WithNeighbors(fixedPolicy{idx: []int{2}}, 1)

	chi2, _, fullType, err := scorer.BestArchetype(
		fx.spectra, fx.weights, fx.flux, fx.wflux, fx.dwave, fx.z, fx.legendre)
	if err != nil {
		t.Fatalf("BestArchetype: %v", err)
	}
	if fullType != fx.set.FullType(2) {
		t.Errorf("got %q, want restricted candidate %q", fullType, fx.set.FullType(2))
	}
	if chi2 < 1e-6 {
		t.Errorf("chi2 = %g, want clearly worse than the true subtype", chi2)
	}
}

func TestCorrelationNeighbors_RanksMatchingSubtypeFirst(t *testing.T) {
	for _, matchIdx := range []int{0, 2} {
		fx := makeScoringFixture(t, matchIdx)
		got, err := CorrelationNeighbors{}.Neighbors(fx.set, fx.spectra, fx.dwave, fx.wflux, fx.z, 1)
		if err != nil {
			t.Fatalf("Neighbors: %v", err)
		}
		if diff := cmp.Diff([]int{matchIdx}, got); diff != "" {
			t.Errorf("match %d (-want +got):\n%s", matchIdx, diff)
		}
	}
}

func TestBestArchetype_ZeroFluxSubtypeScoresSentinel(t *testing.T) {
	// One archetype with identically zero flux makes its solve singular; the
	// scan must survive and pick the other subtype.
	restWave := numeric.Linspace(2800, 4800, 600)
	bump := make([]float64, len(restWave))
	for i, w := range restWave {
		d := (w - 3600) / 40
		bump[i] = math.Exp(-0.5 * d * d)
	}
	set, err := domarch.New("QSO", "v1", restWave,
		[]string{"", "LOBAL"}, [][]float64{make([]float64, len(restWave)), bump})
	if err != nil {
		t.Fatalf("archetype.New: %v", err)
	}

	fx := makeScoringFixture(t, 1)
	// Rebuild flux from the bump archetype of this set at the fixture z.
	shifted := make([]float64, len(restWave))
	for i, w := range restWave {
		shifted[i] = w * (1 + fx.z)
	}
	obsWave := fx.spectra[0].Wave()
	model, err := numeric.TrapzRebin(shifted, bump, numeric.CentersToEdges(obsWave))
	if err != nil {
		t.Fatalf("TrapzRebin: %v", err)
	}
	ivar := make([]float64, len(obsWave))
	flux := make([]float64, len(obsWave))
	for i := range flux {
		ivar[i] = 1
		flux[i] = 3 * model[i]
	}
	sp, err := spectrum.New(obsWave, flux, ivar, nil)
	if err != nil {
		t.Fatalf("spectrum.New: %v", err)
	}
	spectra := []*spectrum.Spectrum{sp}
	dwave, _ := zscan.Wavegrids(spectra)
	weights, fl, wfl := zscan.SpectralData(spectra)
	legendre := map[uint64][][]float64{
		sp.WaveHash(): numeric.LegendreBasis(2, obsWave, obsWave[0], obsWave[len(obsWave)-1]),
	}

	_, _, fullType, err := New(set).BestArchetype(spectra, weights, fl, wfl, dwave, fx.z, legendre)
	if err != nil {
		t.Fatalf("BestArchetype: %v", err)
	}
	if fullType != "QSO:::LOBAL" {
		t.Errorf("got %q, want QSO:::LOBAL", fullType)
	}
}
