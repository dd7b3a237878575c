// Package template holds the redshift-template value object: an ordered
// basis of rest-frame flux components queryable at arbitrary redshift.
package template

import (
	"fmt"
	"strings"

	"github.com/abhi0395/redrock/internal/domain"
)

// Template is a basis of rest-frame flux components for one spectral type.
// Immutable after construction.
type Template struct {
	rrtype  string
	version string
	wave    []float64
	basis   [][]float64
}

// New validates and creates a Template. wave is the ascending rest-frame
// grid; basis holds nbasis component rows, each on that grid.
func New(rrtype, version string, wave []float64, basis [][]float64) (*Template, error) {
	rrtype = strings.ToUpper(strings.TrimSpace(rrtype))
	if rrtype == "" {
		return nil, fmt.Errorf("%w: spectral type is required", domain.ErrInvalidTemplate)
	}
	if len(wave) < 2 {
		return nil, fmt.Errorf("%w: rest-frame grid needs at least 2 points", domain.ErrInvalidTemplate)
	}
	for i := 1; i < len(wave); i++ {
		if !(wave[i] > wave[i-1]) {
			return nil, fmt.Errorf("%w: rest-frame grid not strictly ascending at %d",
				domain.ErrInvalidTemplate, i)
		}
	}
	if len(basis) == 0 {
		return nil, fmt.Errorf("%w: empty basis", domain.ErrInvalidTemplate)
	}
	for k, row := range basis {
		if len(row) != len(wave) {
			return nil, fmt.Errorf("%w: basis component %d has %d values, grid has %d",
				domain.ErrInvalidTemplate, k, len(row), len(wave))
		}
	}
	return &Template{rrtype: rrtype, version: version, wave: wave, basis: basis}, nil
}

// Type returns the spectral type (GALAXY, STAR, QSO, ...).
func (t *Template) Type() string { return t.rrtype }

// Version returns the template version tag.
func (t *Template) Version() string { return t.version }

// NBasis returns the number of basis components.
func (t *Template) NBasis() int { return len(t.basis) }

// Wave returns the rest-frame wavelength grid. Callers must not mutate it.
func (t *Template) Wave() []float64 { return t.wave }

// Basis returns basis component k. Callers must not mutate it.
func (t *Template) Basis(k int) []float64 { return t.basis[k] }

// MinWave and MaxWave bound the rest-frame coverage.
func (t *Template) MinWave() float64 { return t.wave[0] }

// MaxWave returns the last rest-frame grid point.
func (t *Template) MaxWave() float64 { return t.wave[len(t.wave)-1] }
