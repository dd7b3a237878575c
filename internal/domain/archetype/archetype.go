// Package archetype holds the archetype-set value object: fixed
// non-parametric flux templates per spectral subtype, used to re-score
// refined redshift minima.
package archetype

import (
	"fmt"
	"strings"

	"github.com/abhi0395/redrock/internal/domain"
)

// Set is the collection of archetypes for one spectral type.
// Immutable after construction.
type Set struct {
	rrtype    string
	version   string
	wave      []float64
	subtypes  []string
	flux      [][]float64
	fullTypes []string
}

// New validates and creates an archetype Set. wave is the shared ascending
// rest-frame grid; flux holds one row per subtype.
func New(rrtype, version string, wave []float64, subtypes []string, flux [][]float64) (*Set, error) {
	rrtype = strings.ToUpper(strings.TrimSpace(rrtype))
	if rrtype == "" {
		return nil, fmt.Errorf("%w: spectral type is required", domain.ErrInvalidArchetype)
	}
	if len(wave) < 2 {
		return nil, fmt.Errorf("%w: rest-frame grid needs at least 2 points", domain.ErrInvalidArchetype)
	}
	for i := 1; i < len(wave); i++ {
		if !(wave[i] > wave[i-1]) {
			return nil, fmt.Errorf("%w: rest-frame grid not strictly ascending at %d",
				domain.ErrInvalidArchetype, i)
		}
	}
	if len(flux) == 0 || len(subtypes) != len(flux) {
		return nil, fmt.Errorf("%w: %d subtypes but %d flux rows",
			domain.ErrInvalidArchetype, len(subtypes), len(flux))
	}
	for i, row := range flux {
		if len(row) != len(wave) {
			return nil, fmt.Errorf("%w: archetype %d has %d values, grid has %d",
				domain.ErrInvalidArchetype, i, len(row), len(wave))
		}
	}

	fullTypes := make([]string, len(subtypes))
	for i, sub := range subtypes {
		sub = strings.TrimSpace(sub)
		if sub == "" {
			fullTypes[i] = rrtype
		} else {
			fullTypes[i] = rrtype + ":::" + sub
		}
	}
	return &Set{
		rrtype: rrtype, version: version, wave: wave,
		subtypes: subtypes, flux: flux, fullTypes: fullTypes,
	}, nil
}

// Type returns the spectral type this set covers.
func (s *Set) Type() string { return s.rrtype }

// Version returns the archetype-set version tag.
func (s *Set) Version() string { return s.version }

// NArch returns the number of archetypes.
func (s *Set) NArch() int { return len(s.flux) }

// Wave returns the shared rest-frame grid. Callers must not mutate it.
func (s *Set) Wave() []float64 { return s.wave }

// Flux returns the flux row of archetype i. Callers must not mutate it.
func (s *Set) Flux(i int) []float64 { return s.flux[i] }

// Subtype returns the subtype label of archetype i.
func (s *Set) Subtype(i int) string { return s.subtypes[i] }

// FullType returns "TYPE:::SUBTYPE" for archetype i, or the bare type when
// the subtype label is empty.
func (s *Set) FullType(i int) string { return s.fullTypes[i] }
