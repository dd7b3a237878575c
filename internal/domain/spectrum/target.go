package spectrum

import (
	"fmt"

	"github.com/abhi0395/redrock/internal/domain"
)

// Target groups the spectra observed for a single object.
type Target struct {
	id      string
	spectra []*Spectrum
}

// NewTarget creates a Target from its spectra.
func NewTarget(id string, spectra []*Spectrum) (*Target, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: target ID is required", domain.ErrInvalidSpectrum)
	}
	if len(spectra) == 0 {
		return nil, fmt.Errorf("%w: target %s has no spectra", domain.ErrInvalidSpectrum, id)
	}
	return &Target{id: id, spectra: spectra}, nil
}

// ID returns the target identifier.
func (t *Target) ID() string { return t.id }

// Spectra returns the target's spectra. Callers must not mutate the slice.
func (t *Target) Spectra() []*Spectrum { return t.spectra }

// NGoodPixels returns the number of strictly-positive-weight pixels summed
// over all spectra.
func (t *Target) NGoodPixels() int {
	var n int
	for _, s := range t.spectra {
		n += s.NGoodPixels()
	}
	return n
}
