package domain

import "errors"

var (
	// ErrMalformedScan signals a structurally invalid coarse scan
	// (mismatched array lengths or fewer than two points).
	ErrMalformedScan = errors.New("malformed coarse scan")
	// ErrNoMinima signals that no redshift minima survived refinement,
	// which means the coarse scan itself was degenerate.
	ErrNoMinima = errors.New("no redshift minima found")
	// ErrInvalidSpectrum signals an invalid spectrum definition.
	ErrInvalidSpectrum = errors.New("invalid spectrum")
	// ErrInvalidTemplate signals an invalid template definition.
	ErrInvalidTemplate = errors.New("invalid template")
	// ErrInvalidArchetype signals an invalid archetype definition.
	ErrInvalidArchetype = errors.New("invalid archetype")
	// ErrTemplateNotFound signals a missing template.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrArchetypeNotFound signals a missing archetype set.
	ErrArchetypeNotFound = errors.New("archetype set not found")
	// ErrOutOfRange signals a rebin target outside the model wavelength coverage.
	ErrOutOfRange = errors.New("wavelength grid outside model coverage")
)
