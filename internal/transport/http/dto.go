package http

import (
	"fmt"

	"github.com/abhi0395/redrock/internal/domain"
	"github.com/abhi0395/redrock/internal/domain/spectrum"
)

// Error response codes.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeNoMinima         = "no_minima"
	codeInternalError    = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// resolutionDTO is the band-diagonal resolution matrix on the wire, in the
// same layout the domain uses: element (i, i+offsets[k]) = diags[k][i+offsets[k]].
type resolutionDTO struct {
	Offsets []int       `json:"offsets"`
	Diags   [][]float64 `json:"diags"`
}

type spectrumDTO struct {
	Wave       []float64      `json:"wave"`
	Flux       []float64      `json:"flux"`
	Ivar       []float64      `json:"ivar"`
	Resolution *resolutionDTO `json:"resolution,omitempty"`
}

type scanDTO struct {
	Template  string    `json:"template"`
	Redshifts []float64 `json:"redshifts"`
	ZChi2     []float64 `json:"zchi2"`
}

type fitRequestDTO struct {
	TargetID      string        `json:"targetid"`
	Spectra       []spectrumDTO `json:"spectra"`
	Scans         []scanDTO     `json:"scans"`
	NMinima       int           `json:"nminima,omitempty"`
	UseArchetypes bool          `json:"use_archetypes,omitempty"`
}

type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// toSpectrum converts one wire spectrum to the domain value, validating as
// it goes. An absent resolution means an identity matrix.
func (d spectrumDTO) toSpectrum(idx int) (*spectrum.Spectrum, error) {
	var res *spectrum.Resolution
	var err error
	if d.Resolution != nil {
		res, err = spectrum.NewResolution(len(d.Wave), d.Resolution.Offsets, d.Resolution.Diags)
		if err != nil {
			return nil, fmt.Errorf("%w: spectrum %d resolution: %v", domain.ErrInvalidSpectrum, idx, err)
		}
	} else {
		res = spectrum.Identity(len(d.Wave))
	}
	sp, err := spectrum.New(d.Wave, d.Flux, d.Ivar, res)
	if err != nil {
		return nil, fmt.Errorf("spectrum %d: %w", idx, err)
	}
	return sp, nil
}
