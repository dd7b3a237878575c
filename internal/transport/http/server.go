// Package http is the chi-based HTTP API: fit submission, health, metrics.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/abhi0395/redrock/internal/domain"
	"github.com/abhi0395/redrock/internal/domain/spectrum"
	domtmpl "github.com/abhi0395/redrock/internal/domain/template"
	domzfit "github.com/abhi0395/redrock/internal/domain/zfit"
	logpkg "github.com/abhi0395/redrock/internal/logger"
	healthuc "github.com/abhi0395/redrock/internal/usecase/health"
	"github.com/abhi0395/redrock/internal/usecase/pipeline"
	"github.com/abhi0395/redrock/internal/version"
)

// Fitter runs a full per-target fit.
type Fitter interface {
	Fit(ctx context.Context, req pipeline.FitRequest) (*domzfit.FitResult, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// TemplateStore resolves templates by spectral type.
type TemplateStore interface {
	Get(ctx context.Context, rrtype string) (*domtmpl.Template, error)
}

// Server serves the fit API. Handlers log through the request-scoped
// logger installed by WideEventMiddleware.
type Server struct {
	fitter        Fitter
	templates     TemplateStore
	health        *healthuc.Service
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(fitter Fitter, templates TemplateStore, health *healthuc.Service) *Server {
	s := &Server{
		fitter:    fitter,
		templates: templates,
		health:    health,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrMalformedScan, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidSpectrum, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidTemplate, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidArchetype, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrOutOfRange, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrTemplateNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrArchetypeNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrNoMinima, http.StatusUnprocessableEntity, codeNoMinima),
	}
	return s
}

// Routes mounts the API handlers on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/fit", s.handleFit)
	r.Get("/health", s.handleHealth)
}

// handleFit handles POST /v1/fit.
func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	var dto fitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(dto.Spectra) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "at least one spectrum is required")
		return
	}
	if len(dto.Scans) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "at least one template scan is required")
		return
	}

	spectra := make([]*spectrum.Spectrum, len(dto.Spectra))
	for i, sd := range dto.Spectra {
		sp, err := sd.toSpectrum(i)
		if err != nil {
			s.handleDomainError(r.Context(), w, err)
			return
		}
		spectra[i] = sp
	}
	target, err := spectrum.NewTarget(dto.TargetID, spectra)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	scans := make([]pipeline.TemplateScan, len(dto.Scans))
	for i, sc := range dto.Scans {
		tmpl, err := s.templates.Get(r.Context(), sc.Template)
		if err != nil {
			s.handleDomainError(r.Context(), w, err)
			return
		}
		scans[i] = pipeline.TemplateScan{
			Template:  tmpl,
			Redshifts: sc.Redshifts,
			ZChi2:     sc.ZChi2,
		}
	}

	res, err := s.fitter.Fit(r.Context(), pipeline.FitRequest{
		Target:        target,
		Scans:         scans,
		NMinima:       dto.NMinima,
		UseArchetypes: dto.UseArchetypes,
	})
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	for name, res := range report.Checks {
		checks[name] = string(res)
	}
	writeJSON(w, httpStatus, healthResponse{
		Status:  string(report.Status),
		Version: version.Version,
		Checks:  checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logpkg.FromContext(ctx)
	log.Warn("domain error", zap.Error(err))
	msg := err.Error()
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
