package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhi0395/redrock/internal/domain/spectrum"
	"github.com/abhi0395/redrock/internal/logger"
	"github.com/abhi0395/redrock/internal/metrics"
	archrepo "github.com/abhi0395/redrock/internal/repository/archetype"
	tmplrepo "github.com/abhi0395/redrock/internal/repository/template"
	"github.com/abhi0395/redrock/internal/usecase/pipeline"
	zfituc "github.com/abhi0395/redrock/internal/usecase/zfit"
)

var (
	fitTemplateDir  string
	fitArchetypeDir string
	fitNMinima      int
	fitWorkers      int
	fitOutput       string
)

var fitCmd = &cobra.Command{
	Use:   "fit <request.json>",
	Short: "Run one fit from a JSON request file, without the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return runFit(args[0])
	},
}

func init() {
	fitCmd.Flags().StringVar(&fitTemplateDir, "templates", "templates", "template library directory")
	fitCmd.Flags().StringVar(&fitArchetypeDir, "archetypes", "", "archetype library directory (enables re-scoring)")
	fitCmd.Flags().IntVar(&fitNMinima, "nminima", 3, "maximum refined minima per template")
	fitCmd.Flags().IntVar(&fitWorkers, "workers", 4, "concurrent template scans")
	fitCmd.Flags().StringVarP(&fitOutput, "output", "o", "", "output file (default stdout)")
}

// fileResolution, fileSpectrum, fileScan and fileRequest mirror the HTTP
// request body so the same payload works in both modes.
type fileResolution struct {
	Offsets []int       `json:"offsets"`
	Diags   [][]float64 `json:"diags"`
}

type fileSpectrum struct {
	Wave       []float64       `json:"wave"`
	Flux       []float64       `json:"flux"`
	Ivar       []float64       `json:"ivar"`
	Resolution *fileResolution `json:"resolution,omitempty"`
}

type fileScan struct {
	Template  string    `json:"template"`
	Redshifts []float64 `json:"redshifts"`
	ZChi2     []float64 `json:"zchi2"`
}

type fileRequest struct {
	TargetID      string         `json:"targetid"`
	Spectra       []fileSpectrum `json:"spectra"`
	Scans         []fileScan     `json:"scans"`
	NMinima       int            `json:"nminima,omitempty"`
	UseArchetypes bool           `json:"use_archetypes,omitempty"`
}

func runFit(path string) error {
	log, err := logger.NewLogger("local")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	metrics.RegisterFitMetrics()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	var freq fileRequest
	if err := json.Unmarshal(data, &freq); err != nil {
		return fmt.Errorf("parse request: %w", err)
	}

	templates, err := tmplrepo.NewFromDir(fitTemplateDir)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	var archetypes pipeline.ArchetypeStore
	if fitArchetypeDir != "" {
		repo, err := archrepo.NewFromDir(fitArchetypeDir)
		if err != nil {
			return fmt.Errorf("load archetypes: %w", err)
		}
		archetypes = repo
	}

	ctx := context.Background()

	spectra := make([]*spectrum.Spectrum, len(freq.Spectra))
	for i, fs := range freq.Spectra {
		var res *spectrum.Resolution
		if fs.Resolution != nil {
			res, err = spectrum.NewResolution(len(fs.Wave), fs.Resolution.Offsets, fs.Resolution.Diags)
			if err != nil {
				return fmt.Errorf("spectrum %d resolution: %w", i, err)
			}
		} else {
			res = spectrum.Identity(len(fs.Wave))
		}
		spectra[i], err = spectrum.New(fs.Wave, fs.Flux, fs.Ivar, res)
		if err != nil {
			return fmt.Errorf("spectrum %d: %w", i, err)
		}
	}

	target, err := spectrum.NewTarget(freq.TargetID, spectra)
	if err != nil {
		return err
	}

	scans := make([]pipeline.TemplateScan, len(freq.Scans))
	for i, fs := range freq.Scans {
		tmpl, err := templates.Get(ctx, fs.Template)
		if err != nil {
			return err
		}
		scans[i] = pipeline.TemplateScan{Template: tmpl, Redshifts: fs.Redshifts, ZChi2: fs.ZChi2}
	}

	fitter := pipeline.New(zfituc.New(log), archetypes, nil, pipeline.Params{
		NMinima: fitNMinima,
		Workers: fitWorkers,
	}, log)

	res, err := fitter.Fit(ctx, pipeline.FitRequest{
		Target:        target,
		Scans:         scans,
		NMinima:       freq.NMinima,
		UseArchetypes: freq.UseArchetypes || fitArchetypeDir != "",
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	out = append(out, '\n')

	if fitOutput == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(fitOutput, out, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info("fit written", zap.String("path", fitOutput), zap.Float64("z", res.Best.Z))
	return nil
}
