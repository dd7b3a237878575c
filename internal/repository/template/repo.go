// Package template loads the spectral template library from disk and serves
// lookups by spectral type.
package template

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/abhi0395/redrock/internal/domain"
	domtmpl "github.com/abhi0395/redrock/internal/domain/template"
)

// filePattern matches template library files inside the configured directory.
const filePattern = "rrtemplate-*.json"

type templateFile struct {
	RRType  string      `json:"rrtype"`
	Version string      `json:"version"`
	Wave    []float64   `json:"wave"`
	Basis   [][]float64 `json:"basis"`
}

// Repo is an in-memory template library loaded once at startup. Read-only
// after construction, safe for concurrent use.
type Repo struct {
	byType map[string]*domtmpl.Template
}

// NewFromDir loads every template file in dir. Files are read in sorted
// order; a duplicate spectral type is an error.
func NewFromDir(dir string) (*Repo, error) {
	paths, err := filepath.Glob(filepath.Join(dir, filePattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", dir, err)
	}
	sort.Strings(paths)

	byType := make(map[string]*domtmpl.Template, len(paths))
	for _, path := range paths {
		tmpl, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		if _, ok := byType[tmpl.Type()]; ok {
			return nil, fmt.Errorf("load %s: duplicate spectral type %s", path, tmpl.Type())
		}
		byType[tmpl.Type()] = tmpl
	}
	return &Repo{byType: byType}, nil
}

func loadFile(path string) (*domtmpl.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f templateFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	tmpl, err := domtmpl.New(f.RRType, f.Version, f.Wave, f.Basis)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return tmpl, nil
}

// Get returns the template for a spectral type, case-insensitive.
func (r *Repo) Get(_ context.Context, rrtype string) (*domtmpl.Template, error) {
	tmpl, ok := r.byType[strings.ToUpper(rrtype)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, rrtype)
	}
	return tmpl, nil
}

// All returns every loaded template, sorted by spectral type.
func (r *Repo) All() []*domtmpl.Template {
	types := make([]string, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, t)
	}
	sort.Strings(types)
	out := make([]*domtmpl.Template, len(types))
	for i, t := range types {
		out[i] = r.byType[t]
	}
	return out
}

// HealthCheck reports an error when the library is empty.
func (r *Repo) HealthCheck(_ context.Context) error {
	if len(r.byType) == 0 {
		return fmt.Errorf("template library is empty")
	}
	return nil
}
