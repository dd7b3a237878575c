// Package archetype loads the archetype library from disk and serves
// lookups by spectral type.
package archetype

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/abhi0395/redrock/internal/domain"
	domarch "github.com/abhi0395/redrock/internal/domain/archetype"
)

// filePattern matches archetype library files inside the configured directory.
const filePattern = "rrarchetype-*.json"

type archetypeFile struct {
	RRType   string      `json:"rrtype"`
	Version  string      `json:"version"`
	Wave     []float64   `json:"wave"`
	Subtypes []string    `json:"subtypes"`
	Flux     [][]float64 `json:"flux"`
}

// Repo is an in-memory archetype library loaded once at startup. Read-only
// after construction, safe for concurrent use.
type Repo struct {
	byType map[string]*domarch.Set
}

// NewFromDir loads every archetype file in dir, in sorted order. An empty
// directory yields an empty repo; every Get then reports not-found.
func NewFromDir(dir string) (*Repo, error) {
	paths, err := filepath.Glob(filepath.Join(dir, filePattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", dir, err)
	}
	sort.Strings(paths)

	byType := make(map[string]*domarch.Set, len(paths))
	for _, path := range paths {
		set, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		if _, ok := byType[set.Type()]; ok {
			return nil, fmt.Errorf("load %s: duplicate spectral type %s", path, set.Type())
		}
		byType[set.Type()] = set
	}
	return &Repo{byType: byType}, nil
}

func loadFile(path string) (*domarch.Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f archetypeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	set, err := domarch.New(f.RRType, f.Version, f.Wave, f.Subtypes, f.Flux)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return set, nil
}

// Get returns the archetype set for a spectral type, case-insensitive.
func (r *Repo) Get(_ context.Context, rrtype string) (*domarch.Set, error) {
	set, ok := r.byType[strings.ToUpper(rrtype)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrArchetypeNotFound, rrtype)
	}
	return set, nil
}
