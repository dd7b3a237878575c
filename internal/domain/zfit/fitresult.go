package zfit

// TemplateResult holds the refined minima for one (target, template) pair.
type TemplateResult struct {
	Template string    `json:"template"`
	SpecType string    `json:"spectype"`
	Version  string    `json:"version,omitempty"`
	Results  ResultSet `json:"results"`
}

// BestFit summarizes the globally best minimum across all templates fit for
// a target.
type BestFit struct {
	Z         float64   `json:"z"`
	ZErr      float64   `json:"zerr"`
	ZWarn     uint64    `json:"zwarn"`
	Chi2      float64   `json:"chi2"`
	DeltaChi2 float64   `json:"deltachi2"`
	SpecType  string    `json:"spectype"`
	FullType  string    `json:"fulltype,omitempty"`
	Coeff     []float64 `json:"coeff"`
	NPixels   int       `json:"npixels"`
}

// FitResult is the full outcome of fitting one target.
type FitResult struct {
	TargetID  string           `json:"targetid"`
	Best      BestFit          `json:"best"`
	Templates []TemplateResult `json:"templates"`
}
