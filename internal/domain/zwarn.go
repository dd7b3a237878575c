package domain

// ZWarn is a bit mask recording quality conditions of a redshift fit.
// Recoverable numeric conditions are encoded here rather than returned
// as errors.
type ZWarn uint64

const (
	// ZWarnSky marks a sky fiber.
	ZWarnSky ZWarn = 1 << iota
	// ZWarnLittleCoverage marks too little wavelength coverage.
	ZWarnLittleCoverage
	// ZWarnSmallDeltaChi2 marks a chi-squared of the best fit too close
	// to that of a velocity-distinct second-best fit.
	ZWarnSmallDeltaChi2
	// ZWarnNegativeModel marks a significantly negative best-fit model.
	ZWarnNegativeModel
	// ZWarnManyOutliers marks too many pixels rejected as outliers.
	ZWarnManyOutliers
	// ZWarnZFitLimit marks a chi-squared minimum at the edge of the
	// redshift fitting range.
	ZWarnZFitLimit
	// ZWarnNegativeEmission marks negative emission in a line fit.
	ZWarnNegativeEmission
	// ZWarnUnplugged marks an unplugged fiber.
	ZWarnUnplugged
	// ZWarnBadTarget marks a catastrophically bad targeting data row.
	ZWarnBadTarget
	// ZWarnNoData marks a spectrum with no valid data.
	ZWarnNoData
	// ZWarnBadMinfit marks a failed parabolic fit to the chi-squared minimum.
	ZWarnBadMinfit
	// ZWarnPoorData marks data poor enough that the fit is unreliable.
	ZWarnPoorData
)

// Has reports whether all bits of flag are set.
func (w ZWarn) Has(flag ZWarn) bool { return w&flag == flag }
