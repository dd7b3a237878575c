package domain

// Physical and algorithmic constants shared across the fitter.
const (
	// SpeedOfLight in km/s.
	SpeedOfLight = 299792.458

	// MaxVeloDiff is the minimum velocity separation in km/s between
	// two redshifts counted as distinct minima.
	MaxVeloDiff = 1000.0

	// MinDeltaChi2 is the chi-squared margin below which two
	// velocity-distinct fits are considered ambiguous.
	MinDeltaChi2 = 25.0

	// MinResolutionIntegral is the minimum row integral of the resolution
	// matrix; pixels below it get their inverse variance zeroed at
	// spectrum construction.
	MinResolutionIntegral = 0.8

	// HugeChi2 is the sentinel chi-squared for degenerate solves.
	HugeChi2 = 9e99
)

// GetDV returns the velocity difference in km/s between a redshift and a
// reference redshift.
func GetDV(z, zref float64) float64 {
	return SpeedOfLight * (z - zref) / (1.0 + zref)
}
