package zscan

import "math"

// lymanSeries parametrizes the effective optical depth of each Lyman line:
// tau = a·(1+zpix)^b for pixels whose rest-frame wavelength falls below the
// line.
var lymanSeries = []struct {
	line float64
	a    float64
	b    float64
}{
	{1215.67, 0.0023, 3.64},
	{1025.72, 0.0023 / 5.2615, 3.64},
	{972.537, 0.0023 / 14.356, 3.64},
	{949.7431, 0.0023 / 29.85984, 3.64},
	{937.8035, 0.0023 / 53.81076, 3.64},
}

// TransmissionLyman returns the Lyman-series transmission for each trial
// redshift over an observed wavelength grid, as an [nz][nwave] array.
// It returns nil when the redshifted grid never reaches the suppression
// band; callers must skip the multiplication in that case rather than
// treat the grid as fully absorbed.
func TransmissionLyman(zz []float64, wave []float64) [][]float64 {
	if len(zz) == 0 || len(wave) == 0 {
		return nil
	}
	zmax := zz[0]
	for _, z := range zz[1:] {
		if z > zmax {
			zmax = z
		}
	}
	// No pixel redshifts blueward of Ly-alpha for any trial z.
	if wave[0]/(1+zmax) > lymanSeries[0].line {
		return nil
	}

	t := make([][]float64, len(zz))
	for iz, z := range zz {
		row := make([]float64, len(wave))
		for i, w := range wave {
			tr := 1.0
			restW := w / (1 + z)
			for _, l := range lymanSeries {
				if restW < l.line {
					zpix := w/l.line - 1
					tr *= math.Exp(-l.a * math.Pow(1+zpix, l.b))
				}
			}
			row[i] = tr
		}
		t[iz] = row
	}
	return t
}
