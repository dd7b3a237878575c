package archetype

import (
	domarch "github.com/abhi0395/redrock/internal/domain/archetype"
	"github.com/abhi0395/redrock/internal/domain/spectrum"
)

// NeighborPolicy restricts an archetype scan to the n subtypes nearest the
// data under some similarity ordering. Implementations must be
// deterministic given identical inputs; the returned indices are scored in
// the returned order. wflux is the ivar-weighted flux concatenated in
// spectrum order.
type NeighborPolicy interface {
	Neighbors(
		set *domarch.Set,
		spectra []*spectrum.Spectrum,
		dwave map[uint64][]float64,
		wflux []float64,
		z float64,
		n int,
	) ([]int, error)
}
