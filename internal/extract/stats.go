package extract

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/source-extract/internal/skyimage"
	"github.com/ironsheep/source-extract/internal/srcerr"
)

// degenerateBeamTol is the relative BMAJ/BMIN difference below which the
// beam counts as circular and the fit mask is undefined.
const degenerateBeamTol = 1e-6

// BeamArea returns the Gaussian beam solid angle π·BMAJ·BMIN/(4 ln 2) in the
// square of the input units.
func BeamArea(bmaj, bmin float64) float64 {
	return math.Pi * bmaj * bmin / (4 * math.Ln2)
}

// PeakError returns rms / sqrt(pixelsPerBeam/2).
func PeakError(rms, pixelsPerBeam float64) float64 {
	return rms / math.Sqrt(pixelsPerBeam/2)
}

// checkBeam rejects beams that cannot define an elliptical fit mask.
func checkBeam(b skyimage.Beam) error {
	if !(b.Major > 0) || !(b.Minor > 0) {
		return srcerr.Dataf("beam axes must be positive, got BMAJ=%g BMIN=%g", b.Major, b.Minor)
	}
	if math.Abs(b.Major-b.Minor) <= degenerateBeamTol*math.Max(b.Major, b.Minor) {
		return srcerr.Dataf("degenerate beam: BMAJ=%g equals BMIN=%g", b.Major, b.Minor)
	}
	return nil
}

// peakIn returns the largest finite value among pixels where sel is true,
// with its position. Ties go to the first pixel in row-major order.
func peakIn(data *skyimage.Plane, sel []bool) (peak float64, row, col int, ok bool) {
	var vals []float64
	var idx []int
	for i, v := range data.Data {
		if sel[i] && !math.IsNaN(v) && !math.IsInf(v, 0) {
			vals = append(vals, v)
			idx = append(idx, i)
		}
	}
	if len(vals) == 0 {
		return math.NaN(), -1, -1, false
	}
	k := floats.MaxIdx(vals)
	return vals[k], idx[k] / data.Cols, idx[k] % data.Cols, true
}

// rootMeanSquare returns sqrt(mean(v²)) over finite pixels where sel is
// true. The values are not background subtracted.
func rootMeanSquare(data *skyimage.Plane, sel []bool) (float64, bool) {
	var sq []float64
	for i, v := range data.Data {
		if sel[i] && !math.IsNaN(v) && !math.IsInf(v, 0) {
			sq = append(sq, v*v)
		}
	}
	if len(sq) == 0 {
		return math.NaN(), false
	}
	return math.Sqrt(stat.Mean(sq, nil)), true
}

// nanSum adds the finite values of p.
func nanSum(p *skyimage.Plane) float64 {
	sum := 0.0
	for _, v := range p.Data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			sum += v
		}
	}
	return sum
}
