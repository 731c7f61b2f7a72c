package skyimage

import (
	"gonum.org/v1/gonum/floats"
)

// CoordinateGrid holds the sky coordinate of every pixel of a plane.
//
// RA runs along columns and Dec along rows, so the meshgrid value at
// (row, col) is (RA[col], Dec[row]).
type CoordinateGrid struct {
	RA  []float64 `json:"ra_axis"`
	Dec []float64 `json:"dec_axis"`
}

// NewCoordinateGrid builds the RA and Dec axes from the header's linear WCS.
//
// When CRPIXn is present each pixel i (0-based) maps to
// CRVAL + (i+1-CRPIX)*CDELT. Without it the reference value is taken to sit
// at the image centre and the axis spans CRVAL ± CDELT*NAXIS/2 inclusive.
func NewCoordinateGrid(h *Header) (*CoordinateGrid, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return &CoordinateGrid{
		RA:  axisValues(h.Axes[0]),
		Dec: axisValues(h.Axes[1]),
	}, nil
}

func axisValues(a Axis) []float64 {
	v := make([]float64, a.Length)
	if a.HasRefPixel {
		for i := range v {
			v[i] = a.RefValue + (float64(i+1)-a.RefPixel)*a.Increment
		}
		return v
	}
	half := a.Increment * float64(a.Length) / 2
	if a.Length == 1 {
		v[0] = a.RefValue
		return v
	}
	return floats.Span(v, a.RefValue-half, a.RefValue+half)
}

// Rows returns the number of grid rows (Dec samples).
func (g *CoordinateGrid) Rows() int { return len(g.Dec) }

// Cols returns the number of grid columns (RA samples).
func (g *CoordinateGrid) Cols() int { return len(g.RA) }

// At returns the (RA, Dec) of pixel (row, col).
func (g *CoordinateGrid) At(row, col int) (ra, dec float64) {
	return g.RA[col], g.Dec[row]
}
