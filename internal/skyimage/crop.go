package skyimage

import (
	"fmt"
	"math"
)

// Region represents a rectangular region within a plane.
//
// Coordinates follow the image convention used throughout this package:
//   - (X1, Y1) is the first column and row (inclusive)
//   - (X2, Y2) is the last column and row (exclusive)
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Width returns X2 - X1.
func (r Region) Width() int { return r.X2 - r.X1 }

// Height returns Y2 - Y1.
func (r Region) Height() int { return r.Y2 - r.Y1 }

// Crop extracts a rectangular region from a plane.
func Crop(p *Plane, r Region) (*Plane, error) {
	if r.X1 < 0 || r.Y1 < 0 || r.X2 > p.Cols || r.Y2 > p.Rows {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside plane bounds (0,0)-(%d,%d)",
			r.X1, r.Y1, r.X2, r.Y2, p.Cols, p.Rows)
	}
	if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	out := NewPlane(r.Height(), r.Width())
	for row := 0; row < out.Rows; row++ {
		copy(out.Data[row*out.Cols:(row+1)*out.Cols], p.Data[(r.Y1+row)*p.Cols+r.X1:(r.Y1+row)*p.Cols+r.X2])
	}
	return out, nil
}

// CutoutRegion returns the postage-stamp region whose columns lie within
// radius of ra along the RA axis and whose rows lie within radius of dec
// along the Dec axis.
func CutoutRegion(g *CoordinateGrid, ra, dec, radius float64) (Region, error) {
	x1, x2, ok := span(g.RA, ra, radius)
	if !ok {
		return Region{}, fmt.Errorf("no RA pixels within %g deg of %g", radius, ra)
	}
	y1, y2, ok := span(g.Dec, dec, radius)
	if !ok {
		return Region{}, fmt.Errorf("no Dec pixels within %g deg of %g", radius, dec)
	}
	return Region{X1: x1, Y1: y1, X2: x2, Y2: y2}, nil
}

func span(axis []float64, centre, radius float64) (lo, hi int, ok bool) {
	lo, hi = -1, -1
	for i, v := range axis {
		if math.Abs(v-centre) < radius {
			if lo < 0 {
				lo = i
			}
			hi = i + 1
		}
	}
	return lo, hi, lo >= 0
}
