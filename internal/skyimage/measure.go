package skyimage

import (
	"math"
)

// zeroOffsetSubstitute replaces an RA offset of (numerically) zero when
// computing position angles, keeping Y/X finite.
const zeroOffsetSubstitute = 1e-5

// OffsetMaps contains per-pixel offsets from a reference position, with the
// derived radius and position angle. All planes share the grid's shape.
type OffsetMaps struct {
	X     *Plane // RA - ra0, degrees
	Y     *Plane // Dec - dec0, degrees
	R     *Plane // sqrt(X² + Y²), degrees
	Theta *Plane // atan(Y/X), radians
}

// RadiusMap returns the flat-sky distance of every pixel from (ra0, dec0).
func RadiusMap(g *CoordinateGrid, ra0, dec0 float64) *Plane {
	r := NewPlane(g.Rows(), g.Cols())
	for row := 0; row < g.Rows(); row++ {
		dy := g.Dec[row] - dec0
		for col := 0; col < g.Cols(); col++ {
			dx := g.RA[col] - ra0
			r.Set(row, col, math.Sqrt(dx*dx+dy*dy))
		}
	}
	return r
}

// MeasureOffsets computes X, Y, R and the position angle T = atan(Y/X)
// relative to (ra0, dec0). Where |X| is within 1e-8 of zero the angle uses
// 1e-5 in its place; X itself is left untouched.
func MeasureOffsets(g *CoordinateGrid, ra0, dec0 float64) *OffsetMaps {
	rows, cols := g.Rows(), g.Cols()
	m := &OffsetMaps{
		X:     NewPlane(rows, cols),
		Y:     NewPlane(rows, cols),
		R:     NewPlane(rows, cols),
		Theta: NewPlane(rows, cols),
	}
	for row := 0; row < rows; row++ {
		dy := g.Dec[row] - dec0
		for col := 0; col < cols; col++ {
			dx := g.RA[col] - ra0
			m.X.Set(row, col, dx)
			m.Y.Set(row, col, dy)
			m.R.Set(row, col, math.Sqrt(dx*dx+dy*dy))

			xt := dx
			if math.Abs(xt) <= 1e-8 {
				xt = zeroOffsetSubstitute
			}
			m.Theta.Set(row, col, math.Atan(dy/xt))
		}
	}
	return m
}

// EllipticalRadius scales a radius r at position angle t into the beam frame:
// r * sqrt(cos²(t+theta) + ecc²·sin²(t+theta)), with theta the beam rotation
// in radians and ecc = BMAJ/BMIN.
func EllipticalRadius(r, t, theta, ecc float64) float64 {
	c := math.Cos(t + theta)
	s := math.Sin(t + theta)
	return r * math.Sqrt(c*c+ecc*ecc*s*s)
}

// Rotate applies the row-vector rotation [x y]·[[cos, -sin], [sin, cos]]
// by angle theta (radians).
func Rotate(x, y, theta float64) (u, v float64) {
	c, s := math.Cos(theta), math.Sin(theta)
	return x*c + y*s, -x*s + y*c
}
