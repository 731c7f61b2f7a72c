package render

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ironsheep/source-extract/internal/skyimage"
)

// planeGrid adapts a plane to plotter.GridXYZ. X and Y are pixel indices in
// the full image, offset by the cutout origin.
type planeGrid struct {
	p      *skyimage.Plane
	x0, y0 int
}

func (g planeGrid) Dims() (c, r int) { return g.p.Cols, g.p.Rows }
func (g planeGrid) Z(c, r int) float64 { return g.p.At(r, c) }
func (g planeGrid) X(c int) float64 { return float64(g.x0 + c) }
func (g planeGrid) Y(r int) float64 { return float64(g.y0 + r) }

// stamp holds the cutout planes a figure is drawn from.
type stamp struct {
	data, mask, model, resid *skyimage.Plane
	region                   skyimage.Region
}

func (s *stamp) grid(p *skyimage.Plane) planeGrid {
	return planeGrid{p: p, x0: s.region.X1, y0: s.region.Y1}
}

// fluxPanel shows the data with the fit mask outline and model contours at
// 50% and 90% of the model peak.
func fluxPanel(s *stamp) *plot.Plot {
	p := plot.New()
	p.Title.Text = "Source Flux and Gaussian Fit"
	p.X.Label.Text = "Right Ascension (pixel)"
	p.Y.Label.Text = "Declination (pixel)"

	hm := heatMap(s.grid(s.data))
	p.Add(hm)

	addContour(p, s.grid(s.mask), []float64{0.5}, maskColor)
	if _, peak := s.model.Extrema(); peak > 0 {
		addContour(p, s.grid(s.model), []float64{0.5 * peak, 0.9 * peak}, modelColor)
	}
	return p
}

// residualPanel shows data - model on a symmetric colour scale set by the
// largest residual inside the mask.
func residualPanel(s *stamp, unit string) *plot.Plot {
	p := plot.New()
	p.Title.Text = "Residual"
	if unit != "" {
		p.Title.Text = fmt.Sprintf("Residual [%s]", unit)
	}
	p.X.Label.Text = "Right Ascension (pixel)"

	vlim := 0.0
	for i, v := range s.resid.Data {
		if s.mask.Data[i] == 1 && !math.IsNaN(v) {
			vlim = math.Max(vlim, math.Abs(v))
		}
	}
	if vlim == 0 {
		vlim = 1
	}

	hm := heatMap(s.grid(s.resid))
	hm.Min, hm.Max = -vlim, vlim
	p.Add(hm)

	addContour(p, s.grid(s.mask), []float64{0.5}, maskColor)
	return p
}

// surfacePanel draws an oblique projection of the data as magma-coloured
// row profiles with the model as a steelblue wireframe on top.
func surfacePanel(s *stamp, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()

	rows, cols := s.data.Rows, s.data.Cols
	lo, hi := s.data.Extrema()
	span := hi - lo
	if !(span > 0) {
		span = 1
	}
	depth := 0.8 * span / float64(rows)
	project := func(row, col int, z float64) plotter.XY {
		return plotter.XY{X: float64(col) + 0.5*float64(row), Y: z + depth*float64(row)}
	}

	colors := Magma(rows).Colors()
	for row := rows - 1; row >= 0; row -= step(rows, 40) {
		if err := addProfile(p, s.data, row, -1, project, colors[row], 0.75); err != nil {
			return nil, err
		}
	}
	for row := 0; row < rows; row += step(rows, 20) {
		if err := addProfile(p, s.model, row, -1, project, wireColor, 1); err != nil {
			return nil, err
		}
	}
	for col := 0; col < cols; col += step(cols, 20) {
		if err := addProfile(p, s.model, -1, col, project, wireColor, 1); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// addProfile plots one row (col < 0) or one column (row < 0) of p.
func addProfile(plt *plot.Plot, p *skyimage.Plane, row, col int, project func(int, int, float64) plotter.XY, lineColor color.Color, width float64) error {
	var pts plotter.XYs
	if col < 0 {
		for c := 0; c < p.Cols; c++ {
			if z := p.At(row, c); !math.IsNaN(z) {
				pts = append(pts, project(row, c, z))
			}
		}
	} else {
		for r := 0; r < p.Rows; r++ {
			if z := p.At(r, col); !math.IsNaN(z) {
				pts = append(pts, project(r, col, z))
			}
		}
	}
	if len(pts) < 2 {
		return nil
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to build profile: %w", err)
	}
	l.Color = lineColor
	l.Width = vg.Points(width)
	plt.Add(l)
	return nil
}

func heatMap(g planeGrid) *plotter.HeatMap {
	pal := Magma(256)
	hm := plotter.NewHeatMap(g, pal)
	lo, hi := g.p.Extrema()
	if math.IsNaN(lo) {
		lo, hi = 0, 1
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	hm.Min, hm.Max = lo, hi
	colors := pal.Colors()
	hm.Underflow = colors[0]
	hm.Overflow = colors[len(colors)-1]
	return hm
}

func addContour(p *plot.Plot, g planeGrid, levels []float64, c color.Color) {
	if g.p.Rows < 2 || g.p.Cols < 2 {
		return
	}
	ct := plotter.NewContour(g, levels, solid{c})
	ct.LineStyles[0].Width = vg.Points(1.5)
	p.Add(ct)
}

// step returns the stride that draws at most n lines across length.
func step(length, n int) int {
	if length <= n {
		return 1
	}
	return (length + n - 1) / n
}
