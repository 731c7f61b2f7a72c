package extract

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/ironsheep/source-extract/internal/skyimage"
	"github.com/ironsheep/source-extract/internal/srcerr"
)

// FitResult is the measurement for one image. The first six fields are the
// table columns; the rest describe how they were obtained.
type FitResult struct {
	Peak            float64 `json:"peak"`
	PeakErr         float64 `json:"peak_err"`
	RMS             float64 `json:"rms"`
	GaussPeak       float64 `json:"gauss_peak"`
	GaussIntegrated float64 `json:"gauss_integrated"`
	Frequency       float64 `json:"frequency_hz"`

	Path          string        `json:"path,omitempty"`
	Beam          skyimage.Beam `json:"beam"`
	PixelsPerBeam float64       `json:"pixels_per_beam"`
	PeakRA        float64       `json:"peak_ra_deg"`
	PeakDec       float64       `json:"peak_dec_deg"`
	MaskPixels    int           `json:"mask_pixels"`

	// Fit is nil when the fit failed; FitError then says why.
	Fit      *GaussianFit `json:"fit,omitempty"`
	FitError string       `json:"fit_error,omitempty"`

	PlotPath  string `json:"plot_path,omitempty"`
	ModelPath string `json:"model_path,omitempty"`
}

// MarshalJSON writes a NaN rms or peak error as null.
func (r FitResult) MarshalJSON() ([]byte, error) {
	type plain FitResult
	return json.Marshal(struct {
		plain
		PeakErr *float64 `json:"peak_err"`
		RMS     *float64 `json:"rms"`
	}{plain(r), finiteOrNil(r.PeakErr), finiteOrNil(r.RMS)})
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Plotter renders the diagnostic figure for one extraction.
type Plotter interface {
	Plot(path string, d *Diagnostics) error
}

// Diagnostics carries the full-frame planes behind a FitResult for
// rendering. Mask holds 1 inside the fit mask and 0 elsewhere.
type Diagnostics struct {
	Source    string
	ImagePath string
	Frequency float64
	BUnit     string

	Grid   *skyimage.CoordinateGrid
	Data   *skyimage.Plane
	Masked *skyimage.Plane
	Mask   *skyimage.Plane
	Model  *skyimage.Plane

	// Cutout is the postage stamp around the nominal source position.
	Cutout skyimage.Region

	// Caption is a one-line summary of the measurement.
	Caption string
}

// Residual returns Data - Model.
func (d *Diagnostics) Residual() *skyimage.Plane {
	r := d.Data.Clone()
	for i := range r.Data {
		r.Data[i] -= d.Model.Data[i]
	}
	return r
}

// Extract measures the source at opts.Position in img.
//
// The polarization plane at the first frequency channel is used. Peak and
// RMS come straight from the pixels; a 2D Gaussian is then fitted inside a
// beam-shaped mask around the brightest pixel. A failed fit does not fail
// the extraction: GaussPeak and GaussIntegrated are zero and the model is
// all zeros.
//
// Errors are ConfigurationErrors for unusable options and DataErrors for
// defects in the image.
func Extract(img *skyimage.Image, opts Options) (*FitResult, error) {
	res, _, err := Measure(img, opts)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Measure is Extract that also returns the planes behind the result.
func Measure(img *skyimage.Image, opts Options) (*FitResult, *Diagnostics, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}
	log := opts.log()
	h := img.Header

	// polarization plane
	polIndex, err := h.PolarizationIndex(opts.Polarization)
	if err != nil {
		return nil, nil, err
	}
	data, err := img.Plane(0, polIndex)
	if err != nil {
		return nil, nil, err
	}
	freq, err := h.Frequency()
	if err != nil {
		return nil, nil, err
	}

	// beam geometry
	beam, err := h.BeamAt(polIndex)
	if err != nil {
		return nil, nil, err
	}
	if err := checkBeam(beam); err != nil {
		return nil, nil, err
	}
	ppb := BeamArea(beam.Major, beam.Minor) / h.PixelArea()

	// source disk
	grid, err := skyimage.NewCoordinateGrid(h)
	if err != nil {
		return nil, nil, err
	}
	pos := opts.Position
	r := skyimage.RadiusMap(grid, pos.RA, pos.Dec)

	n := len(data.Data)
	disk := make([]bool, n)
	noise := make([]bool, n)
	for i, ri := range r.Data {
		disk[i] = ri < opts.Radius
		if opts.RMSInnerRadius != nil {
			noise[i] = ri > *opts.RMSInnerRadius && ri < *opts.RMSOuterRadius
		} else {
			noise[i] = ri >= opts.Radius
		}
	}

	peak, peakRow, peakCol, ok := peakIn(data, disk)
	if !ok {
		return nil, nil, srcerr.Dataf("no finite pixels within %g deg of RA=%.6f Dec=%.6f", opts.Radius, pos.RA, pos.Dec)
	}
	// the peak and fit stand without a noise estimate
	rms, ok := rootMeanSquare(data, noise)
	if !ok {
		log.Warnf("%s: no finite pixels in the rms region; rms and peak error are NaN", img.Path)
	}

	res := &FitResult{
		Peak:          peak,
		PeakErr:       PeakError(rms, ppb),
		RMS:           rms,
		Frequency:     freq,
		Path:          img.Path,
		Beam:          beam,
		PixelsPerBeam: ppb,
	}
	res.PeakRA, res.PeakDec = grid.At(peakRow, peakCol)

	// recentre on the peak and build the beam-shaped mask
	off := skyimage.MeasureOffsets(grid, res.PeakRA, res.PeakDec)
	theta := beam.PA*math.Pi/180 + math.Pi/2
	ecc := beam.Major / beam.Minor
	limit := beam.Major / 2 * opts.GaussfitMult

	rotation := beam.PA * math.Pi / 180
	u := skyimage.NewPlane(data.Rows, data.Cols)
	v := skyimage.NewPlane(data.Rows, data.Cols)
	mask := skyimage.NewPlane(data.Rows, data.Cols)
	masked := data.Clone()

	var fu, fv, fz []float64
	for i := range data.Data {
		u.Data[i], v.Data[i] = skyimage.Rotate(off.X.Data[i], off.Y.Data[i], rotation)

		emaj := skyimage.EllipticalRadius(off.R.Data[i], off.Theta.Data[i], theta, ecc)
		if !(emaj < limit) {
			masked.Data[i] = 0
			continue
		}
		mask.Data[i] = 1
		res.MaskPixels++
		z := data.Data[i]
		if math.IsNaN(z) || math.IsInf(z, 0) {
			continue
		}
		fu = append(fu, u.Data[i])
		fv = append(fv, v.Data[i])
		fz = append(fz, z)
	}

	// fit, then map any failure to the zero-flux fallback
	init := GaussianFit{Amplitude: peak, SigmaX: beam.Major / 2, SigmaY: beam.Minor / 2}
	model := skyimage.NewPlane(data.Rows, data.Cols)
	fit, failure := FitGaussian(fu, fv, fz, init, beam.Major)
	if failure == nil {
		res.GaussPeak = fit.Amplitude
		surface, ff := ModelSurface(fit, u, v)
		if ff == nil {
			model = surface
			res.GaussIntegrated = nanSum(model) / ppb
			res.Fit = &fit
		} else {
			failure = ff
		}
	}
	if failure != nil {
		log.Warnf("%s: %v; integrated flux set to 0", img.Path, failure)
		res.FitError = failure.Error()
		if res.Fit == nil && res.GaussPeak != 0 {
			// the amplitude is kept when only the model evaluation failed
			res.Fit = &fit
		}
	}

	d := &Diagnostics{
		Source:    opts.SourceName,
		ImagePath: img.Path,
		Frequency: freq,
		BUnit:     h.BUnit,
		Grid:      grid,
		Data:      data,
		Masked:    masked,
		Mask:      mask,
		Model:     model,
		Cutout:    skyimage.Region{X2: data.Cols, Y2: data.Rows},
	}
	d.Caption = fmt.Sprintf("peak %.4g +/- %.2g  gauss peak %.4g  integrated %.4g %s",
		res.Peak, res.PeakErr, res.GaussPeak, res.GaussIntegrated, h.BUnit)
	if res.FitError != "" {
		d.Caption += "  (fit failed)"
	}
	if cut, err := skyimage.CutoutRegion(grid, pos.RA, pos.Dec, opts.Radius); err == nil {
		d.Cutout = cut
	}

	if opts.RenderPlot {
		res.PlotPath = render(opts, d)
	}
	if opts.WriteModel && img.Path != "" {
		path := ModelPath(img.Path, opts.SourceName, opts.PlotLabel)
		out := skyimage.PlaneImage(model, h, freq, opts.Polarization)
		if err := skyimage.WriteFile(path, out, true); err != nil {
			log.Warnf("%s: model not written: %v", img.Path, err)
		} else {
			res.ModelPath = path
		}
	}
	return res, d, nil
}

// render draws the diagnostic figure. Failures, including panics inside the
// plotting code, are logged and otherwise ignored.
func render(opts Options, d *Diagnostics) (path string) {
	log := opts.log()
	if opts.Plotter == nil {
		log.Warnf("%s: plot requested but no plotter configured", d.ImagePath)
		return ""
	}
	path = PlotPath(d.ImagePath, opts.SourceName, opts.PlotLabel)

	defer func() {
		if r := recover(); r != nil {
			log.Warnf("%s: plot failed: %v", d.ImagePath, r)
			path = ""
		}
	}()
	if err := opts.Plotter.Plot(path, d); err != nil {
		log.Warnf("%s: plot failed: %v", d.ImagePath, errors.Wrap(err, path))
		return ""
	}
	return path
}
