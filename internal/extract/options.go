package extract

import (
	"path/filepath"
	"strings"

	"github.com/ironsheep/source-extract/internal/logger"
	"github.com/ironsheep/source-extract/internal/position"
	"github.com/ironsheep/source-extract/internal/srcerr"
)

// Default option values.
const (
	DefaultRadius       = 1.0
	DefaultGaussfitMult = 1.0
	DefaultPolarization = 1
)

// Options controls a single extraction.
type Options struct {
	// Position is the nominal source position. Required.
	Position *position.Sky

	// SourceName labels plot and model files.
	SourceName string

	// Radius (degrees) of the disk searched for the peak.
	Radius float64

	// GaussfitMult scales the beam ellipse used as the fit mask.
	GaussfitMult float64

	// RMSInnerRadius and RMSOuterRadius bound the noise annulus. Both or
	// neither must be set; with neither, RMS is taken outside the disk.
	RMSInnerRadius *float64
	RMSOuterRadius *float64

	// Polarization is the Stokes code of the plane to measure.
	Polarization int

	// RenderPlot writes a diagnostic figure through Plotter.
	RenderPlot bool
	PlotLabel  string
	Plotter    Plotter

	// WriteModel writes the fitted model plane as a FITS file next to the
	// input image.
	WriteModel bool

	// Log receives fit warnings and render failures. Nil discards them.
	Log logger.ILogger
}

// DefaultOptions returns Options with the documented defaults and no
// position.
func DefaultOptions() Options {
	return Options{
		Radius:       DefaultRadius,
		GaussfitMult: DefaultGaussfitMult,
		Polarization: DefaultPolarization,
	}
}

// Validate checks option combinations that make every image fail.
func (o Options) Validate() error {
	if o.Position == nil {
		return srcerr.Configf("a source position is required")
	}
	if !(o.Radius > 0) {
		return srcerr.Configf("radius must be positive, got %g", o.Radius)
	}
	if !(o.GaussfitMult > 0) {
		return srcerr.Configf("gaussfit multiplier must be positive, got %g", o.GaussfitMult)
	}
	if (o.RMSInnerRadius == nil) != (o.RMSOuterRadius == nil) {
		return srcerr.Configf("rms inner and outer radius must be given together")
	}
	if o.RMSInnerRadius != nil && *o.RMSInnerRadius >= *o.RMSOuterRadius {
		return srcerr.Configf("rms inner radius %g must be below outer radius %g", *o.RMSInnerRadius, *o.RMSOuterRadius)
	}
	return nil
}

func (o Options) log() logger.ILogger {
	if o.Log == nil {
		return &logger.NullLogger{}
	}
	return o.Log
}

// PlotPath returns "<image without extension>.<source><label>.png".
func PlotPath(imagePath, source, label string) string {
	return sidecarPath(imagePath, source, label, ".png")
}

// ModelPath returns "<image without extension>.<source><label>.model.fits".
func ModelPath(imagePath, source, label string) string {
	return sidecarPath(imagePath, source, label, ".model.fits")
}

func sidecarPath(imagePath, source, label, ext string) string {
	base := strings.TrimSuffix(imagePath, filepath.Ext(imagePath))
	return base + "." + source + label + ext
}
