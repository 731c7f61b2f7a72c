package skyimage

import (
	"fmt"
	"math"
	"strings"

	"github.com/ironsheep/source-extract/internal/srcerr"
)

// Axis describes one image axis of the linear world coordinate system.
type Axis struct {
	// Type is the CTYPEn value, e.g. "RA---SIN", "FREQ", "STOKES".
	Type string `json:"type"`

	// Length is NAXISn, the number of pixels along the axis.
	Length int `json:"length"`

	// RefValue is CRVALn, the world coordinate at the reference pixel.
	RefValue float64 `json:"crval"`

	// Increment is CDELTn, the world coordinate step per pixel.
	Increment float64 `json:"cdelt"`

	// RefPixel is CRPIXn (1-based). Only meaningful when HasRefPixel is set.
	RefPixel    float64 `json:"crpix,omitempty"`
	HasRefPixel bool    `json:"-"`
}

// Is reports whether the axis type starts with the given prefix,
// ignoring case ("FREQ" matches "FREQ" and "FREQ-LSR").
func (a Axis) Is(prefix string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(a.Type)), prefix)
}

// Beam is the synthesized beam ellipse. All values are in degrees.
type Beam struct {
	Major float64 `json:"bmaj_deg"`
	Minor float64 `json:"bmin_deg"`
	PA    float64 `json:"bpa_deg"`
}

// BeamRow is one row of a per-channel beam table.
type BeamRow struct {
	Beam
	Chan int `json:"chan"`
	Pol  int `json:"pol"`
}

// Header is the typed view of a FITS primary header used by the extractor.
//
// Required keys are validated when the header is built; anything else found
// in the file is kept in Extra keyed by card name.
type Header struct {
	Axes []Axis `json:"axes"`

	// Beam is set when BMAJ/BMIN/BPA are present in the primary header.
	Beam *Beam `json:"beam,omitempty"`

	// BeamTable holds the auxiliary per-channel beams, if the file has one.
	BeamTable []BeamRow `json:"beam_table,omitempty"`

	BUnit  string `json:"bunit,omitempty"`
	Object string `json:"object,omitempty"`

	Extra map[string]interface{} `json:"-"`

	// beamTableErr records why an auxiliary beam table could not be read.
	beamTableErr error
}

// Validate checks the keys every extraction depends on.
func (h *Header) Validate() error {
	if len(h.Axes) < 2 {
		return srcerr.Dataf("image has %d axes, need at least 2", len(h.Axes))
	}
	for i := 0; i < 2; i++ {
		a := h.Axes[i]
		if a.Length <= 0 {
			return srcerr.Dataf("NAXIS%d must be positive, got %d", i+1, a.Length)
		}
		if a.Increment == 0 || math.IsNaN(a.Increment) {
			return srcerr.Dataf("CDELT%d must be non-zero", i+1)
		}
	}
	return nil
}

// SpectralAxes locates the frequency and polarization axes among the
// trailing axes (3 and beyond). Indices are 0-based. A missing polarization
// axis yields stokes = -1; a missing frequency axis is a DataError.
func (h *Header) SpectralAxes() (freq, stokes int, err error) {
	freq, stokes = -1, -1
	for i := 2; i < len(h.Axes); i++ {
		switch {
		case h.Axes[i].Is("FREQ"):
			if freq >= 0 {
				return -1, -1, srcerr.Dataf("more than one frequency axis")
			}
			freq = i
		case h.Axes[i].Is("STOKES"):
			if stokes >= 0 {
				return -1, -1, srcerr.Dataf("more than one polarization axis")
			}
			stokes = i
		}
	}
	if freq < 0 {
		return -1, -1, srcerr.Dataf("no FREQ axis among %d axes", len(h.Axes))
	}
	return freq, stokes, nil
}

// Polarizations lists the Stokes codes along the polarization axis, built
// from CRVAL/CDELT/NAXIS. An image without a polarization axis holds Stokes I
// only.
func (h *Header) Polarizations() ([]int, error) {
	_, stokes, err := h.SpectralAxes()
	if err != nil {
		return nil, err
	}
	if stokes < 0 {
		return []int{1}, nil
	}
	a := h.Axes[stokes]
	pols := make([]int, a.Length)
	for i := range pols {
		pols[i] = int(float64(i)*a.Increment + a.RefValue)
	}
	return pols, nil
}

// PolarizationIndex returns the plane index holding Stokes code pol.
func (h *Header) PolarizationIndex(pol int) (int, error) {
	pols, err := h.Polarizations()
	if err != nil {
		return -1, err
	}
	for i, p := range pols {
		if p == pol {
			return i, nil
		}
	}
	return -1, srcerr.Dataf("requested polarization %d not found in %v", pol, pols)
}

// Frequency returns the reference value of the frequency axis in Hz.
func (h *Header) Frequency() (float64, error) {
	freq, _, err := h.SpectralAxes()
	if err != nil {
		return 0, err
	}
	return h.Axes[freq].RefValue, nil
}

// BeamAt returns the beam for the given polarization plane: the primary
// header beam when present, otherwise the beam table entry for channel 0 at
// that plane.
func (h *Header) BeamAt(polIndex int) (Beam, error) {
	if h.Beam != nil {
		return *h.Beam, nil
	}
	if len(h.BeamTable) == 0 {
		if h.beamTableErr != nil {
			return Beam{}, srcerr.WrapData(h.beamTableErr, "no BMAJ/BMIN in primary header and beam table unreadable")
		}
		return Beam{}, srcerr.Dataf("no BMAJ/BMIN in primary header or beam table")
	}
	for _, row := range h.BeamTable {
		if row.Chan == 0 && row.Pol == polIndex {
			return row.Beam, nil
		}
	}
	if polIndex >= 0 && polIndex < len(h.BeamTable) {
		return h.BeamTable[polIndex].Beam, nil
	}
	return Beam{}, srcerr.Dataf("beam table has no entry for polarization index %d", polIndex)
}

// PixelArea returns |CDELT1*CDELT2| in square degrees.
func (h *Header) PixelArea() float64 {
	return math.Abs(h.Axes[0].Increment * h.Axes[1].Increment)
}

// String summarises the header for log output.
func (h *Header) String() string {
	dims := make([]string, len(h.Axes))
	for i, a := range h.Axes {
		dims[i] = fmt.Sprintf("%s[%d]", strings.TrimSpace(a.Type), a.Length)
	}
	return strings.Join(dims, " x ")
}
