package skyimage

import (
	"os"

	"github.com/pkg/errors"
)

// HeaderInfo summarises a loaded image without its pixel data.
type HeaderInfo struct {
	// Path is the file the image was loaded from.
	Path string `json:"path"`

	// Axes lists every image axis in FITS order.
	Axes []Axis `json:"axes"`

	// Polarizations lists the Stokes codes of the polarization planes.
	Polarizations []int `json:"polarizations"`

	// FrequencyHz is the reference value of the frequency axis.
	FrequencyHz float64 `json:"frequency_hz"`

	// Beam is the primary-header beam, or the first beam table entry.
	// Nil when neither is available.
	Beam *Beam `json:"beam,omitempty"`

	// BeamTableRows is the number of per-channel beams found.
	BeamTableRows int `json:"beam_table_rows"`

	// PixelAreaDeg2 is |CDELT1*CDELT2|.
	PixelAreaDeg2 float64 `json:"pixel_area_deg2"`

	BUnit  string `json:"bunit,omitempty"`
	Object string `json:"object,omitempty"`

	// FileSizeBytes is the size of the file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadHeaderInfo loads an image through the cache and describes its header.
//
// Parameters:
//   - cache: The image cache to use for loading. Must not be nil.
//   - path: Path to the FITS file.
//
// Returns a DataError when the image cannot be loaded or has no frequency
// axis.
func LoadHeaderInfo(cache *ImageCache, path string) (*HeaderInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat file")
	}

	h := img.Header
	pols, err := h.Polarizations()
	if err != nil {
		return nil, err
	}
	freq, err := h.Frequency()
	if err != nil {
		return nil, err
	}

	info := &HeaderInfo{
		Path:          path,
		Axes:          h.Axes,
		Polarizations: pols,
		FrequencyHz:   freq,
		BeamTableRows: len(h.BeamTable),
		PixelAreaDeg2: h.PixelArea(),
		BUnit:         h.BUnit,
		Object:        h.Object,
		FileSizeBytes: stat.Size(),
	}
	if b, err := h.BeamAt(0); err == nil {
		info.Beam = &b
	}
	return info, nil
}
