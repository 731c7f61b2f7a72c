package skyimage

import (
	"math"

	"github.com/ironsheep/source-extract/internal/srcerr"
)

// Image is a loaded FITS image cube.
//
// Data is stored in FITS order: NAXIS1 varies fastest, so the pixel at
// (col, row, i3, i4) lives at col + n1*(row + n2*(i3 + n3*i4)).
type Image struct {
	Path   string
	Header *Header
	Data   []float64
}

// Plane is a single 2D image slice indexed as [row, col], where columns run
// along NAXIS1 (right ascension) and rows along NAXIS2 (declination).
type Plane struct {
	Rows int
	Cols int
	Data []float64
}

// NewPlane allocates a zeroed plane.
func NewPlane(rows, cols int) *Plane {
	return &Plane{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// At returns the value at (row, col).
func (p *Plane) At(row, col int) float64 {
	return p.Data[row*p.Cols+col]
}

// Set stores v at (row, col).
func (p *Plane) Set(row, col int, v float64) {
	p.Data[row*p.Cols+col] = v
}

// Clone returns a deep copy of the plane.
func (p *Plane) Clone() *Plane {
	return &Plane{Rows: p.Rows, Cols: p.Cols, Data: append([]float64(nil), p.Data...)}
}

// Extrema returns the minimum and maximum finite values. Both are NaN when
// the plane holds no finite value.
func (p *Plane) Extrema() (lo, hi float64) {
	lo, hi = math.NaN(), math.NaN()
	for _, v := range p.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if math.IsNaN(lo) || v < lo {
			lo = v
		}
		if math.IsNaN(hi) || v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Plane extracts the 2D slice at the given channel of the frequency axis and
// plane of the polarization axis. stokesIndex is ignored when the image has
// no polarization axis.
func (img *Image) Plane(freqIndex, stokesIndex int) (*Plane, error) {
	h := img.Header
	if err := h.Validate(); err != nil {
		return nil, err
	}
	freqAx, stokesAx, err := h.SpectralAxes()
	if err != nil {
		return nil, err
	}

	index := make([]int, len(h.Axes))
	index[freqAx] = freqIndex
	if stokesAx >= 0 {
		index[stokesAx] = stokesIndex
	}

	cols, rows := h.Axes[0].Length, h.Axes[1].Length
	offset := 0
	stride := cols * rows
	for i := 2; i < len(h.Axes); i++ {
		if index[i] < 0 || index[i] >= h.Axes[i].Length {
			return nil, srcerr.Dataf("index %d out of range for axis %d (length %d)", index[i], i+1, h.Axes[i].Length)
		}
		offset += index[i] * stride
		stride *= h.Axes[i].Length
	}
	if offset+cols*rows > len(img.Data) {
		return nil, srcerr.Dataf("image data holds %d values, header implies at least %d", len(img.Data), offset+cols*rows)
	}

	p := NewPlane(rows, cols)
	copy(p.Data, img.Data[offset:offset+cols*rows])
	return p, nil
}
