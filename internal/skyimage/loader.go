package skyimage

import (
	"fmt"
	"math"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/astrogo/fitsio"
	"github.com/pkg/errors"

	"github.com/ironsheep/source-extract/internal/srcerr"
)

// ImageCache provides thread-safe caching of loaded FITS images to avoid
// redundant disk reads.
//
// The cache stores decoded Image objects keyed by their file path. Once an
// image is loaded, subsequent Load() calls for the same path return the cached
// copy without disk I/O. The MCP server keeps one cache for its lifetime; the
// batch driver loads every file once and evicts it after extraction.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Example Usage
//
//	cache := skyimage.NewImageCache()
//	img, err := cache.Load("/data/3C286_spw0.image.fits")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// Use img...
//	cache.Evict("/data/3C286_spw0.image.fits")
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*Image),
	}
}

// Load retrieves an image from the cache or reads it from disk if not cached.
//
// Parameters:
//   - path: Absolute or relative path to a FITS file whose primary HDU holds
//     the image cube.
//
// Returns:
//   - *Image: The decoded cube with its typed header.
//   - error: A DataError if the file cannot be opened, is not a FITS image,
//     or lacks required header keys.
func (c *ImageCache) Load(path string) (*Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// ReadFile reads a FITS file: the primary HDU supplies the header and pixel
// cube, and a later binary table with BMAJ/BMIN/BPA columns (as written for
// per-channel restoring beams) supplies the beam table.
//
// Integer pixel types are scaled with BSCALE/BZERO when present. Every
// failure is reported as a DataError so the batch driver can skip the file.
func ReadFile(path string) (*Image, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, srcerr.WrapData(err, "failed to open image")
	}
	defer r.Close()

	f, err := fitsio.Open(r)
	if err != nil {
		return nil, srcerr.WrapData(err, "failed to decode FITS file %s", path)
	}
	defer f.Close()

	hdus := f.HDUs()
	if len(hdus) == 0 {
		return nil, srcerr.Dataf("%s has no HDUs", path)
	}

	primary, ok := hdus[0].(fitsio.Image)
	if !ok {
		return nil, srcerr.Dataf("%s: primary HDU is not an image", path)
	}

	hdr, err := parseHeader(primary.Header())
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}

	for _, hdu := range hdus[1:] {
		table, ok := hdu.(*fitsio.Table)
		if !ok || table.Index("BMAJ") < 0 {
			continue
		}
		hdr.BeamTable, hdr.beamTableErr = readBeamTable(table)
		break
	}

	data, err := readPixels(primary)
	if err != nil {
		return nil, srcerr.WrapData(err, "failed to read pixels from %s", path)
	}

	return &Image{Path: path, Header: hdr, Data: data}, nil
}

// parseHeader builds the typed Header from a FITS header, validating the
// keys extraction cannot do without.
func parseHeader(h *fitsio.Header) (*Header, error) {
	naxes := h.Axes()
	hdr := &Header{
		Axes:  make([]Axis, len(naxes)),
		Extra: make(map[string]interface{}),
	}

	for i, n := range naxes {
		k := i + 1
		a := Axis{Length: n}
		a.Type, _ = cardString(h, fmt.Sprintf("CTYPE%d", k))
		a.RefValue, _ = cardFloat(h, fmt.Sprintf("CRVAL%d", k))
		a.Increment, _ = cardFloat(h, fmt.Sprintf("CDELT%d", k))
		a.RefPixel, a.HasRefPixel = cardFloat(h, fmt.Sprintf("CRPIX%d", k))
		hdr.Axes[i] = a
	}

	bmaj, okMaj := cardFloat(h, "BMAJ")
	bmin, okMin := cardFloat(h, "BMIN")
	if okMaj && okMin {
		bpa, _ := cardFloat(h, "BPA")
		hdr.Beam = &Beam{Major: bmaj, Minor: bmin, PA: bpa}
	}
	hdr.BUnit, _ = cardString(h, "BUNIT")
	hdr.Object, _ = cardString(h, "OBJECT")

	for _, key := range h.Keys() {
		if card := h.Get(key); card != nil {
			hdr.Extra[key] = card.Value
		}
	}

	if err := hdr.Validate(); err != nil {
		return nil, err
	}
	return hdr, nil
}

// readBeamTable reads all rows of a beam table. BMAJ and BMIN are stored in
// arcseconds and converted to degrees; BPA stays in degrees.
func readBeamTable(table *fitsio.Table) ([]BeamRow, error) {
	rows, err := table.Read(0, table.NumRows())
	if err != nil {
		return nil, errors.Wrap(err, "reading beam table")
	}
	defer rows.Close()

	var beams []BeamRow
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.Scan(&row); err != nil {
			return nil, errors.Wrap(err, "scanning beam table row")
		}

		var b BeamRow
		var ok bool
		if b.Major, ok = toFloat(row["BMAJ"]); !ok {
			return nil, errors.New("beam table row without numeric BMAJ")
		}
		if b.Minor, ok = toFloat(row["BMIN"]); !ok {
			return nil, errors.New("beam table row without numeric BMIN")
		}
		b.PA, _ = toFloat(row["BPA"])
		b.Major /= 3600
		b.Minor /= 3600

		b.Chan, b.Pol = -1, len(beams)
		if v, ok := toFloat(row["CHAN"]); ok {
			b.Chan = int(v)
		}
		if v, ok := toFloat(row["POL"]); ok {
			b.Pol = int(v)
		}
		beams = append(beams, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating beam table")
	}
	return beams, nil
}

// readPixels reads the primary image as float64 in FITS order.
func readPixels(img fitsio.Image) ([]float64, error) {
	h := img.Header()
	bscale, ok := cardFloat(h, "BSCALE")
	if !ok {
		bscale = 1
	}
	bzero, _ := cardFloat(h, "BZERO")

	scale := func(v float64) float64 { return v*bscale + bzero }

	// Read fills the caller's slice up to its capacity
	n := 1
	for _, length := range h.Axes() {
		n *= length
	}

	switch h.Bitpix() {
	case 8:
		raw := make([]byte, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		out := make([]float64, len(raw))
		for i, v := range raw {
			out[i] = scale(float64(v))
		}
		return out, nil
	case 16:
		raw := make([]int16, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		out := make([]float64, len(raw))
		for i, v := range raw {
			out[i] = scale(float64(v))
		}
		return out, nil
	case 32:
		raw := make([]int32, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		out := make([]float64, len(raw))
		for i, v := range raw {
			out[i] = scale(float64(v))
		}
		return out, nil
	case 64:
		raw := make([]int64, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		out := make([]float64, len(raw))
		for i, v := range raw {
			out[i] = scale(float64(v))
		}
		return out, nil
	case -32:
		raw := make([]float32, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		out := make([]float64, len(raw))
		for i, v := range raw {
			out[i] = float64(v)
		}
		return out, nil
	case -64:
		raw := make([]float64, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported BITPIX %d", h.Bitpix())
	}
}

func cardFloat(h *fitsio.Header, key string) (float64, bool) {
	card := h.Get(key)
	if card == nil {
		return 0, false
	}
	return toFloat(card.Value)
}

func cardString(h *fitsio.Header, key string) (string, bool) {
	card := h.Get(key)
	if card == nil {
		return "", false
	}
	s, ok := card.Value.(string)
	return strings.TrimSpace(s), ok
}

// toFloat converts a header or table value to float64. Pointers, as filled
// in by table scans, are dereferenced.
func toFloat(v interface{}) (float64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Slice, reflect.Array:
		// single-element vector columns such as "1E"
		if rv.Len() == 1 {
			return toFloat(rv.Index(0).Interface())
		}
	}
	return math.NaN(), false
}
