package skyimage

import (
	"fmt"
	"os"

	"github.com/astrogo/fitsio"
	"github.com/pkg/errors"
)

// WriteFile writes img as a single-HDU float32 FITS file, followed by a beam
// table HDU when img.Header.BeamTable is non-empty. Existing files are only
// replaced when overwrite is set.
func WriteFile(path string, img *Image, overwrite bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	w, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer w.Close()

	f, err := fitsio.Create(w)
	if err != nil {
		return errors.Wrap(err, "starting FITS stream")
	}
	defer f.Close()

	dims := make([]int, len(img.Header.Axes))
	for i, a := range img.Header.Axes {
		dims[i] = a.Length
	}

	im := fitsio.NewImage(-32, dims)
	defer im.Close()

	if err := im.Header().Append(headerCards(img.Header)...); err != nil {
		return errors.Wrap(err, "writing header cards")
	}

	buf := make([]float32, len(img.Data))
	for i, v := range img.Data {
		buf[i] = float32(v)
	}
	if err := im.Write(buf); err != nil {
		return errors.Wrap(err, "encoding pixels")
	}
	if err := f.Write(im); err != nil {
		return errors.Wrap(err, "writing image HDU")
	}

	if len(img.Header.BeamTable) > 0 {
		if err := writeBeamTable(f, img.Header.BeamTable); err != nil {
			return err
		}
	}
	return nil
}

// PlaneImage wraps a single plane as a 4-axis image sharing the celestial
// axes of h, collapsed to one channel and one polarization.
func PlaneImage(p *Plane, h *Header, freqHz float64, pol int) *Image {
	axes := []Axis{h.Axes[0], h.Axes[1],
		{Type: "FREQ", Length: 1, RefValue: freqHz, Increment: 1, RefPixel: 1, HasRefPixel: true},
		{Type: "STOKES", Length: 1, RefValue: float64(pol), Increment: 1, RefPixel: 1, HasRefPixel: true},
	}
	out := &Header{Axes: axes, Beam: h.Beam, BUnit: h.BUnit, Object: h.Object}
	return &Image{Header: out, Data: append([]float64(nil), p.Data...)}
}

func headerCards(h *Header) []fitsio.Card {
	var cards []fitsio.Card
	for i, a := range h.Axes {
		k := i + 1
		cards = append(cards,
			fitsio.Card{Name: fmt.Sprintf("CTYPE%d", k), Value: a.Type},
			fitsio.Card{Name: fmt.Sprintf("CRVAL%d", k), Value: a.RefValue},
			fitsio.Card{Name: fmt.Sprintf("CDELT%d", k), Value: a.Increment},
		)
		if a.HasRefPixel {
			cards = append(cards, fitsio.Card{Name: fmt.Sprintf("CRPIX%d", k), Value: a.RefPixel})
		}
	}
	if h.Beam != nil {
		cards = append(cards,
			fitsio.Card{Name: "BMAJ", Value: h.Beam.Major, Comment: "deg"},
			fitsio.Card{Name: "BMIN", Value: h.Beam.Minor, Comment: "deg"},
			fitsio.Card{Name: "BPA", Value: h.Beam.PA, Comment: "deg"},
		)
	}
	if h.BUnit != "" {
		cards = append(cards, fitsio.Card{Name: "BUNIT", Value: h.BUnit})
	}
	if h.Object != "" {
		cards = append(cards, fitsio.Card{Name: "OBJECT", Value: h.Object})
	}
	return cards
}

// writeBeamTable appends a BEAMS binary table with BMAJ/BMIN in arcseconds.
func writeBeamTable(f *fitsio.File, rows []BeamRow) error {
	cols := []fitsio.Column{
		{Name: "BMAJ", Format: "E", Unit: "arcsec"},
		{Name: "BMIN", Format: "E", Unit: "arcsec"},
		{Name: "BPA", Format: "E", Unit: "deg"},
		{Name: "CHAN", Format: "J"},
		{Name: "POL", Format: "J"},
	}
	table, err := fitsio.NewTable("BEAMS", cols, fitsio.BINARY_TBL)
	if err != nil {
		return errors.Wrap(err, "creating beam table")
	}
	defer table.Close()

	for _, r := range rows {
		bmaj := float32(r.Major * 3600)
		bmin := float32(r.Minor * 3600)
		bpa := float32(r.PA)
		ch := int32(r.Chan)
		pol := int32(r.Pol)
		if err := table.Write(&bmaj, &bmin, &bpa, &ch, &pol); err != nil {
			return errors.Wrap(err, "writing beam table row")
		}
	}
	return errors.Wrap(f.Write(table), "writing beam table HDU")
}
