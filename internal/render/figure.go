package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/ironsheep/source-extract/internal/extract"
	"github.com/ironsheep/source-extract/internal/skyimage"
)

// Figure renders the three-panel fit diagnostic: a projected surface view,
// the flux cutout with mask and model contours, and the residual.
//
// Figure implements extract.Plotter.
type Figure struct {
	// PanelWidth and PanelHeight size each panel.
	PanelWidth  vg.Length
	PanelHeight vg.Length

	// Width, when positive, rescales the composed figure to this many
	// pixels across.
	Width int
}

// New returns a Figure with 14x5 inch proportions.
func New() *Figure {
	return &Figure{PanelWidth: 14 * vg.Inch / 3, PanelHeight: 5 * vg.Inch}
}

// FigureResult is a rendered figure encoded for transport.
type FigureResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Plot renders d and saves it as a PNG at path.
func (f *Figure) Plot(path string, d *extract.Diagnostics) error {
	img, err := f.Render(d)
	if err != nil {
		return err
	}
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to save %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Render draws the figure for d.
func (f *Figure) Render(d *extract.Diagnostics) (image.Image, error) {
	s, err := newStamp(d)
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Source %s from %s\n%.2f MHz", d.Source, filepath.Base(d.ImagePath), d.Frequency/1e6)
	surface, err := surfacePanel(s, title)
	if err != nil {
		return nil, err
	}
	panels := []*plot.Plot{surface, fluxPanel(s), residualPanel(s, d.BUnit)}

	tiles := make([]image.Image, len(panels))
	width, height := 0, 0
	for i, p := range panels {
		c := vgimg.New(f.PanelWidth, f.PanelHeight)
		p.Draw(draw.New(c))
		tiles[i] = c.Image()
		width += tiles[i].Bounds().Dx()
		if h := tiles[i].Bounds().Dy(); h > height {
			height = h
		}
	}

	strip := 0
	if d.Caption != "" {
		strip = captionHeight
	}
	out := imaging.New(width, height+strip, color.White)
	x := 0
	for _, t := range tiles {
		out = imaging.Paste(out, t, image.Pt(x, 0))
		x += t.Bounds().Dx()
	}
	if strip > 0 {
		drawCaption(out, height, d.Caption)
	}

	if f.Width > 0 && f.Width != width {
		out = imaging.Resize(out, f.Width, 0, imaging.Lanczos)
	}
	return out, nil
}

// captionHeight is the strip below the panels, in pixels.
const captionHeight = 20

// drawCaption writes text into the strip that starts at row top.
func drawCaption(dst *image.NRGBA, top int, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(8, top+(captionHeight+face.Ascent)/2),
	}
	d.DrawString(text)
}

// Encode renders d and returns it as a base64 PNG.
func (f *Figure) Encode(d *extract.Diagnostics) (*FigureResult, error) {
	img, err := f.Render(d)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imgio.PNGEncoder()(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode figure: %w", err)
	}

	return &FigureResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// newStamp crops every diagnostic plane to the cutout region.
func newStamp(d *extract.Diagnostics) (*stamp, error) {
	if d == nil || d.Data == nil || d.Model == nil || d.Mask == nil {
		return nil, fmt.Errorf("incomplete diagnostics")
	}

	s := &stamp{region: d.Cutout}
	planes := []struct {
		src *skyimage.Plane
		dst **skyimage.Plane
	}{
		{d.Data, &s.data},
		{d.Mask, &s.mask},
		{d.Model, &s.model},
		{d.Residual(), &s.resid},
	}
	for _, p := range planes {
		c, err := skyimage.Crop(p.src, d.Cutout)
		if err != nil {
			return nil, fmt.Errorf("failed to crop cutout: %w", err)
		}
		*p.dst = c
	}
	return s, nil
}
