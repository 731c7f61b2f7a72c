package render

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// magmaStops are evenly spaced anchor colours of the magma colormap.
var magmaStops = []string{"#000004", "#3b0f70", "#8c2981", "#de4968", "#fe9f6d", "#fcfdbf"}

// Named colours used for overlays.
var (
	maskColor  = mustHex("#00ff00") // lime
	modelColor = mustHex("#fffafa") // snow
	wireColor  = mustHex("#4682b4") // steelblue
)

// Magma returns n colours running from black through purple and orange to
// pale yellow, interpolated in CIE L*a*b*.
type Magma int

// Colors implements palette.Palette.
func (m Magma) Colors() []color.Color {
	n := int(m)
	if n < 2 {
		n = 2
	}
	stops := make([]colorful.Color, len(magmaStops))
	for i, h := range magmaStops {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(err)
		}
		stops[i] = c
	}

	out := make([]color.Color, n)
	segments := float64(len(stops) - 1)
	for i := range out {
		t := float64(i) / float64(n-1) * segments
		k := int(t)
		if k >= len(stops)-1 {
			k = len(stops) - 2
		}
		c := stops[k].BlendLab(stops[k+1], t-float64(k)).Clamped()
		r, g, b := c.RGB255()
		out[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

// solid is a one-colour palette, used to draw contours in a fixed colour.
type solid struct{ c color.Color }

func (s solid) Colors() []color.Color { return []color.Color{s.c} }

// parseHexColor parses "#RRGGBB" or "#RRGGBBAA".
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] != '#' {
		hex = "#" + hex
	}

	var alpha uint8 = 255
	switch len(hex) {
	case 7:
	case 9:
		var a uint64
		if _, err := fmt.Sscanf(hex[7:], "%02x", &a); err != nil {
			return color.RGBA{}, fmt.Errorf("invalid alpha in %q: %w", hex, err)
		}
		alpha = uint8(a)
		hex = hex[:7]
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: alpha}, nil
}

func mustHex(hex string) color.RGBA {
	c, err := parseHexColor(hex)
	if err != nil {
		panic(err)
	}
	return c
}
