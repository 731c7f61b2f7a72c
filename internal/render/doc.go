// Package render draws the diagnostic figure for a source extraction.
//
// Panels are built with gonum/plot, rasterised with vgimg, composed side by
// side with disintegration/imaging and written as PNG through bild's imgio.
// Colours come from a magma palette interpolated with go-colorful. The
// measurement summary is lettered beneath the panels in basicfont.
//
// Rendering is best effort: callers log failures and carry on.
package render
