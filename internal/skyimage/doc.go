// Package skyimage loads reduced radio images and exposes them as typed
// headers, 2D planes and sky coordinate grids.
//
// Images are FITS cubes with two celestial axes (RA along NAXIS1, Dec along
// NAXIS2) followed by a frequency axis and usually a Stokes axis, in either
// order. The restoring beam comes from BMAJ/BMIN/BPA in the primary header
// or, for per-channel beams, from a binary table extension.
//
// # Coordinate System
//
// Planes are indexed [row, col]:
//   - col: 0-based position along NAXIS1 (right ascension)
//   - row: 0-based position along NAXIS2 (declination)
//
// Sky coordinates use the linear approximation CRVAL + (pixel - CRPIX)·CDELT
// in degrees; no spherical projection is applied.
//
// # Error Handling
//
// Defects in an input file (unreadable FITS, missing axes, absent beam,
// unknown polarization) are returned as srcerr.DataError so callers can skip
// the file and continue with the next one.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Images and planes are not mutated
// after loading and may be shared between goroutines.
package skyimage
