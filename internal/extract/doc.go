// Package extract measures the flux of a known radio source in FITS images.
//
// For each image Extract reports the peak brightness inside a disk around
// the source, the RMS noise away from it, the error on the peak, and the
// amplitude and integrated flux of a 2D Gaussian fitted inside a mask shaped
// like the restoring beam.
//
// # Error Handling
//
// Option problems are ConfigurationErrors and image defects are DataErrors
// (see package srcerr). A Gaussian fit that fails is not an error: the
// result carries zero Gaussian fluxes and FitError explains why.
//
// Batch applies Extract to a list of files, skipping images that fail and
// stopping on the first ConfigurationError. WriteTable formats the
// successful results as the tab-delimited spectrum table.
package extract
