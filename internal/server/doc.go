// Package server implements the MCP (Model Context Protocol) server for
// source extraction.
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - fits_header: Describe the axes, beam and polarizations of a FITS cube
//   - fits_cache_clear: Drop all cached images
//   - source_position: Resolve a source name through its .loc file
//   - source_extract: Measure a source in one image, optionally with the
//     diagnostic figure as base64 PNG
//   - source_extract_batch: Measure a source across images and build the
//     spectrum table
//
// # Image Caching
//
// Images loaded by fits_header and source_extract are cached by path for
// the lifetime of the process. Batch runs use a private cache that drops
// each image once it has been measured.
//
// # Error Handling
//
// Tool failures are returned as JSON-RPC errors. Unusable arguments, such
// as a missing .loc file or a half-specified rms annulus, use -32602; image
// defects use -32000. The data field carries the Go error string.
//
// # Usage
//
//	srv := server.New(log, version)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
