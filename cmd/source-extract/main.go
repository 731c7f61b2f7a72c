package main

import (
	"log"
	"os"

	"github.com/ironsheep/source-extract/internal/srcerr"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Exit codes
const (
	exitFailure = iota + 1
	exitConfiguration
)

func main() {
	// stdout carries the MCP protocol under "serve"; diagnostics go to stderr
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := newRootCmd().Execute(); err != nil {
		log.Printf("ERROR: %v", err)
		if srcerr.IsConfiguration(err) {
			os.Exit(exitConfiguration)
		}
		os.Exit(exitFailure)
	}
}
