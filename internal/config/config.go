// Package config resolves the settings of a source-extract run from flags
// and an optional YAML defaults file, and derives the results table path.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/source-extract/internal/extract"
	"github.com/ironsheep/source-extract/internal/position"
	"github.com/ironsheep/source-extract/internal/srcerr"
)

// DefaultExt is appended to the common input prefix to name the table.
const DefaultExt = ".spectrum.tab"

// LogLevelEnv names the log level when neither --log-level nor the config
// file sets one.
const LogLevelEnv = "SOURCE_EXTRACT_LOG_LEVEL"

// Config holds every setting of an extraction run.
type Config struct {
	Source string `yaml:"source"`
	LocDir string `yaml:"loc_dir"`

	Radius         float64  `yaml:"radius"`
	RMSInnerRadius *float64 `yaml:"rms_inner_radius"`
	RMSOuterRadius *float64 `yaml:"rms_outer_radius"`
	Polarization   int      `yaml:"polarization"`
	GaussfitMult   float64  `yaml:"gaussfit_mult"`

	Output    string `yaml:"output"`
	OutDir    string `yaml:"outdir"`
	Ext       string `yaml:"ext"`
	Overwrite bool   `yaml:"overwrite"`

	PlotFit    bool   `yaml:"plot_fit"`
	PlotLabel  string `yaml:"plot_label"`
	WriteModel bool   `yaml:"write_model"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in settings. LogLevel is left empty so that
// Resolve can fall back to LogLevelEnv.
func Default() Config {
	return Config{
		LocDir:       ".",
		Radius:       extract.DefaultRadius,
		Polarization: extract.DefaultPolarization,
		GaussfitMult: extract.DefaultGaussfitMult,
		Ext:          DefaultExt,
	}
}

// LoadFile reads YAML settings from path on top of Default. Unknown keys
// are rejected.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, srcerr.WrapConfig(err, "cannot read config file %s", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, srcerr.WrapConfig(err, "cannot parse config file %s", path)
	}
	return cfg, nil
}

// Validate checks the settings that do not depend on the input files.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source) == "" {
		return srcerr.Configf("--source is required")
	}
	if !(c.Radius > 0) {
		return srcerr.Configf("--radius must be positive, got %g", c.Radius)
	}
	if !(c.GaussfitMult > 0) {
		return srcerr.Configf("--gaussfit-mult must be positive, got %g", c.GaussfitMult)
	}
	if (c.RMSInnerRadius == nil) != (c.RMSOuterRadius == nil) {
		return srcerr.Configf("--rms-inner-radius and --rms-outer-radius must be given together")
	}
	if c.RMSInnerRadius != nil {
		if *c.RMSInnerRadius < 0 || *c.RMSInnerRadius >= *c.RMSOuterRadius {
			return srcerr.Configf("rms annulus %g..%g is empty", *c.RMSInnerRadius, *c.RMSOuterRadius)
		}
	}
	return nil
}

// Options converts the settings into extraction options for pos.
func (c *Config) Options(pos *position.Sky) extract.Options {
	return extract.Options{
		Position:       pos,
		SourceName:     c.Source,
		Radius:         c.Radius,
		GaussfitMult:   c.GaussfitMult,
		RMSInnerRadius: c.RMSInnerRadius,
		RMSOuterRadius: c.RMSOuterRadius,
		Polarization:   c.Polarization,
		RenderPlot:     c.PlotFit,
		PlotLabel:      c.PlotLabel,
		WriteModel:     c.WriteModel,
	}
}

// OutputPath returns the results table path for files.
//
// An explicit output wins. Otherwise the name is the longest common
// character prefix of the sorted inputs, without its extension, plus ext,
// placed in outdir (default: the directory part of that prefix).
func OutputPath(files []string, output, outdir, ext string) string {
	if output != "" {
		return output
	}
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)
	prefix := commonPrefix(sorted)

	if outdir == "" {
		outdir = dirname(prefix)
	}
	return filepath.Join(outdir, filepath.Base(stripExt(prefix)+ext))
}

// CheckOutput refuses to proceed when path exists and overwrite is off.
func CheckOutput(path string, overwrite bool) error {
	if overwrite {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return srcerr.Configf("file %s exists, not overwriting", path)
	}
	return nil
}

func commonPrefix(s []string) string {
	if len(s) == 0 {
		return ""
	}
	// s is sorted, so the first and last differ the earliest
	first, last := s[0], s[len(s)-1]
	n := 0
	for n < len(first) && n < len(last) && first[n] == last[n] {
		n++
	}
	return first[:n]
}

// dirname returns everything before the last separator, or "" if there is
// none.
func dirname(p string) string {
	i := strings.LastIndex(p, string(filepath.Separator))
	switch {
	case i < 0:
		return ""
	case i == 0:
		return string(filepath.Separator)
	}
	return p[:i]
}

// stripExt drops the final extension of the last path element. A name that
// is only a leading dot segment keeps it.
func stripExt(p string) string {
	ext := filepath.Ext(p)
	base := p[strings.LastIndex(p, string(filepath.Separator))+1:]
	if ext == "" || strings.TrimLeft(base, ".") == strings.TrimLeft(ext, ".") {
		return p
	}
	return strings.TrimSuffix(p, ext)
}
