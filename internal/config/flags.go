package config

import (
	"os"

	"github.com/spf13/pflag"
)

// Flags binds Config fields to a flag set. Values from a --config file are
// used for every flag the user did not set explicitly.
type Flags struct {
	ConfigPath string
	Verbose    bool

	cfg          Config
	inner, outer float64
}

// AddFlags registers the extraction flags on fs.
func AddFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{cfg: Default()}
	c := &f.cfg

	fs.StringVar(&f.ConfigPath, "config", "", "YAML file with default settings")
	fs.BoolVarP(&f.Verbose, "verbose", "v", false, "log debug output")

	fs.StringVar(&c.Source, "source", "", "source name; its position is read from <source>.loc")
	fs.StringVar(&c.LocDir, "loc-dir", c.LocDir, "directory holding <source>.loc files")
	fs.Float64Var(&c.Radius, "radius", c.Radius, "radius in degrees around the source to search for the peak")
	fs.Float64Var(&f.inner, "rms-inner-radius", 0, "inner radius in degrees of the rms annulus")
	fs.Float64Var(&f.outer, "rms-outer-radius", 0, "outer radius in degrees of the rms annulus")
	fs.IntVar(&c.Polarization, "polarization", c.Polarization, "Stokes code of the polarization to measure")
	fs.Float64Var(&c.GaussfitMult, "gaussfit-mult", c.GaussfitMult, "beam multiplier for the gaussian fit mask")

	fs.StringVarP(&c.Output, "output", "o", "", "results table path")
	fs.StringVar(&c.OutDir, "outdir", "", "directory for the results table")
	fs.StringVar(&c.Ext, "ext", c.Ext, "suffix for the derived results table name")
	fs.BoolVar(&c.Overwrite, "overwrite", false, "replace an existing results table")

	fs.BoolVar(&c.PlotFit, "plot-fit", false, "write a diagnostic figure per image")
	fs.StringVar(&c.PlotLabel, "plot-label", "", "suffix added to figure and model file names")
	fs.BoolVar(&c.WriteModel, "write-model", false, "write the fitted model plane as FITS")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error (default from "+LogLevelEnv+", else info)")
	return f
}

// Resolve merges defaults, the --config file and explicitly set flags, in
// that order of increasing precedence.
func (f *Flags) Resolve(fs *pflag.FlagSet) (Config, error) {
	cfg := Default()
	if f.ConfigPath != "" {
		var err error
		if cfg, err = LoadFile(f.ConfigPath); err != nil {
			return cfg, err
		}
	}

	fs.Visit(func(fl *pflag.Flag) {
		c := &f.cfg
		switch fl.Name {
		case "source":
			cfg.Source = c.Source
		case "loc-dir":
			cfg.LocDir = c.LocDir
		case "radius":
			cfg.Radius = c.Radius
		case "rms-inner-radius":
			v := f.inner
			cfg.RMSInnerRadius = &v
		case "rms-outer-radius":
			v := f.outer
			cfg.RMSOuterRadius = &v
		case "polarization":
			cfg.Polarization = c.Polarization
		case "gaussfit-mult":
			cfg.GaussfitMult = c.GaussfitMult
		case "output":
			cfg.Output = c.Output
		case "outdir":
			cfg.OutDir = c.OutDir
		case "ext":
			cfg.Ext = c.Ext
		case "overwrite":
			cfg.Overwrite = c.Overwrite
		case "plot-fit":
			cfg.PlotFit = c.PlotFit
		case "plot-label":
			cfg.PlotLabel = c.PlotLabel
		case "write-model":
			cfg.WriteModel = c.WriteModel
		case "log-level":
			cfg.LogLevel = c.LogLevel
		}
	})
	if cfg.LogLevel == "" {
		cfg.LogLevel = os.Getenv(LogLevelEnv)
	}
	if f.Verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, cfg.Validate()
}
