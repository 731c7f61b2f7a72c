package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/ironsheep/source-extract/internal/position"
	"github.com/ironsheep/source-extract/internal/srcerr"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "extract.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func parseFlags(t *testing.T, args ...string) (*Flags, *pflag.FlagSet) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := AddFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return f, fs
}

func TestResolve_Defaults(t *testing.T) {
	f, fs := parseFlags(t, "--source", "CasA")
	cfg, err := f.Resolve(fs)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cfg.Radius != 1.0 || cfg.GaussfitMult != 1.0 || cfg.Polarization != 1 {
		t.Errorf("defaults: got %+v", cfg)
	}
	if cfg.Ext != ".spectrum.tab" || cfg.LocDir != "." {
		t.Errorf("defaults: got ext %q loc-dir %q", cfg.Ext, cfg.LocDir)
	}
	if cfg.RMSInnerRadius != nil || cfg.RMSOuterRadius != nil {
		t.Error("rms radii should be unset")
	}
}

func TestResolve_FileThenFlags(t *testing.T) {
	path := writeConfigFile(t, `
source: CygA
radius: 0.5
rms_inner_radius: 1.0
rms_outer_radius: 2.0
polarization: -5
plot_label: _cfg
`)

	f, fs := parseFlags(t, "--config", path, "--radius", "0.25", "--plot-fit")
	cfg, err := f.Resolve(fs)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if cfg.Source != "CygA" || cfg.Polarization != -5 || cfg.PlotLabel != "_cfg" {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.Radius != 0.25 {
		t.Errorf("flag should override file: radius %g", cfg.Radius)
	}
	if !cfg.PlotFit {
		t.Error("plot-fit flag ignored")
	}
	if cfg.RMSInnerRadius == nil || *cfg.RMSInnerRadius != 1.0 || *cfg.RMSOuterRadius != 2.0 {
		t.Errorf("rms radii: got %v/%v", cfg.RMSInnerRadius, cfg.RMSOuterRadius)
	}
}

func TestResolve_Verbose(t *testing.T) {
	f, fs := parseFlags(t, "--source", "x", "-v")
	cfg, err := f.Resolve(fs)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q, want debug", cfg.LogLevel)
	}
}

func TestResolve_LogLevelFromEnv(t *testing.T) {
	t.Setenv(LogLevelEnv, "debug")

	tests := []struct {
		name string
		file string
		args []string
		want string
	}{
		{"env only", "", []string{"--source", "x"}, "debug"},
		{"flag wins", "", []string{"--source", "x", "--log-level", "warn"}, "warn"},
		{"file wins", "log_level: error\n", []string{"--source", "x"}, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			if tt.file != "" {
				args = append(args, "--config", writeConfigFile(t, tt.file))
			}
			f, fs := parseFlags(t, args...)
			cfg, err := f.Resolve(fs)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if cfg.LogLevel != tt.want {
				t.Errorf("LogLevel: got %q, want %q", cfg.LogLevel, tt.want)
			}
		})
	}
}

func TestResolve_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no source", nil},
		{"zero radius", []string{"--source", "x", "--radius", "0"}},
		{"negative mult", []string{"--source", "x", "--gaussfit-mult", "-1"}},
		{"inner only", []string{"--source", "x", "--rms-inner-radius", "1"}},
		{"outer only", []string{"--source", "x", "--rms-outer-radius", "2"}},
		{"inverted annulus", []string{"--source", "x", "--rms-inner-radius", "2", "--rms-outer-radius", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, fs := parseFlags(t, tt.args...)
			if _, err := f.Resolve(fs); !srcerr.IsConfiguration(err) {
				t.Errorf("expected ConfigurationError, got %v", err)
			}
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); !srcerr.IsConfiguration(err) {
		t.Errorf("missing file: expected ConfigurationError, got %v", err)
	}
	path := writeConfigFile(t, "radius: 1\nbogus_key: 3\n")
	if _, err := LoadFile(path); !srcerr.IsConfiguration(err) {
		t.Errorf("unknown key: expected ConfigurationError, got %v", err)
	}
	empty := writeConfigFile(t, "")
	cfg, err := LoadFile(empty)
	if err != nil {
		t.Fatalf("empty file should be accepted: %v", err)
	}
	if cfg.Radius != 1.0 {
		t.Errorf("empty file should keep defaults, got radius %g", cfg.Radius)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name                string
		files               []string
		output, outdir, ext string
		want                string
	}{
		{
			name:  "common prefix",
			files: []string{"/data/zen.2458098.44615.HH.uvR.fits", "/data/zen.2458098.40887.HH.uvR.fits"},
			ext:   ".spectrum.tab",
			want:  "/data/zen.2458098.spectrum.tab",
		},
		{
			name:  "single file",
			files: []string{"/data/obs.image.fits"},
			ext:   ".spectrum.tab",
			want:  "/data/obs.image.spectrum.tab",
		},
		{
			name:   "outdir",
			files:  []string{"/data/a1.fits", "/data/a2.fits"},
			outdir: "/out",
			ext:    ".tab",
			want:   "/out/a.tab",
		},
		{
			name:   "explicit output",
			files:  []string{"/data/a1.fits"},
			output: "result.txt",
			want:   "result.txt",
		},
		{
			name:  "relative files",
			files: []string{"spw1.fits", "spw2.fits"},
			ext:   ".spectrum.tab",
			want:  "spw.spectrum.tab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OutputPath(tt.files, tt.output, tt.outdir, tt.ext)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCheckOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tab")
	if err := CheckOutput(path, false); err != nil {
		t.Fatalf("missing file should pass: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CheckOutput(path, false); !srcerr.IsConfiguration(err) {
		t.Errorf("existing file: expected ConfigurationError, got %v", err)
	}
	if err := CheckOutput(path, true); err != nil {
		t.Errorf("overwrite should pass: %v", err)
	}
}

func TestConfigOptions(t *testing.T) {
	inner, outer := 0.1, 0.2
	cfg := Default()
	cfg.Source = "Vir A"
	cfg.RMSInnerRadius, cfg.RMSOuterRadius = &inner, &outer
	cfg.PlotFit = true

	pos := &position.Sky{RA: 187.7, Dec: 12.4}
	opts := cfg.Options(pos)
	if opts.Position != pos || opts.SourceName != "Vir A" || !opts.RenderPlot {
		t.Errorf("got %+v", opts)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("options should validate: %v", err)
	}
}
