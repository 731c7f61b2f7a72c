package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ironsheep/source-extract/internal/config"
	"github.com/ironsheep/source-extract/internal/extract"
	"github.com/ironsheep/source-extract/internal/logger"
	"github.com/ironsheep/source-extract/internal/position"
	"github.com/ironsheep/source-extract/internal/render"
	"github.com/ironsheep/source-extract/internal/server"
	"github.com/ironsheep/source-extract/internal/skyimage"
	"github.com/ironsheep/source-extract/internal/srcerr"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "source-extract [flags] FILE...",
		Short: "Measure a point source across FITS images and write its spectrum",
		Long: `source-extract measures the peak flux, its error, and the peak and
integrated flux of a 2D Gaussian fit for one source in every input image,
then writes one row per image, ordered by path, to a tab-separated table.

The source position is read from <loc-dir>/<source>.loc, which holds
"HH:MM:SS ±DD:MM:SS". Images that cannot be measured are reported and
skipped. Arguments may be glob patterns.`,
		Version:       fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit),
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := config.AddFlags(root.Flags())

	root.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := flags.Resolve(cmd.Flags())
		if err != nil {
			return err
		}
		return runExtract(cfg, args)
	}

	root.AddCommand(newHeaderCmd(), newServeCmd())
	return root
}

// newLogger returns a logger at the named level, or at the level from the
// environment when name is empty.
func newLogger(name string) logger.ILogger {
	if name == "" {
		name = os.Getenv(config.LogLevelEnv)
	}
	return logger.New(log.Default(), logger.ParseLevel(name))
}

func runExtract(cfg config.Config, args []string) error {
	lg := newLogger(cfg.LogLevel)

	files, err := expandArgs(args)
	if err != nil {
		return err
	}

	pos, err := position.Load(cfg.LocDir, cfg.Source)
	if err != nil {
		return err
	}
	lg.Infof("%s at RA=%.6f Dec=%.6f deg", cfg.Source, pos.RA, pos.Dec)

	outPath := config.OutputPath(files, cfg.Output, cfg.OutDir, cfg.Ext)
	if err := config.CheckOutput(outPath, cfg.Overwrite); err != nil {
		return err
	}

	opts := cfg.Options(pos)
	opts.Log = lg
	if cfg.PlotFit {
		opts.Plotter = render.New()
	}

	outcomes, err := extract.NewBatch(opts, nil, lg).Run(files)
	if err != nil {
		return err
	}
	results := extract.Successes(outcomes)
	if skipped := len(extract.Failures(outcomes)); skipped > 0 {
		lg.Warnf("%d of %d images skipped", skipped, len(outcomes))
	}

	if err := extract.SaveTable(outPath, results, cfg.Overwrite); err != nil {
		return err
	}
	lg.Infof("wrote %d rows to %s", len(results), outPath)
	return nil
}

// expandArgs expands glob patterns. An argument matching nothing is kept
// as a literal path so that the batch reports it as unreadable.
func expandArgs(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, a := range args {
		matches, err := filepath.Glob(a)
		if err != nil {
			return nil, srcerr.WrapConfig(err, "bad file pattern %q", a)
		}
		if len(matches) == 0 {
			matches = []string{a}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func newHeaderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "header FILE",
		Short: "Print the axes, beam and polarizations of a FITS image as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := skyimage.LoadHeaderInfo(skyimage.NewImageCache(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
}

func newServeCmd() *cobra.Command {
	var level string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		Long: `serve exposes fits_header, fits_cache_clear, source_position,
source_extract and source_extract_batch as MCP tools over JSON-RPC on
stdin/stdout.
Configure it in an MCP client; logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lg := newLogger(level)
			lg.Debugf("source-extract MCP server %s (built %s, commit %s)", Version, BuildTime, GitCommit)
			return server.New(lg, Version).Run()
		},
	}
	cmd.Flags().StringVar(&level, "log-level", "", "debug, info, warn or error (default from "+config.LogLevelEnv+")")
	return cmd
}
