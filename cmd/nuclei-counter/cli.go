package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sahibnoorsingh009/nuclei-counter/internal/config"
	"github.com/sahibnoorsingh009/nuclei-counter/internal/export"
	"github.com/sahibnoorsingh009/nuclei-counter/internal/imaging"
	"github.com/sahibnoorsingh009/nuclei-counter/internal/logging"
	"github.com/sahibnoorsingh009/nuclei-counter/internal/pipeline"
	"github.com/sahibnoorsingh009/nuclei-counter/internal/server"
)

// app carries the state shared by all subcommands. It is filled in by the
// root command's pre-run hook.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string

	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:           "nuclei-counter",
		Short:         "Count nuclei in microscopy images with several detection methods",
		Version:       fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"YAML configuration file. Built-in defaults are used when omitted")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"Log level (trace, debug, info, warn, error, off). Overrides the configuration")

	rootCmd.AddCommand(a.countCmd(), a.methodsCmd(), a.serveCmd())
	return rootCmd
}

// setup loads the configuration and builds the logger.
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		if _, err := logging.ParseLevel(a.logLevel); err != nil {
			return err
		}
		cfg.LogLevel = a.logLevel
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.New(a.stderr, level, isTerminal(a.stderr))
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (a *app) countCmd() *cobra.Command {
	var (
		methods    []string
		exportPath string
		overlayDir string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "count <image>",
		Short: "Run the detection methods on an image and compare their counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("timeout") {
				a.cfg.Timeout = timeout
			}
			orch, err := pipeline.New(a.cfg, a.log)
			if err != nil {
				return err
			}

			img, info, err := imaging.LoadImageInfo(args[0])
			if err != nil {
				return err
			}
			a.log.Debug().
				Str("image", info.Name).
				Int("width", info.Width).
				Int("height", info.Height).
				Str("color_depth", info.ColorDepth).
				Msg("image loaded")

			var rs *pipeline.ResultSet
			if len(methods) == 0 {
				rs, err = orch.RunAll(cmd.Context(), img)
			} else {
				rs, err = orch.Run(cmd.Context(), img, methods...)
			}
			if err != nil {
				return err
			}

			if err := printResults(a.stdout, info.Name, rs); err != nil {
				return err
			}

			if exportPath != "" {
				doc := export.NewDocument(info.Name, rs, time.Now())
				if err := doc.WriteFile(exportPath); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "Results exported to %s\n", exportPath)
			}
			if overlayDir != "" {
				paths, err := export.SaveOverlays(overlayDir, rs)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "Overlays saved: %s\n", strings.Join(paths, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&methods, "methods", "m", nil,
		"Comma-separated method ids to run. Default: all configured methods")
	cmd.Flags().StringVarP(&exportPath, "export", "e", "",
		"Write the results as JSON to this file")
	cmd.Flags().StringVarP(&overlayDir, "overlays", "o", "",
		"Write one annotated PNG per method into this directory")
	cmd.Flags().DurationVar(&timeout, "timeout", 0,
		"Per-method time budget, e.g. 10s. Zero disables the budget")
	return cmd
}

// printResults writes the per-method table and the summary line.
func printResults(w io.Writer, imageName string, rs *pipeline.ResultSet) error {
	fmt.Fprintf(w, "Image: %s (%dx%d)\n\n", filepath.Base(imageName), rs.Width, rs.Height)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tNAME\tSTATUS\tCOUNT\tTIME (ms)")
	for _, r := range rs.Results {
		status := export.StatusSuccess
		count := fmt.Sprintf("%d", r.Count)
		if !r.Succeeded() {
			status = export.StatusError + ": " + r.Err
			count = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\n",
			r.Method, r.Name, status, count, float64(r.Elapsed.Microseconds())/1000)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := rs.Summary()
	if s.Succeeded == 0 {
		_, err := fmt.Fprintln(w, "\nNo method succeeded.")
		return err
	}
	_, err := fmt.Fprintf(w, "\nMean %.1f  StdDev %.2f  Min %d  Max %d  (%d succeeded, %d failed)\n",
		s.Mean, s.StdDev, s.Min, s.Max, s.Succeeded, s.Failed)
	return err
}

func (a *app) methodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List the configured detection methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDETECTOR\tCOLOR")
			for _, m := range a.cfg.Methods {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Name, m.Detector, m.Color)
			}
			return tw.Flush()
		},
	}
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the counting tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := pipeline.New(a.cfg, a.log)
			if err != nil {
				return err
			}
			a.log.Debug().
				Str("version", Version).
				Str("build_time", BuildTime).
				Str("commit", GitCommit).
				Msg("starting MCP server")
			return server.New(orch, a.log, Version).Run(cmd.Context())
		},
	}
}
