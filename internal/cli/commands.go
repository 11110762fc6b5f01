package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/night-courses/internal/catalog"
	"github.com/pfrederiksen/night-courses/internal/config"
	"github.com/pfrederiksen/night-courses/internal/export"
	"github.com/pfrederiksen/night-courses/internal/logger"
	"github.com/pfrederiksen/night-courses/internal/server"
)

func newExportCmd() *cobra.Command {
	var (
		format     string
		outputDir  string
		detailed   bool
		legacyName bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch night courses and write them to a PDF, XLSX or HTML file",
		Long: `Fetch night courses and write them to a PDF, XLSX or HTML file.

A per-semester summary is printed to standard output. Structured JSON logs, including
one entry per module that could not be fetched, go to standard error.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()

			cfg, err := loadConfig(cmd, func(c *config.Config) {
				if cmd.Flags().Changed("format") {
					c.Export.Format = format
				}
				if cmd.Flags().Changed("output-dir") {
					c.Export.OutputDir = outputDir
				}
				if cmd.Flags().Changed("detailed") {
					c.Export.Detailed = detailed
				}
				if cmd.Flags().Changed("legacy-name") {
					c.Export.LegacyName = legacyName
				}
			})
			if err != nil {
				return err
			}
			defer writeMetrics(cfg)

			exp, err := export.New(cfg.Export.Format, export.Options{
				AcademicYear: cfg.AcademicYear,
				Detailed:     cfg.Export.Detailed,
				LegacyName:   cfg.Export.LegacyName,
				CourseURL:    cfg.API.CourseURL,
			})
			if err != nil {
				return err
			}

			store, err := openStorage(cfg)
			if err != nil {
				return err
			}

			res, err := fetchGrouping(cmd.Context(), cfg, store)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			result := newOutputResult(cfg, res, res.Grouping, false)
			if err := WriteOutput(out, result, FormatText, false); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}

			path, err := export.WriteFile(exp, cfg.Export.OutputDir, res.Grouping, time.Now())
			if err != nil {
				return err
			}

			if err := store.CreateSnapshotFromGrouping(cfg.AcademicYear, res.Grouping); err != nil {
				return fmt.Errorf("saving snapshot: %w", err)
			}

			fmt.Fprintf(out, "Exported %d courses to %s\n", res.Grouping.Total(), path)
			fmt.Fprintf(out, "--- %.2f seconds ---\n", time.Since(start).Seconds())
			return nil
		},
	}

	defaults := config.Default()
	cmd.Flags().StringVar(&format, "format", defaults.Export.Format, "Output format: pdf, xlsx or html")
	cmd.Flags().StringVar(&outputDir, "output-dir", defaults.Export.OutputDir, "Directory to write the artifact to")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "Add faculty and department columns (xlsx, html)")
	cmd.Flags().BoolVar(&legacyName, "legacy-name", false, "Leave the academic year out of the file name")
	return cmd
}

func newListCmd() *cobra.Command {
	var (
		format  string
		sortBy  string
		newOnly bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print night courses per semester",
		Long: `Print night courses per semester as text, JSON or YAML.

With --new only courses absent from the previous run's snapshot are printed, and the
command exits with status 2 when there are any.

Standard output carries only the listing. Structured JSON logs, including one entry
per module that could not be fetched, go to standard error.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat := OutputFormat(normalizeFormat(format))
			if outFormat != FormatText && outFormat != FormatJSON && outFormat != FormatYAML {
				return fmt.Errorf("invalid format: %s (must be 'text', 'json' or 'yaml')", format)
			}
			order, err := parseSortOrder(sortBy)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			defer writeMetrics(cfg)

			errOut := cmd.ErrOrStderr()
			verbosef(errOut, verbose, "Academic year: %s\n", cfg.AcademicYear)
			verbosef(errOut, verbose, "Fetching from %s\n", cfg.YearURL())

			store, err := openStorage(cfg)
			if err != nil {
				return err
			}

			var previous *catalog.Snapshot
			if newOnly {
				previous, err = store.LoadSnapshot(cfg.AcademicYear)
				if err != nil {
					return fmt.Errorf("loading snapshot: %w", err)
				}
				verbosef(errOut, verbose, "Loaded previous snapshot with %d records\n", len(previous.Records))
			}

			res, err := fetchGrouping(cmd.Context(), cfg, store)
			if err != nil {
				return err
			}

			shown := res.Grouping
			if newOnly {
				shown = catalog.Diff(previous, res.Grouping).Added
			}
			shown = sortGrouping(shown, order)

			result := newOutputResult(cfg, res, shown, newOnly)
			if err := WriteOutput(cmd.OutOrStdout(), result, outFormat, verbose); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}

			if err := store.CreateSnapshotFromGrouping(cfg.AcademicYear, res.Grouping); err != nil {
				return fmt.Errorf("saving snapshot: %w", err)
			}
			verbosef(errOut, verbose, "Saved snapshot in %s\n", store.Dir())

			if newOnly && shown.Total() > 0 {
				return errNewCourses
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or yaml")
	cmd.Flags().StringVar(&sortBy, "sort", string(SortByFetch), "Sort order: fetch, code, title or units")
	cmd.Flags().BoolVar(&newOnly, "new", false, "Only print courses that were not in the previous snapshot")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Print progress and per-course details")
	return cmd
}

func newServeCmd() *cobra.Command {
	var (
		addr      string
		staticDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the last snapshot as an HTML page and a JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, func(c *config.Config) {
				if cmd.Flags().Changed("addr") {
					c.Server.Addr = addr
				}
				if cmd.Flags().Changed("static-dir") {
					c.Server.StaticDir = staticDir
				}
			})
			if err != nil {
				return err
			}

			store, err := openStorage(cfg)
			if err != nil {
				return err
			}
			if !store.HasSnapshot(cfg.AcademicYear) {
				logger.Warn("No snapshot yet, run export or list first", logger.Fields{
					"year":     cfg.AcademicYear,
					"data_dir": store.Dir(),
				})
			}

			srv, err := server.New(server.Options{
				Addr:         cfg.Server.Addr,
				AcademicYear: cfg.AcademicYear,
				CourseURL:    cfg.API.CourseURL,
				StaticDir:    cfg.Server.StaticDir,
				Store:        store,
				Metrics:      logger.DefaultMetrics(),
			})
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}

	defaults := config.Default()
	cmd.Flags().StringVar(&addr, "addr", defaults.Server.Addr, "Listen address")
	cmd.Flags().StringVar(&staticDir, "static-dir", "", "Directory holding a custom styles.css")
	return cmd
}
