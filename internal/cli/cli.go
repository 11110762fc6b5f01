package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/night-courses/internal/config"
	"github.com/pfrederiksen/night-courses/internal/filter"
	"github.com/pfrederiksen/night-courses/internal/logger"
)

const (
	ExitSuccess    = 0
	ExitError      = 1
	ExitNewCourses = 2
)

// errNewCourses signals that list --new found courses absent from the previous snapshot
var errNewCourses = errors.New("new night courses found")

var (
	flagConfig       string
	flagYear         string
	flagBaseURL      string
	flagConcurrency  int
	flagTimeout      time.Duration
	flagRetries      int
	flagDataDir      string
	flagEveningStart string
	flagSemesters    string
	flagFaculty      string
	flagCache        bool
	flagLogLevel     string
	flagMetricsFile  string
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "night-courses",
		Short: "Find NUS modules that can be taken entirely in the evening",
		Long: `A CLI tool that fetches the NUSMods catalog for an academic year, keeps the modules
whose lecture and tutorial options all include an evening slot, and exports them per
semester as a PDF, an Excel workbook or an HTML page.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaults := config.Default()
	flags := cmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "Path to a TOML config file")
	flags.StringVar(&flagYear, "year", defaults.AcademicYear, "Academic year, e.g. 2023-2024")
	flags.StringVar(&flagBaseURL, "base-url", defaults.API.BaseURL, "NUSMods API base URL")
	flags.IntVar(&flagConcurrency, "concurrency", defaults.Fetch.Concurrency, "Maximum in-flight module requests (0 = unbounded)")
	flags.DurationVar(&flagTimeout, "timeout", defaults.Fetch.Timeout, "Per-request timeout (0 = none)")
	flags.IntVar(&flagRetries, "retries", defaults.Fetch.Retries, "Retries per request on network errors, 429 and 5xx")
	flags.StringVar(&flagDataDir, "data-dir", defaults.DataDir, "Data directory for snapshots and the detail cache")
	flags.StringVar(&flagEveningStart, "evening-start", defaults.Filter.EveningStart, "Earliest evening start time (1800, 18:00 or 18)")
	flags.StringVar(&flagSemesters, "semesters", "", "Comma-separated semesters to keep (1-4)")
	flags.StringVar(&flagFaculty, "faculty", "", "Comma-separated faculty names to keep (substring match)")
	flags.BoolVar(&flagCache, "cache", defaults.Cache.Enabled, "Reuse module details fetched within the cache TTL")
	flags.StringVar(&flagLogLevel, "log-level", defaults.Log.Level, "Log level: debug, info, warn or error")
	flags.StringVar(&flagMetricsFile, "metrics-file", "", "Write Prometheus metrics to this file when done")

	cmd.AddCommand(newExportCmd(), newListCmd(), newServeCmd())
	return cmd
}

// loadConfig layers defaults, the config file, the environment and explicitly set
// flags, then validates the result and configures logging. override applies the
// subcommand's own flags before validation.
func loadConfig(cmd *cobra.Command, override func(*config.Config)) (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("year") {
		cfg.AcademicYear = flagYear
	}
	if flags.Changed("base-url") {
		cfg.API.BaseURL = flagBaseURL
	}
	if flags.Changed("concurrency") {
		cfg.Fetch.Concurrency = flagConcurrency
	}
	if flags.Changed("timeout") {
		cfg.Fetch.Timeout = flagTimeout
	}
	if flags.Changed("retries") {
		cfg.Fetch.Retries = flagRetries
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = flagDataDir
	}
	if flags.Changed("evening-start") {
		cfg.Filter.EveningStart = flagEveningStart
	}
	if flags.Changed("semesters") {
		semesters, err := filter.ParseSemesters(flagSemesters)
		if err != nil {
			return cfg, fmt.Errorf("invalid --semesters: %w", err)
		}
		cfg.Filter.Semesters = semesters
	}
	if flags.Changed("faculty") {
		cfg.Filter.Faculties = filter.ParseList(flagFaculty)
	}
	if flags.Changed("cache") {
		cfg.Cache.Enabled = flagCache
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = flagLogLevel
	}
	if flags.Changed("metrics-file") {
		cfg.Log.MetricsFile = flagMetricsFile
	}
	if override != nil {
		override(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if _, err := filter.ParseEveningStart(cfg.Filter.EveningStart); err != nil {
		return cfg, fmt.Errorf("invalid evening start: %w", err)
	}

	// Logs go to stderr so stdout carries only command output
	logger.SetDefault(logger.New(logger.ParseLevel(cfg.Log.Level), cmd.ErrOrStderr()))
	return cfg, nil
}

// writeMetrics writes the metrics textfile when one is configured
func writeMetrics(cfg config.Config) {
	if cfg.Log.MetricsFile == "" {
		return
	}
	if err := logger.DefaultMetrics().WriteTextfile(cfg.Log.MetricsFile); err != nil {
		logger.Error("Failed to write metrics file", logger.Fields{"path": cfg.Log.MetricsFile}, err)
	}
}

func verbosef(w io.Writer, verbose bool, format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(w, format, args...)
	}
}

// exitCode maps a command error to the process exit code
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errNewCourses):
		return ExitNewCourses
	default:
		return ExitError
	}
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	code := exitCode(err)
	if code == ExitError {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}

func normalizeFormat(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}
