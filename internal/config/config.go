// Package config loads night-courses settings.
//
// Settings are layered: built-in defaults, then an optional TOML file, then
// NIGHTCOURSES_* environment variables. The CLI applies its flags on top and calls
// Validate before any network I/O.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"

	"github.com/pfrederiksen/night-courses/internal/export"
	"github.com/pfrederiksen/night-courses/internal/nusmods"
)

// EnvPrefix is the prefix of environment overrides, e.g. NIGHTCOURSES_FETCH_CONCURRENCY.
// Field names are split on word boundaries: AcademicYear is NIGHTCOURSES_ACADEMIC_YEAR.
const EnvPrefix = "NIGHTCOURSES"

const (
	DefaultBaseURL      = nusmods.DefaultBaseURL
	DefaultAcademicYear = "2023-2024"
	DefaultCourseURL    = export.DefaultCourseURL
	DefaultDataDir      = "~/.local/share/night-courses"
	DefaultEveningStart = "1800"
)

var academicYearPattern = regexp.MustCompile(`^(\d{4})-(\d{4})$`)

// Config holds all night-courses settings
type Config struct {
	AcademicYear string `toml:"academic_year" split_words:"true"`
	DataDir      string `toml:"data_dir" split_words:"true"`

	API    API    `toml:"api" split_words:"true"`
	Fetch  Fetch  `toml:"fetch" split_words:"true"`
	Cache  Cache  `toml:"cache" split_words:"true"`
	Filter Filter `toml:"filter" split_words:"true"`
	Export Export `toml:"export" split_words:"true"`
	Log    Log    `toml:"log" split_words:"true"`
	Server Server `toml:"server" split_words:"true"`
}

// API configures the upstream NUSMods endpoints
type API struct {
	BaseURL   string `toml:"base_url" split_words:"true"`
	CourseURL string `toml:"course_url" split_words:"true"`
}

// Fetch configures the per-module fan-out
type Fetch struct {
	Concurrency int           `toml:"concurrency" split_words:"true"` // 0 = unbounded
	Timeout     time.Duration `toml:"timeout" split_words:"true"`     // 0 = none
	Retries     int           `toml:"retries" split_words:"true"`
}

// Cache configures the module detail cache
type Cache struct {
	Enabled bool          `toml:"enabled" split_words:"true"`
	TTL     time.Duration `toml:"ttl" split_words:"true"`
}

// Filter configures night-course selection
type Filter struct {
	EveningStart string   `toml:"evening_start" split_words:"true"`
	Semesters    []int    `toml:"semesters" split_words:"true"`
	Faculties    []string `toml:"faculties" split_words:"true"`
}

// Export configures the output artifact
type Export struct {
	Format     string `toml:"format" split_words:"true"`
	OutputDir  string `toml:"output_dir" split_words:"true"`
	Detailed   bool   `toml:"detailed" split_words:"true"`
	LegacyName bool   `toml:"legacy_name" split_words:"true"`
}

// Log configures logging and metrics output
type Log struct {
	Level       string `toml:"level" split_words:"true"`
	MetricsFile string `toml:"metrics_file" split_words:"true"`
}

// Server configures the preview server
type Server struct {
	Addr      string `toml:"addr" split_words:"true"`
	StaticDir string `toml:"static_dir" split_words:"true"`
}

// Default returns the built-in settings, which reproduce a plain run of the tool
func Default() Config {
	return Config{
		AcademicYear: DefaultAcademicYear,
		DataDir:      DefaultDataDir,
		API: API{
			BaseURL:   DefaultBaseURL,
			CourseURL: DefaultCourseURL,
		},
		Fetch: Fetch{
			Concurrency: nusmods.DefaultConcurrency,
			Timeout:     nusmods.Timeout,
		},
		Cache: Cache{
			TTL: nusmods.DefaultCacheTTL,
		},
		Filter: Filter{
			EveningStart: DefaultEveningStart,
		},
		Export: Export{
			Format:    export.FormatPDF,
			OutputDir: ".",
		},
		Log: Log{
			Level: "info",
		},
		Server: Server{
			Addr: ":8080",
		},
	}
}

// Load builds the configuration from defaults, the optional TOML file at path and the
// environment. An empty path skips the file.
func Load(path string) (Config, error) {
	c := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return c, fmt.Errorf("opening config file: %w", err)
		}
		defer f.Close()

		if err := Decode(f, &c); err != nil {
			return c, err
		}
	}

	if err := c.FromEnvironment(); err != nil {
		return c, err
	}

	return c, nil
}

// Decode reads TOML settings from r on top of c
func Decode(r io.Reader, c *Config) error {
	if _, err := toml.NewDecoder(r).Decode(c); err != nil {
		return fmt.Errorf("decoding config file: %w", err)
	}
	return nil
}

// FromEnvironment applies NIGHTCOURSES_* overrides
func (c *Config) FromEnvironment() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	return nil
}

// Validate checks the settings that would otherwise fail late
func (c *Config) Validate() error {
	m := academicYearPattern.FindStringSubmatch(c.AcademicYear)
	if m == nil {
		return fmt.Errorf("invalid academic year %q (want YYYY-YYYY)", c.AcademicYear)
	}
	var start, end int
	fmt.Sscanf(m[1], "%d", &start)
	fmt.Sscanf(m[2], "%d", &end)
	if end != start+1 {
		return fmt.Errorf("invalid academic year %q (years must be consecutive)", c.AcademicYear)
	}

	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api base_url is required")
	}
	if c.Fetch.Concurrency < 0 {
		return fmt.Errorf("fetch concurrency must be >= 0, got %d", c.Fetch.Concurrency)
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch timeout must be >= 0, got %s", c.Fetch.Timeout)
	}
	if c.Fetch.Retries < 0 {
		return fmt.Errorf("fetch retries must be >= 0, got %d", c.Fetch.Retries)
	}

	switch strings.ToLower(c.Export.Format) {
	case "pdf", "xlsx", "html":
	default:
		return fmt.Errorf("invalid export format: %s (must be 'pdf', 'xlsx' or 'html')", c.Export.Format)
	}

	for _, s := range c.Filter.Semesters {
		if s < 1 || s > 4 {
			return fmt.Errorf("invalid semester %d (must be 1-4)", s)
		}
	}

	return nil
}

// ResolveDataDir expands a leading ~/ in the data directory
func (c *Config) ResolveDataDir() (string, error) {
	dir := c.DataDir
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return dir, nil
}

// YearURL returns the API base for the configured academic year
func (c *Config) YearURL() string {
	return strings.TrimRight(c.API.BaseURL, "/") + "/" + c.AcademicYear
}
