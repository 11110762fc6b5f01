package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
academic_year = "2024-2025"

[api]
base_url = "http://localhost:9999/v2/"

[fetch]
concurrency = 8
timeout = "5s"
retries = 2

[cache]
enabled = true
ttl = "1h"

[filter]
evening_start = "18:30"
semesters = [1, 2]
faculties = ["Computing"]

[export]
format = "xlsx"
output_dir = "out"
detailed = true
`

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, DefaultAcademicYear, c.AcademicYear)
	assert.Equal(t, DefaultBaseURL, c.API.BaseURL)
	assert.Equal(t, "pdf", c.Export.Format)
	assert.Equal(t, DefaultEveningStart, c.Filter.EveningStart)
	assert.Equal(t, 30*time.Second, c.Fetch.Timeout)
	assert.False(t, c.Cache.Enabled)
	require.NoError(t, c.Validate())
}

func TestDecode(t *testing.T) {
	c := Default()
	require.NoError(t, Decode(strings.NewReader(sampleTOML), &c))

	assert.Equal(t, "2024-2025", c.AcademicYear)
	assert.Equal(t, 8, c.Fetch.Concurrency)
	assert.Equal(t, 5*time.Second, c.Fetch.Timeout)
	assert.Equal(t, 2, c.Fetch.Retries)
	assert.True(t, c.Cache.Enabled)
	assert.Equal(t, time.Hour, c.Cache.TTL)
	assert.Equal(t, "18:30", c.Filter.EveningStart)
	assert.Equal(t, []int{1, 2}, c.Filter.Semesters)
	assert.Equal(t, []string{"Computing"}, c.Filter.Faculties)
	assert.Equal(t, "xlsx", c.Export.Format)
	assert.True(t, c.Export.Detailed)

	// Untouched keys keep their defaults
	assert.Equal(t, DefaultCourseURL, c.API.CourseURL)
	assert.Equal(t, "info", c.Log.Level)

	assert.Equal(t, "http://localhost:9999/v2/2024-2025", c.YearURL())
}

func TestDecode_Invalid(t *testing.T) {
	c := Default()
	err := Decode(strings.NewReader("academic_year = "), &c)
	assert.Error(t, err)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "night-courses.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0644))

	t.Setenv("NIGHTCOURSES_ACADEMIC_YEAR", "2025-2026")
	t.Setenv("NIGHTCOURSES_FETCH_CONCURRENCY", "4")
	t.Setenv("NIGHTCOURSES_EXPORT_FORMAT", "html")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "2025-2026", c.AcademicYear)
	assert.Equal(t, 4, c.Fetch.Concurrency)
	assert.Equal(t, "html", c.Export.Format)
	// From the file, not overridden
	assert.Equal(t, 2, c.Fetch.Retries)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoad_NoFile(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAcademicYear, c.AcademicYear)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "bad year format", mutate: func(c *Config) { c.AcademicYear = "2023/2024" }, wantErr: true},
		{name: "non consecutive years", mutate: func(c *Config) { c.AcademicYear = "2023-2025" }, wantErr: true},
		{name: "empty base url", mutate: func(c *Config) { c.API.BaseURL = " " }, wantErr: true},
		{name: "negative concurrency", mutate: func(c *Config) { c.Fetch.Concurrency = -1 }, wantErr: true},
		{name: "unbounded concurrency", mutate: func(c *Config) { c.Fetch.Concurrency = 0 }},
		{name: "no timeout", mutate: func(c *Config) { c.Fetch.Timeout = 0 }},
		{name: "negative retries", mutate: func(c *Config) { c.Fetch.Retries = -2 }, wantErr: true},
		{name: "unknown format", mutate: func(c *Config) { c.Export.Format = "docx" }, wantErr: true},
		{name: "uppercase format", mutate: func(c *Config) { c.Export.Format = "XLSX" }},
		{name: "semester out of range", mutate: func(c *Config) { c.Filter.Semesters = []int{1, 5} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	c := Default()
	dir, err := c.ResolveDataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local/share/night-courses"), dir)

	c.DataDir = "/tmp/nc"
	dir, err = c.ResolveDataDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/nc", dir)
}
