package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/pfrederiksen/night-courses/internal/catalog"
	"github.com/pfrederiksen/night-courses/internal/logger"
)

const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
	FormatHTML = "html"

	DefaultCourseURL = "https://nusmods.com/courses/"
)

// Formats lists every supported format
var Formats = []string{FormatPDF, FormatXLSX, FormatHTML}

// Exporter renders a grouping in one format
type Exporter interface {
	// Format returns the format name, e.g. "pdf"
	Format() string

	// FileName returns the artifact file name for a run at the given time
	FileName(now time.Time) string

	// Export writes the rendered document to w
	Export(w io.Writer, g catalog.Grouping) error
}

// Options configures every exporter
type Options struct {
	AcademicYear string

	// Detailed adds faculty and department columns (xlsx, html)
	Detailed bool

	// LegacyName drops the academic year from pdf and xlsx file names
	LegacyName bool

	// CourseURL prefixes module codes in html links
	CourseURL string
}

// New returns the exporter for a format name (case-insensitive)
func New(format string, opts Options) (Exporter, error) {
	if opts.CourseURL == "" {
		opts.CourseURL = DefaultCourseURL
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatPDF:
		return &PDFExporter{opts: opts}, nil
	case FormatXLSX:
		return &XLSXExporter{opts: opts}, nil
	case FormatHTML:
		return &HTMLExporter{opts: opts}, nil
	default:
		return nil, errors.Errorf("unknown export format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// WriteFile exports the grouping into dir and returns the written path. The file is
// written to a temporary name first and renamed once complete.
func WriteFile(e Exporter, dir string, g catalog.Grouping, now time.Time) (string, error) {
	start := time.Now()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, "creating output directory")
	}

	path := filepath.Join(dir, e.FileName(now))
	tmpPath := path + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", errors.Wrap(err, "creating output file")
	}

	if err := e.Export(f, g); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", errors.Wrapf(err, "exporting %s", e.Format())
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", errors.Wrap(err, "closing output file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", errors.Wrap(err, "renaming output file")
	}

	logger.IncrCounter("export." + e.Format())
	logger.RecordTiming("export."+e.Format(), time.Since(start))
	logger.Info("Exported night courses", logger.Fields{
		"format":  e.Format(),
		"path":    path,
		"courses": g.Total(),
	})
	return path, nil
}

// FileName builds "NUS_Night_Courses_{year}_CAA_{DD_Mon}.{ext}", or the legacy
// "NUS_Night_Courses_CAA_{DD_Mon}.{ext}" when legacy is set or the year is unknown
func FileName(academicYear, ext string, legacy bool, now time.Time) string {
	day := now.Format("02_Jan")
	if legacy || academicYear == "" {
		return fmt.Sprintf("NUS_Night_Courses_CAA_%s.%s", day, ext)
	}
	return fmt.Sprintf("NUS_Night_Courses_%s_CAA_%s.%s", academicYear, day, ext)
}
