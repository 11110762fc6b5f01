package export

import (
	"embed"
	"html/template"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/pfrederiksen/night-courses/internal/catalog"
)

const (
	HTMLFileName   = "index.html"
	StylesFileName = "styles.css"
)

//go:embed templates
var templateFS embed.FS

// Stylesheet is the default styles.css served next to the page
var Stylesheet, _ = templateFS.ReadFile("templates/" + StylesFileName)

// HTMLExporter writes a static page with one table per semester
type HTMLExporter struct {
	opts Options
}

func (e *HTMLExporter) Format() string { return FormatHTML }

// FileName is always index.html
func (e *HTMLExporter) FileName(now time.Time) string { return HTMLFileName }

type htmlSemester struct {
	Number  int
	Count   int
	Records []catalog.Record
}

type htmlPage struct {
	AcademicYear string
	Detailed     bool
	Total        int
	Semesters    []htmlSemester
}

func (e *HTMLExporter) template() (*template.Template, error) {
	courseURL := e.opts.CourseURL
	return template.New("index.html.tmpl").Funcs(template.FuncMap{
		"courseURL": func(code string) string {
			return courseURL + url.PathEscape(strings.TrimSpace(code))
		},
	}).ParseFS(templateFS, "templates/index.html.tmpl")
}

// Export renders the page
func (e *HTMLExporter) Export(w io.Writer, g catalog.Grouping) error {
	tmpl, err := e.template()
	if err != nil {
		return errors.Wrap(err, "parsing page template")
	}

	page := htmlPage{
		AcademicYear: e.opts.AcademicYear,
		Detailed:     e.opts.Detailed,
		Total:        g.Total(),
	}
	for _, semester := range catalog.Semesters {
		records := g.Records(semester)
		page.Semesters = append(page.Semesters, htmlSemester{
			Number:  semester,
			Count:   len(records),
			Records: records,
		})
	}

	return errors.Wrap(tmpl.Execute(w, page), "rendering page")
}
