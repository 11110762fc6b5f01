package export

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pfrederiksen/night-courses/internal/catalog"
	"github.com/pfrederiksen/night-courses/internal/logger"
)

// EncodingError reports a course line that cannot be rendered as ASCII
type EncodingError struct {
	Text string
	Err  error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding %q: %v", e.Text, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

var errInvalidUTF8 = errors.New("invalid UTF-8")

// PDFExporter writes one A4 page per semester
type PDFExporter struct {
	opts Options
}

func (e *PDFExporter) Format() string { return FormatPDF }

func (e *PDFExporter) FileName(now time.Time) string {
	return FileName(e.opts.AcademicYear, "pdf", e.opts.LegacyName, now)
}

// Export writes the PDF. Lines that fail transliteration are logged and left out.
func (e *PDFExporter) Export(w io.Writer, g catalog.Grouping) error {
	pdf, _ := e.build(g)
	return pdf.Output(w)
}

// build lays out the document and returns it with the number of skipped lines
func (e *PDFExporter) build(g catalog.Grouping) (*fpdf.Fpdf, int) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(fmt.Sprintf("NUS Night Courses %s", e.opts.AcademicYear), false)

	skipped := 0
	for _, semester := range catalog.Semesters {
		records := g.Records(semester)

		pdf.AddPage()
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(200, 10, fmt.Sprintf("Semester %d: %d courses", semester, len(records)), "", 1, "C", false, 0, "")
		pdf.Ln(10)

		for _, r := range records {
			line, err := ToASCII(r.Line())
			if err != nil {
				skipped++
				logger.IncrCounter("export.encoding_errors")
				logger.Error("Error encoding course", logger.Fields{
					"module":   r.ModuleCode,
					"semester": semester,
				}, err)
				continue
			}
			pdf.MultiCell(0, 10, line, "", "", false)
			pdf.Ln(5)
		}
	}
	return pdf, skipped
}

var accentFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ToASCII folds accents ("é" becomes "e") and drops whatever non-ASCII remains.
// Whitespace is kept as single spaces. Invalid UTF-8 is an *EncodingError.
func ToASCII(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", &EncodingError{Text: s, Err: errInvalidUTF8}
	}

	folded, _, err := transform.String(accentFold, s)
	if err != nil {
		return "", &EncodingError{Text: s, Err: err}
	}

	var b strings.Builder
	b.Grow(len(folded))
	space := false
	for _, r := range folded {
		if r >= utf8.RuneSelf {
			continue
		}
		// runs of ASCII whitespace become one space
		if unicode.IsSpace(r) {
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		if unicode.IsPrint(r) {
			b.WriteRune(r)
			space = false
		}
	}
	return b.String(), nil
}
