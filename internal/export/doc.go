// Package export renders a night-course grouping to a single document.
//
// Three formats are supported, each behind the Exporter interface:
//   - pdf:  one page per semester, a centered header and one line per course
//   - xlsx: one sheet per semester with Code, Units and Name columns
//   - html: one static page with a table per semester, styled by an external styles.css
//
// Exporters only read the grouping. Example usage:
//
//	exp, err := export.New("xlsx", export.Options{AcademicYear: "2023-2024"})
//	if err != nil {
//		return err
//	}
//	path, err := export.WriteFile(exp, outputDir, grouping, time.Now())
package export
