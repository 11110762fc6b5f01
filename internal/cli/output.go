package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/night-courses/internal/catalog"
	"github.com/pfrederiksen/night-courses/internal/config"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
)

// SemesterOutput is one semester of the listing
type SemesterOutput struct {
	Semester int              `json:"semester" yaml:"semester"`
	Count    int              `json:"count" yaml:"count"`
	Courses  []catalog.Record `json:"courses" yaml:"courses"`
}

// OutputResult contains data to be output
type OutputResult struct {
	AcademicYear string           `json:"academic_year" yaml:"academic_year"`
	CheckedAt    time.Time        `json:"checked_at" yaml:"checked_at"`
	Filter       string           `json:"filter" yaml:"filter"`
	NewOnly      bool             `json:"new_only,omitempty" yaml:"new_only,omitempty"`
	Modules      int              `json:"modules" yaml:"modules"`
	Absent       int              `json:"absent" yaml:"absent"`
	Total        int              `json:"total" yaml:"total"`
	Semesters    []SemesterOutput `json:"semesters" yaml:"semesters"`
}

func newOutputResult(cfg config.Config, res *runResult, g catalog.Grouping, newOnly bool) *OutputResult {
	result := &OutputResult{
		AcademicYear: cfg.AcademicYear,
		CheckedAt:    time.Now().UTC(),
		Filter:       res.Filter.String(),
		NewOnly:      newOnly,
		Modules:      res.Stats.Modules,
		Absent:       res.Stats.Absent,
		Total:        g.Total(),
	}
	for _, s := range catalog.Semesters {
		records := g.Records(s)
		result.Semesters = append(result.Semesters, SemesterOutput{
			Semester: s,
			Count:    len(records),
			Courses:  records,
		})
	}
	return result
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatYAML:
		return writeYAML(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeYAML outputs results as YAML
func writeYAML(w io.Writer, result *OutputResult) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(result); err != nil {
		return err
	}
	return encoder.Close()
}

// writeText prints each semester as "Semester n: count courses" followed by one
// line per course and a blank line
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if result.NewOnly && result.Total == 0 {
		fmt.Fprintln(w, "No new night courses found.")
		return nil
	}

	for _, sem := range result.Semesters {
		if result.NewOnly && sem.Count == 0 {
			continue
		}

		fmt.Fprintf(w, "Semester %d: %d courses\n", sem.Semester, sem.Count)
		for _, r := range sem.Courses {
			if result.NewOnly {
				fmt.Fprintf(w, "NEW: %s\n", r.Line())
			} else {
				fmt.Fprintln(w, r.Line())
			}
			if verbose {
				if r.Faculty != "" {
					fmt.Fprintf(w, "     Faculty: %s\n", r.Faculty)
				}
				if r.Department != "" {
					fmt.Fprintf(w, "     Department: %s\n", r.Department)
				}
				fmt.Fprintf(w, "     ID: %s\n", r.ID())
			}
		}
		fmt.Fprintln(w)
	}

	if verbose {
		fmt.Fprintf(w, "Filter: %s\n", result.Filter)
		fmt.Fprintf(w, "Checked %d modules (%d unavailable)\n", result.Modules, result.Absent)
	}
	return nil
}
