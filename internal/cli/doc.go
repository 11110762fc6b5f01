// Package cli implements the command-line interface for night-courses.
//
// The cli package provides the Cobra-based CLI with three commands: export (write a
// PDF, XLSX or HTML artifact), list (print the grouping as text, JSON or YAML, sorted
// and optionally limited to courses new since the last run) and serve (preview the
// last snapshot over HTTP). It loads the layered configuration, applies flag overrides,
// and coordinates the nusmods, filter, export and storage packages.
package cli
