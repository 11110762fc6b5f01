package catalog

import (
	"encoding/json"
	"fmt"
)

// Semesters lists the four teaching terms of an academic year in order
var Semesters = []int{1, 2, 3, 4}

// ValidSemester reports whether n is one of the four teaching terms
func ValidSemester(n int) bool {
	return n >= 1 && n <= len(Semesters)
}

// Grouping maps each semester to its night-course records, in fetch order.
// A Grouping is built once by a Builder and is read-only afterwards: accessors
// return copies.
type Grouping struct {
	bySemester map[int][]Record
}

// Builder accumulates records into a Grouping
type Builder struct {
	bySemester map[int][]Record
	seen       map[string]bool
}

// NewBuilder creates a builder with all four semesters present
func NewBuilder() *Builder {
	b := &Builder{
		bySemester: make(map[int][]Record, len(Semesters)),
		seen:       make(map[string]bool),
	}
	for _, s := range Semesters {
		b.bySemester[s] = make([]Record, 0)
	}
	return b
}

// Add appends a record to its semester. A module is added at most once per semester;
// Add reports whether the record was new.
func (b *Builder) Add(r Record) (bool, error) {
	if !ValidSemester(r.Semester) {
		return false, fmt.Errorf("invalid semester %d for %s", r.Semester, r.ModuleCode)
	}
	id := r.ID()
	if b.seen[id] {
		return false, nil
	}
	b.seen[id] = true
	b.bySemester[r.Semester] = append(b.bySemester[r.Semester], r)
	return true, nil
}

// Build returns the finished Grouping. The builder must not be used afterwards.
func (b *Builder) Build() Grouping {
	g := Grouping{bySemester: b.bySemester}
	b.bySemester = nil
	b.seen = nil
	return g
}

// GroupingOf builds a Grouping from already-projected records, skipping invalid
// semesters and duplicates
func GroupingOf(records []Record) Grouping {
	b := NewBuilder()
	for _, r := range records {
		_, _ = b.Add(r)
	}
	return b.Build()
}

// Records returns a copy of the records for a semester
func (g Grouping) Records(semester int) []Record {
	src := g.bySemester[semester]
	out := make([]Record, len(src))
	copy(out, src)
	return out
}

// Count returns the number of records for a semester
func (g Grouping) Count(semester int) int {
	return len(g.bySemester[semester])
}

// Total returns the number of records across all semesters
func (g Grouping) Total() int {
	total := 0
	for _, s := range Semesters {
		total += len(g.bySemester[s])
	}
	return total
}

// All returns every record, semester by semester
func (g Grouping) All() []Record {
	out := make([]Record, 0, g.Total())
	for _, s := range Semesters {
		out = append(out, g.bySemester[s]...)
	}
	return out
}

// Map returns a copy of the grouping as a plain map keyed by semester
func (g Grouping) Map() map[int][]Record {
	m := make(map[int][]Record, len(Semesters))
	for _, s := range Semesters {
		m[s] = g.Records(s)
	}
	return m
}

// MarshalJSON encodes the grouping as an object keyed by semester number
func (g Grouping) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Map())
}

// MarshalYAML encodes the grouping as a mapping keyed by semester number
func (g Grouping) MarshalYAML() (interface{}, error) {
	return g.Map(), nil
}
