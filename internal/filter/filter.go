// Package filter selects night courses from NUSMods module details.
//
// A module qualifies as a night course for a semester when every lesson category it
// offers that semester (lecture-type, tutorial-type) has at least one session starting
// at or after the evening threshold, and it offers at least one of the two categories.
// Lesson types outside both categories are ignored.
//
// Optional criteria narrow the result further:
//   - Semesters: only the listed semesters (1-4)
//   - Faculties: faculty name contains one of the values (case-insensitive)
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.Semesters = []int{1, 2}
//
//	grouping, stats := f.Apply(details)
package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pfrederiksen/night-courses/internal/catalog"
	"github.com/pfrederiksen/night-courses/internal/logger"
)

// DefaultEveningStart is the earliest start time (24h HHMM) of an evening session
const DefaultEveningStart = 1800

// LectureTypes are the lesson types counted as lectures
var LectureTypes = map[string]bool{
	"Lecture":                    true,
	"Design Lecture":             true,
	"Packaged Lecture":           true,
	"Seminar-Style Module Class": true,
	"Sectional Teaching":         true,
}

// TutorialTypes are the lesson types counted as tutorials
var TutorialTypes = map[string]bool{
	"Laboratory":      true,
	"Recitation":      true,
	"Tutorial":        true,
	"Tutorial Type 2": true,
	"Workshop":        true,
}

// Filter represents night-course selection criteria
type Filter struct {
	// Earliest start time of an evening session, as HHMM (1800 = 18:00)
	EveningStart int `json:"evening_start"`

	// Semester filtering (empty = all four)
	Semesters []int `json:"semesters,omitempty"`

	// Faculty filtering (case-insensitive substring match)
	Faculties []string `json:"faculties,omitempty"`
}

// NewFilter creates a filter with the default evening threshold and no extra criteria
func NewFilter() *Filter {
	return &Filter{
		EveningStart: DefaultEveningStart,
		Semesters:    []int{},
		Faculties:    []string{},
	}
}

// IsEmpty reports whether the filter has no criteria beyond the night-course rule
func (f *Filter) IsEmpty() bool {
	return len(f.Semesters) == 0 && len(f.Faculties) == 0
}

// Partition splits a semester timetable into lecture and tutorial sessions
type Partition struct {
	AllLectures      []catalog.LessonSlot
	EveningLectures  []catalog.LessonSlot
	AllTutorials     []catalog.LessonSlot
	EveningTutorials []catalog.LessonSlot
}

// Qualifies reports whether the partition satisfies the night-course rule
func (p Partition) Qualifies() bool {
	lecturesOK := len(p.AllLectures) == 0 || len(p.EveningLectures) > 0
	tutorialsOK := len(p.AllTutorials) == 0 || len(p.EveningTutorials) > 0
	hasSessions := len(p.AllLectures) > 0 || len(p.AllTutorials) > 0
	return lecturesOK && tutorialsOK && hasSessions
}

// Partition classifies the lessons of a timetable. A lesson whose start time is not a
// number still counts toward its category but never as an evening session.
func (f *Filter) Partition(timetable []catalog.LessonSlot) Partition {
	var p Partition
	for _, lesson := range timetable {
		isLecture := LectureTypes[lesson.LessonType]
		isTutorial := TutorialTypes[lesson.LessonType]
		if !isLecture && !isTutorial {
			continue
		}

		evening := f.isEvening(lesson.StartTime)
		if isLecture {
			p.AllLectures = append(p.AllLectures, lesson)
			if evening {
				p.EveningLectures = append(p.EveningLectures, lesson)
			}
		}
		if isTutorial {
			p.AllTutorials = append(p.AllTutorials, lesson)
			if evening {
				p.EveningTutorials = append(p.EveningTutorials, lesson)
			}
		}
	}
	return p
}

func (f *Filter) isEvening(startTime string) bool {
	start, err := strconv.Atoi(strings.TrimSpace(startTime))
	if err != nil {
		logger.Debug("Unparseable lesson start time", logger.Fields{
			"start_time": startTime,
		})
		return false
	}
	return start >= f.EveningStart
}

// Qualifies reports whether a semester timetable makes a night course
func (f *Filter) Qualifies(timetable []catalog.LessonSlot) bool {
	return f.Partition(timetable).Qualifies()
}

// Matches reports whether a module qualifies in the given semester and passes every
// active criterion
func (f *Filter) Matches(detail *catalog.ModuleDetail, entry catalog.SemesterEntry) bool {
	if f.IsEmpty() {
		return f.Qualifies(entry.Timetable)
	}

	if len(f.Semesters) > 0 {
		matched := false
		for _, s := range f.Semesters {
			if s == entry.Semester {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(f.Faculties) > 0 {
		matched := false
		facultyLower := strings.ToLower(detail.Faculty)
		for _, faculty := range f.Faculties {
			if strings.Contains(facultyLower, strings.ToLower(faculty)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return f.Qualifies(entry.Timetable)
}

// Stats summarises one Apply pass
type Stats struct {
	Modules    int         `json:"modules"`
	Absent     int         `json:"absent"`
	Qualifying map[int]int `json:"qualifying"`
	Skipped    int         `json:"skipped"` // semester entries outside 1-4
}

// Apply builds the semester grouping from fetched details. Nil entries (failed
// fetches) contribute nothing. Records keep the order of details.
func (f *Filter) Apply(details []*catalog.ModuleDetail) (catalog.Grouping, Stats) {
	stats := Stats{
		Modules:    len(details),
		Qualifying: make(map[int]int, len(catalog.Semesters)),
	}
	builder := catalog.NewBuilder()

	for _, detail := range details {
		if detail == nil {
			stats.Absent++
			continue
		}

		for _, entry := range detail.SemesterData {
			if !catalog.ValidSemester(entry.Semester) {
				stats.Skipped++
				logger.Warn("Skipping unknown semester", logger.Fields{
					"module":   detail.ModuleCode,
					"semester": entry.Semester,
				})
				continue
			}
			if !f.Matches(detail, entry) {
				continue
			}

			added, err := builder.Add(catalog.NewRecord(detail, entry.Semester))
			if err != nil {
				logger.Warn("Dropping record", logger.Fields{
					"module": detail.ModuleCode,
					"error":  err.Error(),
				})
				continue
			}
			if added {
				stats.Qualifying[entry.Semester]++
			}
		}
	}

	return builder.Build(), stats
}

// String returns a human-readable description of the filter criteria
// Format: "Evening from 18:00 | Semesters: 1, 2 | Faculties: Computing"
func (f *Filter) String() string {
	evening := fmt.Sprintf("Evening from %s", FormatClock(f.EveningStart))
	if f.IsEmpty() {
		return evening
	}

	parts := []string{evening}

	if len(f.Semesters) > 0 {
		semesters := make([]string, len(f.Semesters))
		for i, s := range f.Semesters {
			semesters[i] = strconv.Itoa(s)
		}
		parts = append(parts, fmt.Sprintf("Semesters: %s", strings.Join(semesters, ", ")))
	}

	if len(f.Faculties) > 0 {
		parts = append(parts, fmt.Sprintf("Faculties: %s", strings.Join(f.Faculties, ", ")))
	}

	return strings.Join(parts, " | ")
}
