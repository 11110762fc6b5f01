package catalog

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
)

// ModuleSummary is one entry of the catalog listing
type ModuleSummary struct {
	ModuleCode string `json:"moduleCode"`
	Title      string `json:"title,omitempty"`
}

// LessonSlot is a single timetabled lesson of a module
type LessonSlot struct {
	ClassNo    string `json:"classNo,omitempty"`
	LessonType string `json:"lessonType"`
	Day        string `json:"day,omitempty"`
	StartTime  string `json:"startTime"` // 24h "HHMM"
	EndTime    string `json:"endTime,omitempty"`
	Venue      string `json:"venue,omitempty"`
}

// SemesterEntry is the timetable of a module for one semester
type SemesterEntry struct {
	Semester  int          `json:"semester"`
	Timetable []LessonSlot `json:"timetable"`
}

// ModuleDetail is the full record of a module
type ModuleDetail struct {
	ModuleCode   string          `json:"moduleCode"`
	ModuleCredit string          `json:"moduleCredit"`
	Title        string          `json:"title"`
	Faculty      string          `json:"faculty"`
	Department   string          `json:"department"`
	SemesterData []SemesterEntry `json:"semesterData"`
}

// Record is the exported projection of a module that qualifies as a night course
// in a given semester
type Record struct {
	ModuleCode   string `json:"module_code" yaml:"module_code"`
	Title        string `json:"title" yaml:"title"`
	ModuleCredit string `json:"module_credit" yaml:"module_credit"`
	Faculty      string `json:"faculty,omitempty" yaml:"faculty,omitempty"`
	Department   string `json:"department,omitempty" yaml:"department,omitempty"`
	Semester     int    `json:"semester" yaml:"semester"`
}

// NewRecord projects a module detail into a Record for the given semester
func NewRecord(detail *ModuleDetail, semester int) Record {
	return Record{
		ModuleCode:   detail.ModuleCode,
		Title:        detail.Title,
		ModuleCredit: detail.ModuleCredit,
		Faculty:      detail.Faculty,
		Department:   detail.Department,
		Semester:     semester,
	}
}

// ID returns a deterministic identifier for the record, stable across runs
func (r Record) ID() string {
	h := sha1.New()
	h.Write([]byte(fmt.Sprintf("%d|%s", r.Semester, strings.ToUpper(strings.TrimSpace(r.ModuleCode)))))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Line renders the record the way the console summary and the PDF print it
func (r Record) Line() string {
	return fmt.Sprintf("%s [%s Units]: %s", r.ModuleCode, r.ModuleCredit, r.Title)
}

// CachedDetail is a module detail together with the time it was fetched
type CachedDetail struct {
	Detail   *ModuleDetail `json:"detail"`
	CachedAt time.Time     `json:"cached_at"`
}
