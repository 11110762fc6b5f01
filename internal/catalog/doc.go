// Package catalog holds the NUSMods data model used by night-courses.
//
// It defines the upstream records (module summaries, module details, semester
// timetables), the projected night-course Record, the semester Grouping built by the
// filter, and snapshots of a Grouping that can be persisted and diffed across runs to
// report newly-listed night courses.
package catalog
