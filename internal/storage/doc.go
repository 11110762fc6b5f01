// Package storage provides JSON-based persistence for night-course snapshots.
//
// The storage package manages local files that survive between runs: one snapshot of
// the exported semester grouping per academic year (snapshot_YYYY-YYYY.json), used to
// report newly-listed night courses and to back the preview server, and an optional
// module detail cache (details_YYYY-YYYY.json). The default storage location is
// ~/.local/share/night-courses/.
package storage
