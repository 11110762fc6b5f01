package catalog

import "time"

// Snapshot is a persisted Grouping for one academic year
type Snapshot struct {
	AcademicYear string            `json:"academic_year"`
	Records      map[string]Record `json:"records"` // keyed by Record.ID
	Order        []string          `json:"order"`   // record IDs in grouping order
	UpdatedAt    string            `json:"updated_at"`
}

// NewSnapshot creates an empty snapshot
func NewSnapshot(year string) *Snapshot {
	return &Snapshot{
		AcademicYear: year,
		Records:      make(map[string]Record),
		Order:        make([]string, 0),
	}
}

// CreateSnapshot captures a grouping
func CreateSnapshot(year string, g Grouping, now time.Time) *Snapshot {
	snap := NewSnapshot(year)
	snap.UpdatedAt = now.UTC().Format(time.RFC3339)
	for _, r := range g.All() {
		id := r.ID()
		snap.Records[id] = r
		snap.Order = append(snap.Order, id)
	}
	return snap
}

// Grouping rebuilds the grouping the snapshot was created from
func (s *Snapshot) Grouping() Grouping {
	records := make([]Record, 0, len(s.Order))
	for _, id := range s.Order {
		if r, ok := s.Records[id]; ok {
			records = append(records, r)
		}
	}
	return GroupingOf(records)
}

// DiffResult holds the records that appeared or disappeared since a previous snapshot
type DiffResult struct {
	Added   Grouping
	Removed []Record
}

// Diff compares the current grouping against a previous snapshot. A nil previous
// snapshot reports every current record as added.
func Diff(previous *Snapshot, current Grouping) *DiffResult {
	if previous == nil {
		previous = NewSnapshot("")
	}

	added := NewBuilder()
	currentIDs := make(map[string]bool, current.Total())
	for _, r := range current.All() {
		id := r.ID()
		currentIDs[id] = true
		if _, exists := previous.Records[id]; !exists {
			_, _ = added.Add(r)
		}
	}

	removed := make([]Record, 0)
	for _, id := range previous.Order {
		if currentIDs[id] {
			continue
		}
		if r, ok := previous.Records[id]; ok {
			removed = append(removed, r)
		}
	}

	return &DiffResult{
		Added:   added.Build(),
		Removed: removed,
	}
}
