package catalog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRecord_Line(t *testing.T) {
	r := Record{ModuleCode: "CS1010", ModuleCredit: "4", Title: "Programming Methodology"}
	want := "CS1010 [4 Units]: Programming Methodology"
	if got := r.Line(); got != want {
		t.Errorf("Line() = %q, want %q", got, want)
	}
}

func TestRecord_ID(t *testing.T) {
	a := Record{ModuleCode: "CS1010", Semester: 1}
	b := Record{ModuleCode: " cs1010 ", Semester: 1, Title: "changed"}
	c := Record{ModuleCode: "CS1010", Semester: 2}

	if a.ID() != b.ID() {
		t.Errorf("ID() differs for the same module and semester")
	}
	if a.ID() == c.ID() {
		t.Errorf("ID() should differ across semesters")
	}
}

func TestBuilder(t *testing.T) {
	b := NewBuilder()

	tests := []struct {
		name    string
		record  Record
		wantNew bool
		wantErr bool
	}{
		{name: "first record", record: Record{ModuleCode: "CS1010", Semester: 1}, wantNew: true},
		{name: "same module other semester", record: Record{ModuleCode: "CS1010", Semester: 2}, wantNew: true},
		{name: "duplicate", record: Record{ModuleCode: "CS1010", Semester: 1}, wantNew: false},
		{name: "invalid semester", record: Record{ModuleCode: "CS1010", Semester: 5}, wantErr: true},
		{name: "zero semester", record: Record{ModuleCode: "CS1010", Semester: 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			added, err := b.Add(tt.record)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Add() error = %v, wantErr %v", err, tt.wantErr)
			}
			if added != tt.wantNew {
				t.Errorf("Add() = %v, want %v", added, tt.wantNew)
			}
		})
	}

	g := b.Build()
	if g.Count(1) != 1 || g.Count(2) != 1 || g.Count(3) != 0 || g.Count(4) != 0 {
		t.Errorf("unexpected counts: %v", g.Map())
	}
	if g.Total() != 2 {
		t.Errorf("Total() = %d, want 2", g.Total())
	}
}

func TestGrouping_RecordsIsCopy(t *testing.T) {
	g := GroupingOf([]Record{{ModuleCode: "CS1010", Title: "PM", Semester: 1}})

	got := g.Records(1)
	got[0].Title = "mutated"

	if g.Records(1)[0].Title != "PM" {
		t.Error("Records() returned a view into the grouping")
	}
}

func TestGrouping_AllSemestersPresent(t *testing.T) {
	g := GroupingOf(nil)
	m := g.Map()
	for _, s := range Semesters {
		recs, ok := m[s]
		if !ok {
			t.Errorf("semester %d missing", s)
		}
		if recs == nil {
			t.Errorf("semester %d has nil slice", s)
		}
	}
}

func TestGrouping_MarshalJSON(t *testing.T) {
	g := GroupingOf([]Record{{ModuleCode: "CS1010", ModuleCredit: "4", Title: "PM", Semester: 2}})

	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string][]Record
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(decoded["1"]) != 0 || len(decoded["2"]) != 1 {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestSnapshot_RoundTripGrouping(t *testing.T) {
	records := []Record{
		{ModuleCode: "B", Semester: 1},
		{ModuleCode: "A", Semester: 1},
		{ModuleCode: "C", Semester: 3},
	}
	g := GroupingOf(records)

	snap := CreateSnapshot("2023-2024", g, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	if snap.UpdatedAt != "2024-01-02T03:04:05Z" {
		t.Errorf("UpdatedAt = %q", snap.UpdatedAt)
	}

	if diff := cmp.Diff(g.Map(), snap.Grouping().Map()); diff != "" {
		t.Errorf("grouping mismatch (-want +got):\n%s", diff)
	}
}

func TestDiff(t *testing.T) {
	old := GroupingOf([]Record{
		{ModuleCode: "CS1010", Semester: 1},
		{ModuleCode: "MA1521", Semester: 2},
	})
	prev := CreateSnapshot("2023-2024", old, time.Now())

	current := GroupingOf([]Record{
		{ModuleCode: "CS1010", Semester: 1},
		{ModuleCode: "CS2030", Semester: 1},
		{ModuleCode: "MA1521", Semester: 3},
	})

	result := Diff(prev, current)

	if got := result.Added.Total(); got != 2 {
		t.Fatalf("Added.Total() = %d, want 2", got)
	}
	if r := result.Added.Records(1); len(r) != 1 || r[0].ModuleCode != "CS2030" {
		t.Errorf("Added semester 1 = %v", r)
	}
	if r := result.Added.Records(3); len(r) != 1 || r[0].ModuleCode != "MA1521" {
		t.Errorf("Added semester 3 = %v", r)
	}
	if len(result.Removed) != 1 || result.Removed[0].Semester != 2 {
		t.Errorf("Removed = %v", result.Removed)
	}
}

func TestDiff_NilPrevious(t *testing.T) {
	current := GroupingOf([]Record{{ModuleCode: "CS1010", Semester: 1}})

	result := Diff(nil, current)
	if result.Added.Total() != 1 {
		t.Errorf("Added.Total() = %d, want 1", result.Added.Total())
	}
	if len(result.Removed) != 0 {
		t.Errorf("Removed = %v, want empty", result.Removed)
	}
}
