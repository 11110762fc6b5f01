package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pfrederiksen/night-courses/internal/catalog"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByFetch SortOrder = "fetch"
	SortByCode  SortOrder = "code"
	SortByTitle SortOrder = "title"
	SortByUnits SortOrder = "units"
)

func parseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(s))); order {
	case SortByFetch, SortByCode, SortByTitle, SortByUnits:
		return order, nil
	case "":
		return SortByFetch, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'fetch', 'code', 'title' or 'units')", s)
	}
}

// sortGrouping returns a grouping with each semester's records sorted
func sortGrouping(g catalog.Grouping, order SortOrder) catalog.Grouping {
	if order == SortByFetch {
		return g
	}
	records := make([]catalog.Record, 0, g.Total())
	for _, s := range catalog.Semesters {
		semester := g.Records(s)
		sortRecords(semester, order)
		records = append(records, semester...)
	}
	return catalog.GroupingOf(records)
}

// sortRecords sorts records in place. Fetch order leaves them untouched.
func sortRecords(records []catalog.Record, order SortOrder) {
	switch order {
	case SortByCode:
		sort.SliceStable(records, func(i, j int) bool {
			return compareByCode(records[i], records[j])
		})
	case SortByTitle:
		sort.SliceStable(records, func(i, j int) bool {
			ti, tj := strings.ToLower(records[i].Title), strings.ToLower(records[j].Title)
			if ti != tj {
				return ti < tj
			}
			return compareByCode(records[i], records[j])
		})
	case SortByUnits:
		sort.SliceStable(records, func(i, j int) bool {
			return compareByUnits(records[i], records[j])
		})
	}
}

func compareByCode(i, j catalog.Record) bool {
	return strings.ToUpper(strings.TrimSpace(i.ModuleCode)) < strings.ToUpper(strings.TrimSpace(j.ModuleCode))
}

// compareByUnits orders by descending credit. Non-numeric credits go last.
func compareByUnits(i, j catalog.Record) bool {
	ui, errI := strconv.ParseFloat(strings.TrimSpace(i.ModuleCredit), 64)
	uj, errJ := strconv.ParseFloat(strings.TrimSpace(j.ModuleCredit), 64)

	switch {
	case errI == nil && errJ == nil:
		if ui != uj {
			return ui > uj
		}
	case errI == nil:
		return true
	case errJ == nil:
		return false
	}
	return compareByCode(i, j)
}
