package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	clockHHMM  = regexp.MustCompile(`^(\d{1,2}):?(\d{2})$`)
	clockHours = regexp.MustCompile(`^(\d{1,2})$`)
)

// ParseEveningStart parses an evening threshold into the HHMM integer the timetable
// uses.
//
// Supported formats:
//   - "1800" or "0930" - 24h clock without separator
//   - "18:00" or "9:30" - 24h clock with separator
//   - "18" - whole hour
func ParseEveningStart(input string) (int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("evening start cannot be empty")
	}

	var hour, minute int
	if matches := clockHHMM.FindStringSubmatch(input); matches != nil {
		hour, _ = strconv.Atoi(matches[1])
		minute, _ = strconv.Atoi(matches[2])
	} else if matches := clockHours.FindStringSubmatch(input); matches != nil {
		hour, _ = strconv.Atoi(matches[1])
	} else {
		return 0, fmt.Errorf("invalid evening start: %q (use HHMM or HH:MM)", input)
	}

	if hour > 23 {
		return 0, fmt.Errorf("invalid hour: %d", hour)
	}
	if minute > 59 {
		return 0, fmt.Errorf("invalid minute: %d", minute)
	}

	return hour*100 + minute, nil
}

// FormatClock renders an HHMM integer as "HH:MM"
func FormatClock(hhmm int) string {
	return fmt.Sprintf("%02d:%02d", hhmm/100, hhmm%100)
}

// ParseSemesters parses a comma-separated semester list such as "1,2" or "3, 4".
// Duplicates are removed; order is preserved.
func ParseSemesters(input string) ([]int, error) {
	semesters := make([]int, 0)
	seen := make(map[int]bool)

	for _, part := range ParseList(input) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid semester: %q", part)
		}
		if n < 1 || n > 4 {
			return nil, fmt.Errorf("invalid semester: %d (must be 1-4)", n)
		}
		if !seen[n] {
			seen[n] = true
			semesters = append(semesters, n)
		}
	}

	return semesters, nil
}

// ParseList splits a comma-separated list, trimming blanks and dropping empty items
func ParseList(input string) []string {
	items := make([]string, 0)
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}
