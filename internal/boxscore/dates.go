package boxscore

import (
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, Jan 2, 2006",
	"2 Jan 2006",
}

// ParseDate tries the date layouts seen in box-score exports.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CompareDates orders dates chronologically. Empty or unparseable dates sort
// before every parseable one and compare among themselves as strings.
func CompareDates(a, b string) int {
	ta, oka := ParseDate(a)
	tb, okb := ParseDate(b)
	switch {
	case oka && okb:
		return ta.Compare(tb)
	case oka:
		return 1
	case okb:
		return -1
	default:
		return strings.Compare(a, b)
	}
}

// CompareWeeks orders numeric weeks numerically and everything else as text,
// numeric weeks first ("2" < "10" < "Bowl").
func CompareWeeks(a, b string) int {
	na, erra := strconv.Atoi(strings.TrimSpace(a))
	nb, errb := strconv.Atoi(strings.TrimSpace(b))
	switch {
	case erra == nil && errb == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case erra == nil:
		return -1
	case errb == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
