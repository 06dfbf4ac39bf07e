package analysis

import (
	"regexp"
	"strconv"
	"strings"
)

// Derived classes are recomputed on every pass and never stored on a Record.

const (
	ClassUnknown = "unknown"
	ClassOther   = "other"
)

var roomPattern = regexp.MustCompile(`(?i)(\d+)\s*(室|房|rooms?\b|bedrooms?\b|beds?\b|br\b)`)

// RoomClasses is the display order of room classes.
var RoomClasses = []string{"1 room", "2 rooms", "3 rooms", "4 rooms", "5+ rooms", ClassOther, ClassUnknown}

// RoomClass buckets a layout descriptor by its room count.
func RoomClass(r *Record) string {
	layout, ok := r.Text(FieldLayout)
	if !ok {
		return ClassUnknown
	}
	m := roomPattern.FindStringSubmatch(layout)
	if m == nil {
		return ClassOther
	}
	n, err := strconv.Atoi(m[1])
	switch {
	case err != nil || n <= 0:
		return ClassOther
	case n == 1:
		return "1 room"
	case n >= 5:
		return "5+ rooms"
	default:
		return strconv.Itoa(n) + " rooms"
	}
}

const (
	FloorLow  = "low"
	FloorMid  = "mid"
	FloorHigh = "high"
)

// FloorClasses is the display order of floor classes.
var FloorClasses = []string{FloorLow, FloorMid, FloorHigh, ClassOther, ClassUnknown}

// FloorClass categorizes a floor descriptor by substring.
func FloorClass(r *Record) string {
	floor, ok := r.Text(FieldFloor)
	if !ok {
		return ClassUnknown
	}
	return floorClassOf(floor)
}

func floorClassOf(floor string) string {
	s := strings.ToLower(floor)
	switch {
	case containsAny(s, "低楼层", "底层", "low"):
		return FloorLow
	case containsAny(s, "中楼层", "中层", "mid"):
		return FloorMid
	case containsAny(s, "高楼层", "顶层", "high", "top"):
		return FloorHigh
	default:
		return ClassOther
	}
}

// AgeBands are right-inclusive upper bounds in years with their labels.
var AgeBands = []Band{
	{Upper: 5, Label: "new (<=5y)"},
	{Upper: 10, Label: "recent (6-10y)"},
	{Upper: 20, Label: "mid-age (11-20y)"},
	{Upper: 30, Label: "old (21-30y)"},
	{Label: "very old (>30y)"},
}

// DaysBands classify days on market.
var DaysBands = []Band{
	{Upper: 30, Label: "fast (<=30d)"},
	{Upper: 60, Label: "normal (31-60d)"},
	{Upper: 90, Label: "slow (61-90d)"},
	{Upper: 180, Label: "difficult (91-180d)"},
	{Label: "stale (>180d)"},
}

// AreaBands are the fixed floor-area segments.
var AreaBands = []Band{
	{Upper: 50, Label: "small"},
	{Upper: 70, Label: "compact"},
	{Upper: 90, Label: "standard"},
	{Upper: 120, Label: "comfortable"},
	{Label: "large"},
}

// Band is a right-inclusive interval ending at Upper. The last band of a
// list has Upper 0 and takes everything above the previous bound.
type Band struct {
	Upper float64
	Label string
}

func classify(bands []Band, v float64) string {
	for i, b := range bands {
		if i == len(bands)-1 || v <= b.Upper {
			return b.Label
		}
	}
	return ""
}

func bandLabels(bands []Band) []string {
	out := make([]string, len(bands))
	for i, b := range bands {
		out[i] = b.Label
	}
	return out
}

// AgeBand classifies a record by building age relative to currentYear.
func AgeBand(r *Record, currentYear int) string {
	y, ok := r.Number(FieldBuildYear)
	if !ok {
		return ClassUnknown
	}
	return classify(AgeBands, float64(currentYear)-y)
}

// DaysBand classifies a record by days on market.
func DaysBand(r *Record) string {
	d, ok := r.Number(FieldDaysOnMarket)
	if !ok {
		return ClassUnknown
	}
	return classify(DaysBands, d)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
