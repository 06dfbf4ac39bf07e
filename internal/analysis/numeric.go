package analysis

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"
)

// NumberFormat pins locale separators. Zero values auto-detect per cell.
type NumberFormat struct {
	Decimal   rune
	Thousands rune
}

// missingMarkers are cell texts treated as an absent value.
var missingMarkers = map[string]struct{}{
	"":     {},
	"nan":  {},
	"na":   {},
	"n/a":  {},
	"#n/a": {},
	"<na>": {},
	"nat":  {},
	"null": {},
	"none": {},
	"-":    {},
	"--":   {},
	"暂无数据": {},
	"暂无":   {},
}

// IsMissing reports whether a raw cell should be read as a missing value.
func IsMissing(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	_, ok := missingMarkers[s]
	return ok
}

// unitSuffixes are stripped from the end of numeric cells, longest first.
var unitSuffixes = []string{
	"元/平方米", "元/平米", "元/㎡", "元/m²", "元/m2", "元/平",
	"平方米", "万元", "年建成", "年建", "平米", "m²", "m2", "sqm",
	"㎡", "万", "元", "天", "人", "年", "平",
}

// parseNumeric converts a raw cell into a float. It folds full-width
// characters, strips a trailing unit suffix and auto-detects separators.
func parseNumeric(s string, nf NumberFormat) (float64, bool) {
	raw := width.Narrow.String(strings.TrimSpace(s))
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	for _, suf := range unitSuffixes {
		if strings.HasSuffix(raw, suf) {
			raw = strings.TrimSpace(strings.TrimSuffix(raw, suf))
			break
		}
	}
	raw = strings.TrimSuffix(raw, "%")
	if raw == "" {
		return 0, false
	}
	dec := nf.Decimal
	thou := nf.Thousands
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0:
			// "12,345" and "1,234,567" are grouped integers; "0,5" is a decimal.
			if strings.Count(raw, ",") > 1 || len(raw)-cpos-1 == 3 {
				dec, thou = '.', ','
			} else {
				dec = ','
			}
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var dateLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "2006.01.02", "2006-1-2", "2006/1/2", "2006.1.2",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "2006/01/02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	"2006年1月2日", "2006年01月02日", "2006-01", "2006/01", "2006.01", "2006年1月", "01/02/2006", "1/2/2006",
}

func parseTimeMaybe(s string) (time.Time, bool) {
	s = width.Narrow.String(strings.TrimSpace(s))
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := sortedCopy(vals)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

// robustOutliers counts values whose MAD z-score exceeds threshold.
func robustOutliers(vals []float64, threshold float64) int {
	if len(vals) < 3 {
		return 0
	}
	med, mad := medianMAD(vals)
	if mad == 0 {
		return 0
	}
	n := 0
	for _, v := range vals {
		if math.Abs(0.6745*(v-med)/mad) > threshold {
			n++
		}
	}
	return n
}

// quantile interpolates linearly between closest ranks of a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func sortedCopy(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}

func sum(vals []float64) float64 {
	s := 0.0
	for _, v := range vals {
		s += v
	}
	return s
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return sum(vals) / float64(len(vals))
}

func median(vals []float64) float64 { return quantile(sortedCopy(vals), 0.5) }

// sampleStd uses Welford's update and the n-1 denominator.
func sampleStd(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var m, m2 float64
	for i, x := range vals {
		d := x - m
		m += d / float64(i+1)
		m2 += d * (x - m)
	}
	return math.Sqrt(m2 / float64(len(vals)-1))
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

func round2(x float64) float64 { return round(x, 2) }

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func finiteOnly(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func allFinite(vals []float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
