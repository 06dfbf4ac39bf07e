package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CleanOptions controls value coercion during cleaning.
type CleanOptions struct {
	// CurrentYear is the upper build-year bound. 0 uses the clock.
	CurrentYear int
	// Numbers pins locale separators; zero values auto-detect per cell.
	Numbers NumberFormat
	// OutlierThreshold is the robust |z| above which a valid value is
	// counted as an outlier in the quality report. Values are kept.
	OutlierThreshold float64
}

// DefaultCleanOptions returns the options used when none are given.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{OutlierThreshold: 3.5}
}

// recordNamespace seeds deterministic record IDs.
var recordNamespace = uuid.MustParse("6f1c3c52-8d0e-4f5c-9a57-2b7d3f0e4a11")

// bound is a plausibility interval. Upper is +Inf when unbounded.
type bound struct {
	lower     float64
	lowerOpen bool
	upper     float64
}

func (b bound) contains(v float64) bool {
	if b.lowerOpen && v <= b.lower {
		return false
	}
	if !b.lowerOpen && v < b.lower {
		return false
	}
	return v <= b.upper
}

func (b bound) String() string {
	open := "["
	if b.lowerOpen {
		open = "("
	}
	hi := "∞)"
	if !math.IsInf(b.upper, 1) {
		hi = formatNumber(b.upper) + "]"
	}
	return open + formatNumber(b.lower) + ", " + hi
}

// numericFields is the fixed coercion set, in report order.
var numericFields = []Field{
	FieldTotalPrice, FieldUnitPrice, FieldArea, FieldBuildYear,
	FieldListingPrice, FieldDaysOnMarket, FieldAttention,
}

func bounds(currentYear int) map[Field]bound {
	inf := math.Inf(1)
	return map[Field]bound{
		FieldTotalPrice:   {lower: 0, lowerOpen: true, upper: 50000},
		FieldUnitPrice:    {lower: 0, lowerOpen: true, upper: 500000},
		FieldArea:         {lower: 0, lowerOpen: true, upper: 1000},
		FieldBuildYear:    {lower: 1900, upper: float64(currentYear)},
		FieldListingPrice: {lower: 0, lowerOpen: true, upper: 50000},
		FieldDaysOnMarket: {lower: 0, upper: inf},
		FieldAttention:    {lower: 0, upper: inf},
	}
}

// keyFields are reported with a completeness percentage.
func keyFields(domain Domain) []Field {
	fs := []Field{FieldCommunity, FieldLayout, FieldArea, FieldTotalPrice, FieldUnitPrice}
	if domain == DomainTransaction {
		fs = append(fs, FieldDealDate)
	}
	return fs
}

// Clean coerces a normalized table into typed records and reports what it
// changed. It never fails: unparseable and implausible values become nil.
// The result depends only on t, domain and opts.
func Clean(t *Table, domain Domain, opts CleanOptions) (*Dataset, *QualityReport) {
	year := opts.CurrentYear
	if year == 0 {
		year = time.Now().Year()
	}
	if opts.OutlierThreshold == 0 {
		opts.OutlierThreshold = 3.5
	}
	limits := bounds(year)

	cols := make(map[Field]int)
	var present FieldSet
	for _, f := range AllFields() {
		if idx := t.Index(f.Header()); idx >= 0 {
			cols[f] = idx
			present = present.With(f)
		}
	}

	ds := &Dataset{Domain: domain, Fields: present}
	rep := &QualityReport{Domain: domain, OriginalRows: len(t.Rows), CurrentYear: year}
	stats := make(map[Field]*FieldQuality)
	for _, f := range numericFields {
		if present.Has(f) {
			stats[f] = &FieldQuality{Field: f, Column: f.Header()}
		}
	}

	for i, row := range t.Rows {
		if blankRow(row) {
			continue
		}
		rec := &Record{Row: len(ds.Records) + 1, ID: recordID(i, row)}
		for f, idx := range cols {
			cell := ""
			if idx < len(row) {
				cell = row[idx]
			}
			switch {
			case f.Numeric():
				st := stats[f]
				if IsMissing(cell) {
					continue
				}
				st.ValidBefore++
				v, ok := parseNumeric(cell, opts.Numbers)
				if !ok {
					st.Unparseable++
					continue
				}
				if !limits[f].contains(v) {
					st.OutOfRange++
					continue
				}
				st.ValidAfter++
				vv := v
				*rec.numberSlot(f) = &vv
			case f == FieldDealDate:
				if IsMissing(cell) {
					continue
				}
				d, ok := parseTimeMaybe(cell)
				if !ok {
					rep.UnparsedDates++
					continue
				}
				rec.DealDate = &d
			default:
				if IsMissing(cell) {
					continue
				}
				s := strings.TrimSpace(cell)
				*rec.textSlot(f) = &s
			}
		}
		ds.Records = append(ds.Records, rec)
	}

	rep.CleanedRows = len(ds.Records)
	rep.DroppedRows = rep.OriginalRows - rep.CleanedRows
	if rep.DroppedRows > 0 {
		rep.Issues = append(rep.Issues, fmt.Sprintf("removed %d entirely empty rows", rep.DroppedRows))
	}
	for _, f := range numericFields {
		st, ok := stats[f]
		if !ok {
			continue
		}
		st.Missing = rep.CleanedRows - st.ValidAfter
		if rep.CleanedRows > 0 {
			st.MissingRate = float64(st.Missing) / float64(rep.CleanedRows) * 100
		}
		st.Outliers = robustOutliers(ds.numbers(f), opts.OutlierThreshold)
		if st.OutOfRange > 0 {
			rep.Issues = append(rep.Issues, fmt.Sprintf("%s: %d values outside %s set to missing", f.Header(), st.OutOfRange, limits[f]))
		}
		rep.Numeric = append(rep.Numeric, *st)
	}
	if rep.UnparsedDates > 0 {
		rep.Issues = append(rep.Issues, fmt.Sprintf("%s: %d values could not be read as dates", FieldDealDate.Header(), rep.UnparsedDates))
	}
	for _, f := range keyFields(domain) {
		if !present.Has(f) {
			rep.MissingKeyFields = append(rep.MissingKeyFields, f.Header())
			continue
		}
		n := 0
		for _, r := range ds.Records {
			if r.Value(f) != "" {
				n++
			}
		}
		c := Completeness{Field: f, Column: f.Header(), Present: n}
		if rep.CleanedRows > 0 {
			c.Percent = float64(n) / float64(rep.CleanedRows) * 100
		}
		rep.Completeness = append(rep.Completeness, c)
	}
	return ds, rep
}

func blankRow(row []string) bool {
	for _, c := range row {
		if !IsMissing(c) {
			return false
		}
	}
	return true
}

func recordID(ordinal int, row []string) string {
	key := strconv.Itoa(ordinal) + "\x1f" + strings.Join(row, "\x1f")
	return uuid.NewSHA1(recordNamespace, []byte(key)).String()
}
