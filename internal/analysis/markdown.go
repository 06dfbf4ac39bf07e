package analysis

import (
	"fmt"
	"strings"
)

// Markdown renders the dashboard as a compact report.
func (d *Dashboard) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if len(d.Sources) > 0 {
		b.WriteString(fmt.Sprintf("Files: %s\n", strings.Join(d.Sources, ", ")))
	}
	b.WriteString(fmt.Sprintf("Domain: %s\n", d.Domain))
	b.WriteString(fmt.Sprintf("Rows: %d (filtered %d, %.1f%%)\n", d.TotalRows, d.FilteredRows, d.FilterRatio))
	for _, f := range d.Filters {
		b.WriteString(fmt.Sprintf("- filter %s\n", f))
	}

	if len(d.Renames) > 0 {
		b.WriteString("\n[COLUMN MAPPING]\n")
		for _, r := range d.Renames {
			b.WriteString(fmt.Sprintf("- %s -> %s\n", safeName(r.From), r.To))
		}
	}

	if d.Quality != nil {
		b.WriteString("\n")
		b.WriteString(d.Quality.Markdown())
	}

	b.WriteString("\n[CORE METRICS]\n")
	for _, m := range d.Metrics {
		if !m.Applicable {
			b.WriteString(fmt.Sprintf("- %s: n/a (%s)\n", m.Label, m.Reason))
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: %s%s\n", m.Label, humanNumber(m.Value), unitSuffix(m.Unit)))
	}
	if s := d.PriceStats; s != nil {
		b.WriteString(fmt.Sprintf("- Unit price distribution: n=%d, mean %.0f, median %.0f, std %.0f, IQR %.0f-%.0f\n",
			s.Count, s.Mean, s.Median, s.Std, s.Q25, s.Q75))
	}
	if f := d.AreaPrice; f != nil {
		b.WriteString(fmt.Sprintf("- Area-price trend: total ≈ %.3f × area %+.2f (n=%d)\n", f.Slope, f.Intercept, f.N))
	}

	if seg := d.Segments; seg != nil && len(seg.AreaSegments) > 0 {
		b.WriteString("\n[MARKET SEGMENTS]\n")
		b.WriteString(fmt.Sprintf("Area bands (%s):\n", seg.PriceField.Header()))
		writeBuckets(&b, seg.AreaSegments)
		method := seg.Method
		if len(seg.Edges) > 0 {
			parts := make([]string, len(seg.Edges))
			for i, e := range seg.Edges {
				parts[i] = fmt.Sprintf("%.4g", e)
			}
			method += ", edges " + strings.Join(parts, " / ")
		}
		b.WriteString(fmt.Sprintf("Price tiers (%s; %s):\n", seg.AreaField.Header(), method))
		writeBuckets(&b, seg.PriceSegments)
	}

	if len(d.Districts) > 0 {
		b.WriteString("\n[DISTRICTS]\n")
		for _, g := range d.Districts {
			b.WriteString(fmt.Sprintf("- %s (n=%d): mean unit price %.0f, median %.0f\n", safeVal(g.Group), g.Count, g.Mean, g.Median))
		}
	}

	if len(d.AgeProfile) > 0 {
		b.WriteString("\n[AGE BANDS]\n")
		for _, a := range d.AgeProfile {
			b.WriteString(fmt.Sprintf("- %s (n=%d): mean unit price %.0f\n", a.Label, a.Count, a.MeanUnitPrice))
		}
	}

	if t := d.Trends; t != nil {
		b.WriteString("\n[TRENDS]\n")
		if t.Heat != "" {
			b.WriteString(fmt.Sprintf("Market heat: %s (volume %+.1f%%, price %+.1f%%)\n", t.Heat, t.VolumeChange, t.PriceChange))
		}
		b.WriteString("| month | volume | volume chg | mean unit price | price chg | mean days |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- |\n")
		for _, p := range t.Monthly {
			b.WriteString(fmt.Sprintf("| %s | %d | %s | %.0f | %s | %.0f |\n",
				p.Period, p.Volume, pctCell(p.VolumeChange), p.MeanUnitPrice, pctCell(p.PriceChange), p.MeanDaysOnMarket))
		}
		if len(t.Quarterly) > 0 {
			b.WriteString("Quarters: ")
			for i, q := range t.Quarterly {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s=%d", q.Period, q.Volume))
			}
			b.WriteString("\n")
		}
	}
	if len(d.DaysBands) > 0 {
		b.WriteString("\n[DAYS ON MARKET]\n")
		for _, c := range d.DaysBands {
			b.WriteString(fmt.Sprintf("- %s: %d (%.1f%%)\n", c.Label, c.Count, c.Share))
		}
	}
	if ds := d.Discounts; ds != nil {
		b.WriteString(fmt.Sprintf("\n[DISCOUNTS]\nmean %.1f%%, median %.1f%%, range %.1f%% to %.1f%% (n=%d)\n", ds.Mean, ds.Median, ds.Min, ds.Max, ds.Count))
	}

	if len(d.Insights.Observations) > 0 || len(d.Insights.Recommendations) > 0 {
		b.WriteString("\n[INSIGHTS]\n")
		for _, o := range d.Insights.Observations {
			b.WriteString("- " + o + "\n")
		}
		if len(d.Insights.Recommendations) > 0 {
			b.WriteString("Recommendations:\n")
			for _, r := range d.Insights.Recommendations {
				b.WriteString("- " + r + "\n")
			}
		}
	}
	return b.String()
}

// Markdown renders the quality report section.
func (q *QualityReport) Markdown() string {
	var b strings.Builder
	b.WriteString("[QUALITY REPORT]\n")
	b.WriteString(fmt.Sprintf("Rows: %d -> %d after cleaning\n", q.OriginalRows, q.CleanedRows))
	for _, s := range q.Numeric {
		b.WriteString(fmt.Sprintf("- %s: valid %d of %d, unparseable %d, out of range %d, missing %.2f%%",
			s.Column, s.ValidAfter, s.ValidBefore, s.Unparseable, s.OutOfRange, s.MissingRate))
		if s.Outliers > 0 {
			b.WriteString(fmt.Sprintf("; outliers: %d", s.Outliers))
		}
		b.WriteString("\n")
	}
	if len(q.Completeness) > 0 {
		b.WriteString("Completeness: ")
		for i, c := range q.Completeness {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(fmt.Sprintf("%s %.1f%%", c.Column, c.Percent))
		}
		b.WriteString("\n")
	}
	if len(q.MissingKeyFields) > 0 {
		b.WriteString(fmt.Sprintf("Missing key columns: %s\n", strings.Join(q.MissingKeyFields, ", ")))
	}
	if len(q.Issues) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range q.Issues {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Markdown renders one competitiveness analysis.
func (c *Competitiveness) Markdown() string {
	var b strings.Builder
	t := c.Target
	b.WriteString("[TARGET]\n")
	b.WriteString(fmt.Sprintf("Row %d, id %s\n", t.Row, t.ID))
	for _, f := range []Field{FieldCommunity, FieldLayout, FieldArea, FieldTotalPrice, FieldUnitPrice, FieldFloor, FieldOrientation, FieldTags} {
		if v := t.Value(f); v != "" {
			b.WriteString(fmt.Sprintf("- %s: %s\n", f.Header(), safeVal(v)))
		}
	}

	b.WriteString(fmt.Sprintf("\n[PEERS]\n%d competitors (%d same layout, %d by area within ±20%%)\n",
		len(c.Peers), c.SameLayoutPeers, len(c.Peers)-c.SameLayoutPeers))

	b.WriteString("\n[DIMENSIONS]\n")
	b.WriteString("- Price: " + standingLine(c.Price.Standing))
	if c.Price.OK() {
		b.WriteString(fmt.Sprintf("; target %.0f vs peer mean %.0f, median %.0f, advantage %+.0f", c.Price.Target, c.Price.PeerMean, c.Price.PeerMedian, c.Price.Advantage))
	}
	b.WriteString("\n- Area value: " + standingLine(c.AreaValue.Standing))
	if c.AreaValue.OK() {
		b.WriteString(fmt.Sprintf("; %.3f ㎡ per 万 vs peer mean %.3f", c.AreaValue.Target, c.AreaValue.PeerMean))
	}
	b.WriteString("\n- Attention: " + standingLine(c.Attention.Standing))
	if c.Attention.OK() {
		b.WriteString(fmt.Sprintf("; %.0f vs peer mean %.1f", c.Attention.Target, c.Attention.PeerMean))
	}
	f := c.Feature
	var flags []string
	for _, fl := range []struct {
		on   bool
		name string
	}{
		{f.SouthFacing, "south-facing"},
		{f.SouthAdvantage, "south advantage"},
		{f.HighFloor, "high floor"},
		{f.LowFloor, "low floor"},
		{f.Subway, "subway"},
		{f.VRTour, "VR tour"},
		{f.TaxExempt, "tax exempt"},
	} {
		if fl.on {
			flags = append(flags, fl.name)
		}
	}
	if len(flags) == 0 {
		flags = []string{"none"}
	}
	b.WriteString(fmt.Sprintf("\n- Features: score %.0f (%s); peers south-facing %.1f%%\n", f.Score, strings.Join(flags, ", "), f.PeerSouthShare))

	b.WriteString("\n[OVERALL]\n")
	for _, s := range c.Components {
		b.WriteString(fmt.Sprintf("- %s: %.1f × %.2f\n", s.Name, s.Score, s.Weight))
	}
	b.WriteString(fmt.Sprintf("Score: %.1f / 100\n", c.Overall))
	return b.String()
}

func standingLine(s Standing) string {
	switch s.Status {
	case StatusOK:
		return fmt.Sprintf("percentile %.1f, rank %s of %d peers", s.Percentile, s.Rank, s.Peers)
	case StatusNoCompetitors:
		return "no competitors"
	default:
		return "no data"
	}
}

func writeBuckets(b *strings.Builder, buckets []SegmentBucket) {
	for _, s := range buckets {
		b.WriteString(fmt.Sprintf("  • %s: n=%d, mean %.2f, median %.2f\n", s.Label, s.Count, s.Mean, s.Median))
	}
}

func pctCell(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%+.1f%%", *p)
}

func humanNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func unitSuffix(u string) string {
	if u == "" {
		return ""
	}
	if u == "%" {
		return u
	}
	return " " + u
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
