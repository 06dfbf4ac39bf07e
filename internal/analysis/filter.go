package analysis

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Facet is either "all values" (the zero value) or an explicit include set.
type Facet struct {
	only   bool
	values []string
}

// AllValues is the no-op facet.
func AllValues() Facet { return Facet{} }

// Only restricts a facet to the given values. Only() with no values matches nothing.
func Only(values ...string) Facet {
	return Facet{only: true, values: append([]string{}, values...)}
}

func (f Facet) All() bool { return !f.only }

func (f Facet) Values() []string { return append([]string(nil), f.values...) }

// Allows reports whether v passes the facet.
func (f Facet) Allows(v string) bool {
	return !f.only || contains(f.values, v)
}

// MarshalJSON encodes "all values" as null and an include set as an array.
func (f Facet) MarshalJSON() ([]byte, error) {
	if !f.only {
		return []byte("null"), nil
	}
	return json.Marshal(f.values)
}

func (f *Facet) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = AllValues()
		return nil
	}
	var vals []string
	if err := json.Unmarshal(b, &vals); err != nil {
		return fmt.Errorf("facet: %w", err)
	}
	*f = Only(vals...)
	return nil
}

// Range is an inclusive numeric interval; a nil bound is open.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Between builds a closed range.
func Between(lo, hi float64) *Range { return &Range{Min: &lo, Max: &hi} }

func (r *Range) Contains(v float64) bool {
	return (r.Min == nil || v >= *r.Min) && (r.Max == nil || v <= *r.Max)
}

func (r *Range) String() string {
	lo, hi := "-∞", "∞"
	if r.Min != nil {
		lo = formatNumber(*r.Min)
	}
	if r.Max != nil {
		hi = formatNumber(*r.Max)
	}
	return lo + " to " + hi
}

// FilterSelection is the complete set of user filters for one pass. The zero
// value selects everything.
type FilterSelection struct {
	Districts     Facet `json:"districts"`
	BusinessAreas Facet `json:"business_areas"`
	RoomClasses   Facet `json:"room_classes"`
	FloorClasses  Facet `json:"floor_classes"`
	Decorations   Facet `json:"decorations"`

	TotalPrice *Range `json:"total_price,omitempty"`
	Area       *Range `json:"area,omitempty"`
	BuildYear  *Range `json:"build_year,omitempty"`
}

type facetRule struct {
	name    string
	facet   Facet
	needs   Field
	valueOf func(*Record) (string, bool)
}

type rangeRule struct {
	name  string
	rng   *Range
	field Field
}

func textOf(f Field) func(*Record) (string, bool) {
	return func(r *Record) (string, bool) { return r.Text(f) }
}

func always(fn func(*Record) string) func(*Record) (string, bool) {
	return func(r *Record) (string, bool) { return fn(r), true }
}

func (s FilterSelection) facets() []facetRule {
	return []facetRule{
		{"district", s.Districts, FieldDistrict, textOf(FieldDistrict)},
		{"business area", s.BusinessAreas, FieldBusinessArea, textOf(FieldBusinessArea)},
		{"room class", s.RoomClasses, FieldLayout, always(RoomClass)},
		{"floor class", s.FloorClasses, FieldFloor, always(FloorClass)},
		{"decoration", s.Decorations, FieldDecoration, textOf(FieldDecoration)},
	}
}

func (s FilterSelection) ranges() []rangeRule {
	return []rangeRule{
		{"total price", s.TotalPrice, FieldTotalPrice},
		{"area", s.Area, FieldArea},
		{"build year", s.BuildYear, FieldBuildYear},
	}
}

// Apply returns the records of ds that pass every active filter. Filters on
// fields the dataset lacks are ignored. A set range excludes records with no
// value for its field.
func Apply(ds *Dataset, sel FilterSelection) *Dataset {
	facets := sel.facets()
	ranges := sel.ranges()
	var kept []*Record
next:
	for _, r := range ds.Records {
		for _, fr := range facets {
			if fr.facet.All() || !ds.Fields.Has(fr.needs) {
				continue
			}
			v, ok := fr.valueOf(r)
			if !ok || !fr.facet.Allows(v) {
				continue next
			}
		}
		for _, rr := range ranges {
			if rr.rng == nil || !ds.Fields.Has(rr.field) {
				continue
			}
			v, ok := r.Number(rr.field)
			if !ok || !rr.rng.Contains(v) {
				continue next
			}
		}
		kept = append(kept, r)
	}
	return ds.withRecords(kept)
}

// Active describes the filters that narrow ds, one line each.
func (s FilterSelection) Active(ds *Dataset) []string {
	var out []string
	for _, fr := range s.facets() {
		if fr.facet.All() || !ds.Fields.Has(fr.needs) {
			continue
		}
		vals := fr.facet.Values()
		sort.Strings(vals)
		out = append(out, fmt.Sprintf("%s: %s", fr.name, strings.Join(vals, ", ")))
	}
	for _, rr := range s.ranges() {
		if rr.rng == nil || !ds.Fields.Has(rr.field) {
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s", rr.name, rr.rng))
	}
	return out
}

// FilterRatio is the share of total kept by filtered, in percent.
func FilterRatio(filtered, total *Dataset) float64 {
	if total.Len() == 0 {
		return 0
	}
	return float64(filtered.Len()) / float64(total.Len()) * 100
}

// DistinctValues lists the sorted distinct values of a text field, or of a
// derived class when f is the layout or floor field.
func DistinctValues(ds *Dataset, f Field) []string {
	seen := map[string]struct{}{}
	for _, r := range ds.Records {
		var v string
		switch f {
		case FieldLayout:
			v = RoomClass(r)
		case FieldFloor:
			v = FloorClass(r)
		default:
			var ok bool
			if v, ok = r.Text(f); !ok {
				continue
			}
		}
		seen[v] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
