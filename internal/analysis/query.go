package analysis

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names understood by ParseSelection.
const (
	ParamDistrict     = "district"
	ParamBusinessArea = "business_area"
	ParamRooms        = "rooms"
	ParamFloor        = "floor"
	ParamDecoration   = "decoration"
	ParamMinPrice     = "min_price"
	ParamMaxPrice     = "max_price"
	ParamMinArea      = "min_area"
	ParamMaxArea      = "max_area"
	ParamMinYear      = "min_year"
	ParamMaxYear      = "max_year"
)

// ParseSelection builds a selection from query-style values. Facet values may
// repeat or be comma-separated; absent keys leave the facet at all values.
func ParseSelection(v url.Values) (FilterSelection, error) {
	var sel FilterSelection
	for _, f := range []struct {
		key   string
		facet *Facet
	}{
		{ParamDistrict, &sel.Districts},
		{ParamBusinessArea, &sel.BusinessAreas},
		{ParamRooms, &sel.RoomClasses},
		{ParamFloor, &sel.FloorClasses},
		{ParamDecoration, &sel.Decorations},
	} {
		if vals, ok := splitValues(v, f.key); ok {
			*f.facet = Only(vals...)
		}
	}
	for _, r := range []struct {
		min, max string
		dst      **Range
	}{
		{ParamMinPrice, ParamMaxPrice, &sel.TotalPrice},
		{ParamMinArea, ParamMaxArea, &sel.Area},
		{ParamMinYear, ParamMaxYear, &sel.BuildYear},
	} {
		lo, err := parseBound(v, r.min)
		if err != nil {
			return sel, err
		}
		hi, err := parseBound(v, r.max)
		if err != nil {
			return sel, err
		}
		if lo == nil && hi == nil {
			continue
		}
		if lo != nil && hi != nil && *lo > *hi {
			return sel, fmt.Errorf("%s %v is greater than %s %v", r.min, *lo, r.max, *hi)
		}
		*r.dst = &Range{Min: lo, Max: hi}
	}
	return sel, nil
}

func splitValues(v url.Values, key string) ([]string, bool) {
	raw, ok := v[key]
	if !ok {
		return nil, false
	}
	var out []string
	for _, s := range raw {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

func parseBound(v url.Values, key string) (*float64, error) {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, s)
	}
	return &f, nil
}
