package analysis

import "testing"

func fptr(v float64) *float64 { return &v }
func sptr(s string) *string    { return &s }

// datasetOf marks every field carried by at least one record as present.
func datasetOf(domain Domain, recs ...*Record) *Dataset {
	ds := &Dataset{Domain: domain, Records: recs}
	for _, f := range AllFields() {
		for _, r := range recs {
			if r.Value(f) != "" {
				ds.Fields = ds.Fields.With(f)
				break
			}
		}
	}
	return ds
}

func approx(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if got < want-tol || got > want+tol {
		t.Fatalf("%s: got %v, want %v (±%v)", name, got, want, tol)
	}
}
