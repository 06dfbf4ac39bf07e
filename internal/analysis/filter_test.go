package analysis

import (
	"encoding/json"
	"reflect"
	"testing"
)

func filterFixture() *Dataset {
	return datasetOf(DomainForSale,
		&Record{ID: "1", District: sptr("朝阳"), Layout: sptr("2室1厅"), Floor: sptr("高楼层"), TotalPrice: fptr(300), Area: fptr(80)},
		&Record{ID: "2", District: sptr("海淀"), Layout: sptr("3室1厅"), Floor: sptr("低楼层"), TotalPrice: fptr(600), Area: fptr(110)},
		&Record{ID: "3", District: sptr("朝阳"), Layout: sptr("1室0厅"), Floor: sptr("中楼层"), TotalPrice: fptr(180), Area: fptr(45)},
		&Record{ID: "4", District: sptr("丰台"), Layout: sptr("loft"), Area: fptr(60)},
	)
}

func ids(ds *Dataset) []string {
	var out []string
	for _, r := range ds.Records {
		out = append(out, r.ID)
	}
	return out
}

func TestApply_Filters(t *testing.T) {
	ds := filterFixture()
	cases := []struct {
		name string
		sel  FilterSelection
		want []string
	}{
		{"zero selects all", FilterSelection{}, []string{"1", "2", "3", "4"}},
		{"district", FilterSelection{Districts: Only("朝阳")}, []string{"1", "3"}},
		{"room class", FilterSelection{RoomClasses: Only("2 rooms", ClassOther)}, []string{"1", "4"}},
		{"floor class", FilterSelection{FloorClasses: Only(FloorHigh, FloorMid)}, []string{"1", "3"}},
		{"price range drops missing", FilterSelection{TotalPrice: Between(150, 400)}, []string{"1", "3"}},
		{"combined", FilterSelection{Districts: Only("朝阳"), Area: Between(50, 200)}, []string{"1"}},
		{"empty include set", FilterSelection{Districts: Only()}, nil},
		{"absent field ignored", FilterSelection{Decorations: Only("精装"), BuildYear: Between(2000, 2010)}, []string{"1", "2", "3", "4"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ids(Apply(ds, c.sel))
			if !reflect.DeepEqual(got, c.want) {
				t.Fatalf("got %v want %v", got, c.want)
			}
		})
	}
}

func TestActiveAndRatio(t *testing.T) {
	ds := filterFixture()
	sel := FilterSelection{Districts: Only("海淀", "朝阳"), TotalPrice: Between(100, 500), Decorations: Only("精装")}
	active := sel.Active(ds)
	want := []string{"district: 朝阳, 海淀", "total price: 100 to 500"}
	if !reflect.DeepEqual(active, want) {
		t.Fatalf("active: got %q want %q", active, want)
	}
	approx(t, "ratio", FilterRatio(Apply(ds, sel), ds), 50, 1e-9)
	if FilterRatio(ds, datasetOf(DomainForSale)) != 0 {
		t.Fatalf("ratio over empty total should be 0")
	}
}

func TestFacet_JSON(t *testing.T) {
	var sel FilterSelection
	if err := json.Unmarshal([]byte(`{"districts":["朝阳"],"room_classes":null}`), &sel); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sel.Districts.All() || !sel.Districts.Allows("朝阳") || sel.Districts.Allows("海淀") {
		t.Fatalf("districts facet: %+v", sel.Districts)
	}
	if !sel.RoomClasses.All() {
		t.Fatalf("null facet should select all")
	}
	b, _ := json.Marshal(FilterSelection{})
	if string(b) != `{"districts":null,"business_areas":null,"room_classes":null,"floor_classes":null,"decorations":null}` {
		t.Fatalf("zero selection json: %s", b)
	}
}

func TestDistinctValues(t *testing.T) {
	ds := filterFixture()
	if got := DistinctValues(ds, FieldDistrict); !reflect.DeepEqual(got, []string{"丰台", "朝阳", "海淀"}) {
		t.Fatalf("districts: %q", got)
	}
	if got := DistinctValues(ds, FieldFloor); !reflect.DeepEqual(got, []string{FloorHigh, FloorLow, FloorMid, ClassUnknown}) {
		t.Fatalf("floor classes: %q", got)
	}
}

func TestRoomClass(t *testing.T) {
	cases := map[string]string{
		"1室0厅":  "1 room",
		"2室1厅":  "2 rooms",
		"3 bedrooms": "3 rooms",
		"6室3厅":  "5+ rooms",
		"loft":  ClassOther,
		"0室":    ClassOther,
	}
	for in, want := range cases {
		if got := RoomClass(&Record{Layout: sptr(in)}); got != want {
			t.Fatalf("RoomClass(%q) = %q want %q", in, got, want)
		}
	}
	if RoomClass(&Record{}) != ClassUnknown {
		t.Fatalf("missing layout should be unknown")
	}
}

func TestBands(t *testing.T) {
	if got := AgeBand(&Record{BuildYear: fptr(2024)}, 2024); got != "new (<=5y)" {
		t.Fatalf("age 0: %s", got)
	}
	if got := AgeBand(&Record{BuildYear: fptr(1990)}, 2024); got != "very old (>30y)" {
		t.Fatalf("age 34: %s", got)
	}
	for d, want := range map[float64]string{0: "fast (<=30d)", 30: "fast (<=30d)", 31: "normal (31-60d)", 180: "difficult (91-180d)", 181: "stale (>180d)"} {
		if got := DaysBand(&Record{DaysOnMarket: fptr(d)}); got != want {
			t.Fatalf("days %v: %s want %s", d, got, want)
		}
	}
}
