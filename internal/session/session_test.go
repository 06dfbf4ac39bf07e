package session

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/KaramelBytes/propdash-cli/internal/analysis"
)

const listingsCSV = "小区,户型,建筑面积,总价,单价,朝向,区域,关注\n" +
	"阳光花园,2室1厅,80,240,30000,南北,朝阳,20\n" +
	"阳光花园,2室1厅,70,245,35000,北,朝阳,5\n" +
	"翠湖苑,3室1厅,84,252,30000,东,海淀,\n" +
	"翠湖苑,2室2厅,90,225,25000,南,海淀,40\n" +
	",,,,,,,\n"

func writeCSV(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "listings.csv")
	if err := os.WriteFile(p, []byte(listingsCSV), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadFiles_Pipeline(t *testing.T) {
	opts := DefaultOptions()
	opts.Clean.CurrentYear = 2024
	snap, err := LoadFiles([]string{writeCSV(t)}, opts)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.Dataset.Len() != 4 || snap.Quality.DroppedRows != 1 {
		t.Fatalf("rows %d dropped %d", snap.Dataset.Len(), snap.Quality.DroppedRows)
	}
	if len(snap.Renames) != 5 {
		t.Fatalf("renames: %+v", snap.Renames)
	}
	if !snap.Dataset.Fields.HasAll(analysis.FieldArea, analysis.FieldTotalPrice, analysis.FieldAttention) {
		t.Fatalf("fields: %v", snap.Dataset.Fields.Fields())
	}
	d := snap.Dashboard(analysis.FilterSelection{Districts: analysis.Only("朝阳")})
	if d.FilteredRows != 2 || d.Quality == nil || len(d.Renames) != 5 {
		t.Fatalf("dashboard: filtered %d", d.FilteredRows)
	}
}

func TestSnapshot_CompeteAndLocate(t *testing.T) {
	snap, err := LoadFiles([]string{writeCSV(t)}, DefaultOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	c, err := snap.Compete(Target{Row: 1}, analysis.FilterSelection{})
	if err != nil {
		t.Fatalf("compete: %v", err)
	}
	if len(c.Peers) != 3 || c.Price.Rank != "2/4" {
		t.Fatalf("peers %d rank %s", len(c.Peers), c.Price.Rank)
	}

	byName, err := snap.Locate(Target{Community: "翠湖", Layout: "2室2厅"})
	if err != nil || byName.Row != 4 {
		t.Fatalf("locate by community: %+v %v", byName, err)
	}
	byID, err := snap.Locate(Target{ID: byName.ID})
	if err != nil || byID != byName {
		t.Fatalf("locate by id: %v", err)
	}

	for _, tg := range []Target{{Row: 99}, {ID: "nope"}, {Community: "不存在"}} {
		if _, err := snap.Compete(tg, analysis.FilterSelection{}); !errors.Is(err, ErrRecordNotFound) {
			t.Fatalf("%s: expected ErrRecordNotFound, got %v", tg, err)
		}
	}
	if _, err := snap.Locate(Target{}); err == nil || errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("empty target should be a usage error, got %v", err)
	}
}

func TestSnapshot_Page(t *testing.T) {
	snap, err := LoadFiles([]string{writeCSV(t)}, DefaultOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	recs, total := snap.Page(analysis.FilterSelection{}, 1, 2)
	if total != 4 || len(recs) != 2 || recs[0].Row != 2 {
		t.Fatalf("page: total %d len %d", total, len(recs))
	}
	recs, _ = snap.Page(analysis.FilterSelection{}, 10, 2)
	if len(recs) != 0 {
		t.Fatalf("offset past end should be empty")
	}
}

func TestSession_ConcurrentReadsAndReload(t *testing.T) {
	s := New(DefaultOptions())
	if _, err := s.Current(); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	p := writeCSV(t)
	first, err := s.LoadFiles([]string{p})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%4 == 0 {
				if _, err := s.LoadFiles([]string{p}); err != nil {
					t.Errorf("reload: %v", err)
				}
				return
			}
			snap, err := s.Current()
			if err != nil {
				t.Errorf("current: %v", err)
				return
			}
			if d := snap.Dashboard(analysis.FilterSelection{}); d.TotalRows != 4 {
				t.Errorf("total rows %d", d.TotalRows)
			}
		}(i)
	}
	wg.Wait()

	cur, _ := s.Current()
	if cur.ID == first.ID {
		t.Fatalf("reload should install a new snapshot")
	}
	s.SetDomain(analysis.DomainTransaction)
	if s.Options().Domain != analysis.DomainTransaction {
		t.Fatalf("domain not updated")
	}
	s.Reset()
	if _, err := s.Current(); !errors.Is(err, ErrNoData) {
		t.Fatalf("reset should clear the snapshot")
	}
}
