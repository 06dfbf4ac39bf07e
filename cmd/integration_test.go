package cmd

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/xuri/excelize/v2"
	_ "modernc.org/sqlite"
)

const listingsCSV = "小区,户型,建筑面积,总价,单价,朝向,区域,关注\n" +
	"阳光花园,2室1厅,80,240,30000,南北,朝阳,20\n" +
	"阳光花园,2室1厅,70,245,35000,北,朝阳,5\n" +
	"翠湖苑,3室1厅,84,252,30000,东,海淀,\n" +
	"翠湖苑,2室2厅,90,225,25000,南,海淀,40\n"

// resetFlags restores every flag under c to its default so sticky values and
// Changed state do not leak between invocations.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func mustRun(t *testing.T, args ...string) {
	t.Helper()
	if err := runCmd(t, args...); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
}

// isolate points HOME at a temp dir and returns it with a fixture CSV path.
func isolate(t *testing.T) (string, string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	csvPath := filepath.Join(home, "listings.csv")
	if err := os.WriteFile(csvPath, []byte(listingsCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return home, csvPath
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}

func TestCLI_AnalyzeFormats(t *testing.T) {
	home, csvPath := isolate(t)

	jsonOut := filepath.Join(home, "out", "dash.json")
	mustRun(t, "analyze", csvPath, "--format", "json", "--district", "朝阳", "-o", jsonOut)
	var d struct {
		TotalRows    int      `json:"total_rows"`
		FilteredRows int      `json:"filtered_rows"`
		Filters      []string `json:"filters"`
	}
	readJSON(t, jsonOut, &d)
	if d.TotalRows != 4 || d.FilteredRows != 2 || len(d.Filters) != 1 {
		t.Fatalf("dashboard: %+v", d)
	}

	// Flags from the previous run must not leak into this one.
	mdOut := filepath.Join(home, "dash.md")
	mustRun(t, "analyze", filepath.Join(home, "*.csv"), "-o", mdOut)
	md, _ := os.ReadFile(mdOut)
	for _, want := range []string{"[DATASET SUMMARY]", "Rows: 4 (filtered 4, 100.0%)", "[COLUMN MAPPING]", "[QUALITY REPORT]", "[MARKET SEGMENTS]"} {
		if !strings.Contains(string(md), want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}

	yamlOut := filepath.Join(home, "quality.yaml")
	mustRun(t, "analyze", csvPath, "--quality-only", "--format", "yaml", "-o", yamlOut)
	y, _ := os.ReadFile(yamlOut)
	if !strings.Contains(string(y), "cleaned_rows: 4") {
		t.Fatalf("yaml quality report:\n%s", y)
	}
}

func TestCLI_AnalyzeErrors(t *testing.T) {
	home, csvPath := isolate(t)
	tests := []struct {
		name string
		args []string
	}{
		{"bad format", []string{"analyze", csvPath, "--format", "xml"}},
		{"bad domain", []string{"analyze", csvPath, "--domain", "rental"}},
		{"inverted range", []string{"analyze", csvPath, "--min-price", "300", "--max-price", "100"}},
		{"no glob match", []string{"analyze", filepath.Join(home, "*.xlsx")}},
		{"unsupported file", []string{"analyze", filepath.Join(home, "notes.docx")}},
		{"bad delimiter", []string{"analyze", csvPath, "--delimiter", "#"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := runCmd(t, tt.args...); err == nil {
				t.Fatalf("expected error for %v", tt.args)
			}
		})
	}
}

func TestCLI_Compete(t *testing.T) {
	home, csvPath := isolate(t)

	out := filepath.Join(home, "compete.json")
	mustRun(t, "compete", csvPath, "--row", "1", "--format", "json", "-o", out)
	var c struct {
		Peers   []json.RawMessage `json:"peers"`
		Overall float64           `json:"overall"`
	}
	readJSON(t, out, &c)
	if len(c.Peers) != 3 || c.Overall <= 0 || c.Overall > 100 {
		t.Fatalf("competitiveness: peers %d overall %v", len(c.Peers), c.Overall)
	}

	mdOut := filepath.Join(home, "compete.md")
	mustRun(t, "compete", csvPath, "--community", "翠湖", "--layout", "2室2厅", "-o", mdOut)
	md, _ := os.ReadFile(mdOut)
	if !strings.Contains(string(md), "[OVERALL]") || !strings.Contains(string(md), "Row 4") {
		t.Fatalf("markdown:\n%s", md)
	}

	if err := runCmd(t, "compete", csvPath); err == nil {
		t.Fatalf("expected error without a target")
	}
	if err := runCmd(t, "compete", csvPath, "--row", "9"); err == nil {
		t.Fatalf("expected error for a missing row")
	}
}

func TestCLI_Export(t *testing.T) {
	home, csvPath := isolate(t)

	xlsxOut := filepath.Join(home, "clean.xlsx")
	mustRun(t, "export", csvPath, "-o", xlsxOut)
	f, err := excelize.OpenFile(xlsxOut)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	rows, _ := f.GetRows("Records")
	f.Close()
	if len(rows) != 5 {
		t.Fatalf("xlsx rows = %d, want header + 4", len(rows))
	}

	dbOut := filepath.Join(home, "clean.db")
	mustRun(t, "export", csvPath, "--format", "sqlite", "--district", "海淀", "-o", dbOut)
	db, err := sql.Open("sqlite", dbOut)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("sqlite records = %d, want 2", n)
	}

	// Default output goes to export_dir.
	exportDir := filepath.Join(home, "exports")
	mustRun(t, "config", "set", "export_dir", exportDir)
	mustRun(t, "export", csvPath)
	if _, err := os.Stat(filepath.Join(exportDir, "listings.clean.csv")); err != nil {
		t.Fatalf("default export path: %v", err)
	}
}

func TestCLI_SampleRoundTrip(t *testing.T) {
	home, _ := isolate(t)

	for _, kind := range []string{"for-sale", "transaction"} {
		t.Run(kind, func(t *testing.T) {
			raw := filepath.Join(home, kind+".xlsx")
			mustRun(t, "sample", "--kind", kind, "--rows", "50", "--seed", "11", "-o", raw)
			out := filepath.Join(home, kind+".json")
			mustRun(t, "analyze", raw, "--domain", kind, "--current-year", "2024", "--format", "json", "-o", out)
			var d struct {
				Domain    string `json:"domain"`
				TotalRows int    `json:"total_rows"`
			}
			readJSON(t, out, &d)
			if d.Domain != kind || d.TotalRows != 50 {
				t.Fatalf("dashboard: %+v", d)
			}
		})
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home, _ := isolate(t)
	cfgPath := filepath.Join(home, "custom.yaml")

	mustRun(t, "--config", cfgPath, "config", "set", "default_domain", "transaction")
	mustRun(t, "--config", cfgPath, "config", "set", "extra_aliases", "total_price=售价,报价")
	b, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(b), "default_domain: transaction") || !strings.Contains(string(b), "售价") {
		t.Fatalf("saved config:\n%s", b)
	}
	mustRun(t, "--config", cfgPath, "config", "show")

	if err := runCmd(t, "--config", cfgPath, "config", "set", "log_level", "loud"); err == nil {
		t.Fatalf("expected validation error")
	}
	if err := runCmd(t, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}
