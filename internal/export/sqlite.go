package export

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/KaramelBytes/propdash-cli/internal/analysis"
	_ "modernc.org/sqlite"
)

// WriteSQLite replaces path with a database holding a records table and,
// when q is set, a quality table.
func WriteSQLite(path string, s *Sheet, q *analysis.QualityReport) error {
	_ = os.Remove(path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	keys := s.Keys()
	var defs, quoted []string
	for _, c := range s.cols {
		t := "TEXT"
		switch {
		case c.key == "row":
			t = "INTEGER"
		case c.numeric:
			t = "REAL"
		}
		defs = append(defs, fmt.Sprintf("%q %s", c.key, t))
		quoted = append(quoted, fmt.Sprintf("%q", c.key))
	}
	if _, err := tx.Exec(`CREATE TABLE "records" (` + strings.Join(defs, ",") + `)`); err != nil {
		return fmt.Errorf("create records: %w", err)
	}
	ph := strings.TrimRight(strings.Repeat("?,", len(keys)), ",")
	stmt, err := tx.Prepare(`INSERT INTO "records" (` + strings.Join(quoted, ",") + `) VALUES (` + ph + `)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i := 0; i < s.Len(); i++ {
		if _, err := stmt.Exec(s.Values(i)...); err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}
	for _, k := range []string{"community", "district", "layout"} {
		if !contains(keys, k) {
			continue
		}
		if _, err := tx.Exec(fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_records_%s ON records(%q)`, k, k)); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	if q != nil {
		if _, err := tx.Exec(`CREATE TABLE "quality" ("field" TEXT, "column" TEXT, "valid_before" INTEGER, "valid_after" INTEGER,
			"unparseable" INTEGER, "out_of_range" INTEGER, "missing" INTEGER, "missing_rate" REAL, "outliers" INTEGER)`); err != nil {
			return fmt.Errorf("create quality: %w", err)
		}
		for _, st := range q.Numeric {
			if _, err := tx.Exec(`INSERT INTO "quality" VALUES (?,?,?,?,?,?,?,?,?)`,
				st.Field.Key(), st.Column, st.ValidBefore, st.ValidAfter, st.Unparseable, st.OutOfRange, st.Missing, st.MissingRate, st.Outliers); err != nil {
				return fmt.Errorf("insert quality: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
