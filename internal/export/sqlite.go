package export

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/KaramelBytes/serpdiff/internal/utils"
	_ "modernc.org/sqlite"
)

// WriteSQLite replaces the database at path with three tables: records,
// entities (one row per clicked entity) and summary (a single row).
func WriteSQLite(path string, snap Snapshot) error {
	if err := utils.EnsureDir(path); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
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
	defer func() { _ = tx.Rollback() }()

	if strings.EqualFold(snap.Labels.Control, snap.Labels.Experiment) {
		return fmt.Errorf("sqlite export: labels %q and %q collide as column names", snap.Labels.Control, snap.Labels.Experiment)
	}
	cols := Columns(snap)
	colTypes := map[string]string{
		"index": "INTEGER", "total_clicks": "INTEGER", "search_count": "INTEGER",
		cols[4]: "REAL", cols[5]: "REAL", "delta": "REAL",
		"large_gap": "INTEGER", "meaningful_change": "INTEGER", "set1_p1_change": "INTEGER",
	}
	var defs, qCols []string
	for _, c := range cols {
		t := colTypes[c]
		if t == "" {
			t = "TEXT"
		}
		defs = append(defs, quoteIdent(c)+" "+t)
		qCols = append(qCols, quoteIdent(c))
	}
	stmts := []string{
		`CREATE TABLE "records" (` + strings.Join(defs, ",") + `)`,
		`CREATE TABLE "entities" ("record_index" INTEGER, "rank" INTEGER, "name" TEXT, "type" TEXT, "entity_id" TEXT, "url" TEXT, "click_count" INTEGER, "percentage" REAL)`,
		`CREATE TABLE "summary" ("dataset_id" TEXT, "generation" INTEGER, "fingerprint" TEXT, "control" TEXT, "experiment" TEXT, "queries" INTEGER, "total_clicks" INTEGER, "weighted_control_ctr" REAL, "weighted_experiment_ctr" REAL, "delta" REAL)`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	recStmt, err := tx.Prepare(`INSERT INTO "records" (` + strings.Join(qCols, ",") + `) VALUES (` + ph + `)`)
	if err != nil {
		return fmt.Errorf("prepare records: %w", err)
	}
	defer recStmt.Close()
	entStmt, err := tx.Prepare(`INSERT INTO "entities" VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare entities: %w", err)
	}
	defer entStmt.Close()

	for _, it := range snap.Records {
		r := it.Record
		if _, err := recStmt.Exec(
			it.Index, r.Key, r.TotalClicks, r.SearchCount,
			r.CTRControl, r.CTRExperiment, r.SignedDelta(),
			r.LargeGap, r.MeaningfulChange, r.Set1P1Change,
			strings.Join(r.Tags, ","), topEntity(it),
		); err != nil {
			return fmt.Errorf("insert record %d: %w", it.Index, err)
		}
		for rank, e := range r.Entities {
			if _, err := entStmt.Exec(it.Index, rank+1, e.Name, e.Type, e.ID, e.URL, e.ClickCount, e.Percentage); err != nil {
				return fmt.Errorf("insert entity: %w", err)
			}
		}
	}

	s := snap.Summary
	if _, err := tx.Exec(`INSERT INTO "summary" VALUES (?,?,?,?,?,?,?,?,?,?)`,
		snap.DatasetID, snap.Generation, snap.Fingerprint,
		snap.Labels.Control, snap.Labels.Experiment,
		s.Queries, s.TotalClicks, s.WeightedControlCTR, s.WeightedExperimentCTR, s.Delta,
	); err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_records_key ON "records"("key")`); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// quoteIdent quotes an SQL identifier, doubling embedded double quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
