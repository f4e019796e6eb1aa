package migrate

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestRunAppliesSchemaIdempotently(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "migrate.db") + "?_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := Run(ctx, db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	// Second run must be a no-op.
	if err := Run(ctx, db); err != nil {
		t.Fatalf("second run: %v", err)
	}

	for _, table := range []string{"jobs", "job_runs", "tag_assignments"} {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("expected table %s to exist: %v", table, err)
		}
	}

	var applied int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied == 0 {
		t.Error("expected at least one recorded migration version")
	}
}
