package errors

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// openTestDB opens a throwaway sqlite database with a schema exercising each
// constraint class the mapper has to recognize.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "mapper.db") + "?_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	schema := `
CREATE TABLE parents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	score REAL CHECK (score >= 0)
);
CREATE TABLE children (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	parent_id INTEGER NOT NULL REFERENCES parents(id)
);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func TestMapDBError_Nil(t *testing.T) {
	if got := MapDBError(nil); got != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", got)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	err := MapDBError(context.DeadlineExceeded)
	if GetCode(err) != ErrCodeTimeout {
		t.Errorf("MapDBError(DeadlineExceeded) code = %v, want %v", GetCode(err), ErrCodeTimeout)
	}

	err = MapDBError(context.Canceled)
	if GetCode(err) != ErrCodeCanceled {
		t.Errorf("MapDBError(Canceled) code = %v, want %v", GetCode(err), ErrCodeCanceled)
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	err := MapDBError(sql.ErrNoRows)
	if !IsNotFound(err) {
		t.Errorf("MapDBError(sql.ErrNoRows) should be NotFound, got %v", GetCode(err))
	}
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("mapped error should still match sql.ErrNoRows")
	}
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.Exec(`INSERT INTO parents (name) VALUES ('alpha')`); err != nil {
		t.Fatalf("seed insert: %v", err)
	}
	_, err := db.Exec(`INSERT INTO parents (name) VALUES ('alpha')`)
	if err == nil {
		t.Fatal("expected unique violation")
	}

	mapped := MapDBError(err)
	if !IsConflict(mapped) {
		t.Errorf("unique violation should be Conflict, got %v", GetCode(mapped))
	}
	if GetField(mapped) != "name" {
		t.Errorf("unique violation field = %q, want %q", GetField(mapped), "name")
	}
}

func TestMapDBError_NotNullViolation(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO parents (name) VALUES (NULL)`)
	if err == nil {
		t.Fatal("expected not null violation")
	}

	mapped := MapDBError(err)
	if !IsValidation(mapped) {
		t.Errorf("not null violation should be Validation, got %v", GetCode(mapped))
	}
	if GetField(mapped) != "name" {
		t.Errorf("not null violation field = %q, want %q", GetField(mapped), "name")
	}
}

func TestMapDBError_CheckViolation(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO parents (name, score) VALUES ('beta', -1)`)
	if err == nil {
		t.Fatal("expected check violation")
	}

	mapped := MapDBError(err)
	if !IsValidation(mapped) {
		t.Errorf("check violation should be Validation, got %v", GetCode(mapped))
	}
}

func TestMapDBError_ForeignKeyViolation(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO children (parent_id) VALUES (999)`)
	if err == nil {
		t.Fatal("expected foreign key violation")
	}

	mapped := MapDBError(err)
	if !IsForeignKey(mapped) {
		t.Errorf("foreign key violation should be ForeignKey, got %v", GetCode(mapped))
	}
}

func TestMapDBError_PassthroughUnknown(t *testing.T) {
	original := errors.New("some application error")
	if got := MapDBError(original); !errors.Is(got, original) {
		t.Errorf("MapDBError should pass through unrecognized errors, got %v", got)
	}
}
