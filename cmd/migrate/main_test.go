package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMigrationFiles_OrderAndSuffix(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_b.up.sql",
		"000001_a.up.sql",
		"000001_a.down.sql",
		"notes.txt",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	got, err := migrationFiles(dir, ".up.sql")
	if err != nil {
		t.Fatalf("migrationFiles: %v", err)
	}
	want := []string{"000001_a.up.sql", "000002_b.up.sql"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("file %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRun_RejectsUnknownDirection(t *testing.T) {
	if err := run(nil, t.TempDir(), "sideways", "postgres://localhost/db"); err == nil {
		t.Fatal("expected error for unknown direction")
	}
}

func TestRun_RequiresDatabaseURL(t *testing.T) {
	if err := run(nil, t.TempDir(), "up", ""); err == nil {
		t.Fatal("expected error when DATABASE_URL is empty")
	}
}
