//go:build integration

package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/folio/folio/internal/testutil"
)

// ============================================================================
// Migration Integration Tests
// ============================================================================

func TestIntegrationMigration_Tables(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	tables := map[string][]string{
		"users": {"id", "username", "email", "password_hash", "created_at"},
		"projects": {
			"id", "owner_id", "name", "description", "technologies",
			"github_link", "demo_link", "image", "created_at", "updated_at", "deleted_at",
		},
		"project_events": {
			"id", "event_id", "project_id", "owner_id", "actor_id", "action", "occurred_at", "created_at",
		},
	}

	for table, columns := range tables {
		t.Run(table, func(t *testing.T) {
			exists, err := tableExists(ctx, pool, table)
			if err != nil {
				t.Fatalf("tableExists failed: %v", err)
			}
			if !exists {
				t.Fatalf("Table %q should exist after migrations", table)
			}

			for _, col := range columns {
				exists, err := columnExists(ctx, pool, table, col)
				if err != nil {
					t.Fatalf("columnExists failed: %v", err)
				}
				if !exists {
					t.Errorf("Column %q should exist in %s table", col, table)
				}
			}
		})
	}
}

func TestIntegrationMigration_UsersCaseInsensitiveUnique(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	if _, err := pool.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash)
		VALUES ('u1', 'Ada', 'ada@example.com', 'x')
	`); err != nil {
		t.Fatalf("insert first user: %v", err)
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash)
		VALUES ('u2', 'ada', 'other@example.com', 'x')
	`)
	if err == nil {
		t.Error("Expected unique violation for username differing only in case")
	}
}

func TestIntegrationMigration_TechnologiesDefault(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	if _, err := pool.Exec(ctx, `
		INSERT INTO projects (id, owner_id, name)
		VALUES ('01HZX3J6Q8W5V4T2R1P0N9M8K7', 'owner', 'Defaults')
	`); err != nil {
		t.Fatalf("insert project: %v", err)
	}

	var count int
	if err := pool.QueryRow(ctx, `
		SELECT cardinality(technologies) FROM projects WHERE id = '01HZX3J6Q8W5V4T2R1P0N9M8K7'
	`).Scan(&count); err != nil {
		t.Fatalf("read technologies: %v", err)
	}
	if count != 0 {
		t.Errorf("technologies should default to an empty array, got %d entries", count)
	}
}

func TestIntegrationMigration_RollbackProjects(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	root, err := testutil.ProjectRoot()
	if err != nil {
		t.Fatalf("ProjectRoot failed: %v", err)
	}

	execMigration(t, ctx, pool, filepath.Join(root, "migrations", "000002_projects.down.sql"))

	exists, err := tableExists(ctx, pool, "projects")
	if err != nil {
		t.Fatalf("tableExists failed: %v", err)
	}
	if exists {
		t.Error("projects table should not exist after rollback")
	}

	execMigration(t, ctx, pool, filepath.Join(root, "migrations", "000002_projects.up.sql"))
}

func TestIntegrationMigration_Idempotency(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	root, err := testutil.ProjectRoot()
	if err != nil {
		t.Fatalf("ProjectRoot failed: %v", err)
	}

	// Every up migration uses IF NOT EXISTS, so a second apply is harmless.
	matches, err := filepath.Glob(filepath.Join(root, "migrations", "*.up.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	for _, path := range matches {
		execMigration(t, ctx, pool, path)
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

func execMigration(t *testing.T, ctx context.Context, pool *pgxpool.Pool, path string) {
	t.Helper()
	sql, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read migration %s: %v", filepath.Base(path), err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		t.Fatalf("apply migration %s: %v", filepath.Base(path), err)
	}
}

func tableExists(ctx context.Context, pool *pgxpool.Pool, tableName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)
	return exists, err
}

func columnExists(ctx context.Context, pool *pgxpool.Pool, tableName, columnName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.columns
			WHERE table_schema = 'public'
			AND table_name = $1
			AND column_name = $2
		)
	`, tableName, columnName).Scan(&exists)
	return exists, err
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newMigrationTestEnv(t *testing.T) (context.Context, *pgxpool.Pool) {
	t.Helper()
	ctx, repo := newProjectTestEnv(t)
	return ctx, repo.Pool()
}
