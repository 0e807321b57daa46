package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/folio/folio/internal/auth"
	"github.com/folio/folio/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// RunPostgres starts a throwaway PostgreSQL container and returns its URL
// along with a function that terminates it.
func RunPostgres(ctx context.Context) (string, func(), error) {
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("folio_test"),
		postgres.WithUsername("folio"),
		postgres.WithPassword("folio"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return "", nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	terminate := func() {
		_ = container.Terminate(context.Background())
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		terminate()
		return "", nil, fmt.Errorf("postgres connection string: %w", err)
	}
	return url, terminate, nil
}

// StartPostgres returns a database URL for integration tests.
// DATABASE_URL wins when set; otherwise a container is started and
// terminated on cleanup.
func StartPostgres(t testing.TB) string {
	t.Helper()
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	url, terminate, err := RunPostgres(context.Background())
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(terminate)
	return url
}

// ResetSchema drops every table and re-applies the up migrations in order.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	downs, err := migrationFiles(".down.sql")
	if err != nil {
		return err
	}
	for i := len(downs) - 1; i >= 0; i-- {
		if err := execFile(ctx, pool, downs[i]); err != nil {
			return err
		}
	}

	ups, err := migrationFiles(".up.sql")
	if err != nil {
		return err
	}
	for _, path := range ups {
		if err := execFile(ctx, pool, path); err != nil {
			return err
		}
	}
	return nil
}

func migrationFiles(suffix string) ([]string, error) {
	root, err := ProjectRoot()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(root, "migrations"))
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		files = append(files, filepath.Join(root, "migrations", entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func execFile(ctx context.Context, pool *pgxpool.Pool, path string) error {
	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", filepath.Base(path), err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply migration %s: %w", filepath.Base(path), err)
	}
	return nil
}

// NewMiniRedis starts an in-process Redis and returns a client bound to it.
func NewMiniRedis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return client, mr
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestProject creates an active test project with sensible defaults.
func NewTestProject(t testing.TB, ownerID string) *model.Project {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	description := "A project used in tests"
	return &model.Project{
		ID:           ulid.Make().String(),
		OwnerID:      ownerID,
		Name:         "Test Project",
		Description:  &description,
		Technologies: []string{"go", "postgres"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestUser creates a test user whose username is unique per call.
func NewTestUser(t testing.TB, prefix string) *model.User {
	t.Helper()
	id := UniqueID(prefix)
	return &model.User{
		ID:           uuid.NewString(),
		Username:     id,
		Email:        id + "@example.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// TestJWTSecret signs tokens issued by NewTestVerifier.
const TestJWTSecret = "folio-test-secret-0123456789abcdef"

// NewTestVerifier returns a token verifier with a fixed secret.
func NewTestVerifier() *auth.Verifier {
	return auth.NewVerifier(auth.VerifierConfig{
		Secret: TestJWTSecret,
		Issuer: "folio-test",
		TTL:    time.Hour,
	})
}

// IssueToken signs a token for user or fails the test.
func IssueToken(t testing.TB, verifier *auth.Verifier, user *model.User) string {
	t.Helper()
	token, _, err := verifier.Issue(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
