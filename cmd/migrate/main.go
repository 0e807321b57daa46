// Package main applies the SQL migrations under migrations/ in order.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding *.up.sql and *.down.sql files")
	flag.Parse()

	direction := "up"
	if flag.NArg() > 0 {
		direction = flag.Arg(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("env_file_unreadable", "error", err)
	}

	if err := run(logger, *dir, direction, os.Getenv("DATABASE_URL")); err != nil {
		logger.Error("migration_failed", "direction", direction, "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, dir, direction, databaseURL string) error {
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	var suffix string
	switch direction {
	case "up":
		suffix = ".up.sql"
	case "down":
		suffix = ".down.sql"
	default:
		return fmt.Errorf("unknown direction %q (want up or down)", direction)
	}

	files, err := migrationFiles(dir, suffix)
	if err != nil {
		return err
	}
	if direction == "down" {
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	for _, name := range files {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("execute %s: %w", name, err)
		}
		logger.Info("migration_applied", "file", name)
	}

	logger.Info("migrations_complete", "direction", direction, "count", len(files))
	return nil
}

func migrationFiles(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}
