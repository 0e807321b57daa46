package main

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestRedactURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"user and password", "postgres://folio:s3cret@db:5432/folio", "postgres://folio@db:5432/folio"},
		{"password only", "redis://:s3cret@cache:6379/0", "redis://redacted@cache:6379/0"},
		{"no credentials", "redis://cache:6379/0", "redis://cache:6379/0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redactURL(tt.raw); got != tt.want {
				t.Errorf("redactURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSanitizeError(t *testing.T) {
	dsn := "postgres://folio:s3cret@db:5432/folio"
	err := errors.New("dial " + dsn + ": connection refused (password=s3cret)")

	got := sanitizeError(err, dsn)
	if strings.Contains(got, "s3cret") {
		t.Fatalf("secret leaked: %s", got)
	}
	if !strings.Contains(got, "password=redacted") {
		t.Errorf("expected password pattern to be redacted, got %s", got)
	}
	if sanitizeError(nil) != "" {
		t.Error("nil error should sanitize to empty string")
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
