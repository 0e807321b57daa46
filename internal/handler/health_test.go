package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockHealthChecker is a mock implementation of HealthChecker for testing.
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) Ping(ctx context.Context) error {
	return m.err
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return response
}

func TestHealthHandler_Healthz(t *testing.T) {
	h := NewHealthHandler(nil, nil, discardLogger(), false)

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if response := decodeHealth(t, rec); response.Status != "ok" {
		t.Errorf("expected status 'ok', got %s", response.Status)
	}
}

func TestHealthHandler_Readyz(t *testing.T) {
	tests := []struct {
		name         string
		postgres     HealthChecker
		redis        HealthChecker
		exposeDetail bool
		wantCode     int
		wantStatus   string
		wantPostgres string
		wantRedis    string
	}{
		{
			name:         "all healthy",
			postgres:     &mockHealthChecker{},
			redis:        &mockHealthChecker{},
			wantCode:     http.StatusOK,
			wantStatus:   "ok",
			wantPostgres: "ok",
			wantRedis:    "ok",
		},
		{
			name:         "database down with detail",
			postgres:     &mockHealthChecker{err: errors.New("connection refused")},
			redis:        &mockHealthChecker{},
			exposeDetail: true,
			wantCode:     http.StatusServiceUnavailable,
			wantStatus:   "unhealthy",
			wantPostgres: "error: connection refused",
			wantRedis:    "ok",
		},
		{
			name:         "redis down without detail",
			postgres:     &mockHealthChecker{},
			redis:        &mockHealthChecker{err: errors.New("dial tcp: i/o timeout")},
			wantCode:     http.StatusServiceUnavailable,
			wantStatus:   "unhealthy",
			wantPostgres: "ok",
			wantRedis:    "unavailable",
		},
		{
			name:         "nothing configured",
			wantCode:     http.StatusOK,
			wantStatus:   "ok",
			wantPostgres: "not configured",
			wantRedis:    "not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.postgres, tt.redis, discardLogger(), tt.exposeDetail)

			rec := httptest.NewRecorder()
			h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			response := decodeHealth(t, rec)
			if response.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, response.Status)
			}
			if response.Checks["postgres"] != tt.wantPostgres {
				t.Errorf("postgres check = %q, want %q", response.Checks["postgres"], tt.wantPostgres)
			}
			if response.Checks["redis"] != tt.wantRedis {
				t.Errorf("redis check = %q, want %q", response.Checks["redis"], tt.wantRedis)
			}
		})
	}
}
