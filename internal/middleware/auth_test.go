package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/folio/internal/auth"
	"github.com/folio/folio/internal/handler/dto"
	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/model"
	"github.com/folio/folio/internal/testutil"
)

type authResult struct {
	status int
	env    dto.Envelope
	caller *model.Caller
	called bool
}

func runAuth(t *testing.T, mw func(http.Handler) http.Handler, header string) authResult {
	t.Helper()

	var res authResult
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res.called = true
		res.caller = auth.CallerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/projects/mine", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)

	res.status = rec.Code
	if rec.Code != http.StatusOK {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&res.env))
	}
	return res
}

func TestAuthenticate(t *testing.T) {
	verifier := testutil.NewTestVerifier()
	user := testutil.NewTestUser(t, "mw")
	token := testutil.IssueToken(t, verifier, user)

	recorder := metrics.NewInMemory()
	mw := Authenticate(AuthConfig{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Verifier: verifier,
		Metrics:  recorder,
	})

	t.Run("valid raw token", func(t *testing.T) {
		res := runAuth(t, mw, token)
		require.Equal(t, http.StatusOK, res.status)
		require.NotNil(t, res.caller)
		assert.Equal(t, user.ID, res.caller.ID)
		assert.Equal(t, user.Username, res.caller.Username)
	})

	t.Run("missing header", func(t *testing.T) {
		res := runAuth(t, mw, "")
		assert.Equal(t, http.StatusUnauthorized, res.status)
		assert.False(t, res.called)
		assert.False(t, res.env.Success)
		assert.Equal(t, "Authorization token required", res.env.Message)
	})

	t.Run("bearer prefix is not stripped", func(t *testing.T) {
		res := runAuth(t, mw, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, res.status)
		assert.Equal(t, "Invalid or expired token", res.env.Message)
	})

	t.Run("garbage token", func(t *testing.T) {
		res := runAuth(t, mw, "not.a.token")
		assert.Equal(t, http.StatusUnauthorized, res.status)
		assert.Empty(t, res.env.Error, "cause must stay hidden unless exposed")
	})

	snap := recorder.Snapshot()
	assert.Equal(t, uint64(1), snap.AuthFailuresMissing)
	assert.Equal(t, uint64(2), snap.AuthFailuresInvalid)
}

func TestAuthenticate_ExposeCause(t *testing.T) {
	verifier := testutil.NewTestVerifier()
	other := auth.NewVerifier(auth.VerifierConfig{
		Secret: "a-completely-different-secret-value",
		Issuer: "folio-test",
		TTL:    time.Hour,
	})
	forged := testutil.IssueToken(t, other, testutil.NewTestUser(t, "forged"))

	mw := Authenticate(AuthConfig{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Verifier:    verifier,
		ExposeCause: true,
	})

	res := runAuth(t, mw, forged)
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.NotEmpty(t, res.env.Error)
}

func TestOptionalAuthenticate(t *testing.T) {
	verifier := testutil.NewTestVerifier()
	user := testutil.NewTestUser(t, "opt")
	token := testutil.IssueToken(t, verifier, user)

	mw := OptionalAuthenticate(AuthConfig{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Verifier: verifier,
	})

	t.Run("anonymous", func(t *testing.T) {
		res := runAuth(t, mw, "")
		require.Equal(t, http.StatusOK, res.status)
		assert.True(t, res.called)
		assert.Nil(t, res.caller)
	})

	t.Run("authenticated", func(t *testing.T) {
		res := runAuth(t, mw, token)
		require.Equal(t, http.StatusOK, res.status)
		require.NotNil(t, res.caller)
		assert.Equal(t, user.ID, res.caller.ID)
	})

	t.Run("invalid token still rejected", func(t *testing.T) {
		res := runAuth(t, mw, "garbage")
		assert.Equal(t, http.StatusUnauthorized, res.status)
		assert.False(t, res.called)
	})
}

func TestAuthenticate_TokenNeverLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	mw := Authenticate(AuthConfig{Logger: logger, Verifier: testutil.NewTestVerifier()})
	res := runAuth(t, mw, "secret-looking-token-value")

	require.Equal(t, http.StatusUnauthorized, res.status)
	out := buf.String()
	assert.Contains(t, out, `"reason":"INVALID"`)
	assert.False(t, strings.Contains(out, "secret-looking-token-value"))
}
