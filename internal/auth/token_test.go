package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/folio/internal/model"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestVerifier(now time.Time) *Verifier {
	return NewVerifier(VerifierConfig{
		Secret: testSecret,
		Issuer: "folio",
		TTL:    time.Hour,
		Now:    func() time.Time { return now },
	})
}

func signClaims(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func requireAuthReason(t *testing.T, err error, want AuthReason) *AuthenticationError {
	t.Helper()
	var authErr *AuthenticationError
	require.True(t, errors.As(err, &authErr), "expected AuthenticationError, got %v", err)
	assert.Equal(t, want, authErr.Reason)
	return authErr
}

func TestVerifier_IssueThenVerify(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(fixedNow)
	user := &model.User{ID: "6F1C2A4E-6B0E-4D7E-9A0B-1C2D3E4F5A6B", Username: "ada"}

	token, issued, err := v.Issue(user)
	require.NoError(t, err)
	assert.Equal(t, "6f1c2a4e-6b0e-4d7e-9a0b-1c2d3e4f5a6b", issued.ID)
	assert.Equal(t, fixedNow.Add(time.Hour), issued.ExpiresAt)

	caller, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, caller.ID)
	assert.Equal(t, "ada", caller.Username)
	assert.True(t, caller.IssuedAt.Equal(fixedNow))
	assert.True(t, caller.ExpiresAt.Equal(fixedNow.Add(time.Hour)))
}

func TestVerifier_Missing(t *testing.T) {
	t.Parallel()

	_, err := newTestVerifier(fixedNow).Verify("")
	authErr := requireAuthReason(t, err, ReasonMissing)
	assert.Equal(t, "Authorization token required", authErr.Message())
}

func TestVerifier_RejectsBearerPrefix(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(fixedNow)
	token, _, err := v.Issue(&model.User{ID: "1", Username: "ada"})
	require.NoError(t, err)

	_, err = v.Verify("Bearer " + token)
	requireAuthReason(t, err, ReasonInvalid)
}

func TestVerifier_Invalid(t *testing.T) {
	t.Parallel()

	valid := jwt.RegisteredClaims{
		Subject:   "42",
		Issuer:    "folio",
		IssuedAt:  jwt.NewNumericDate(fixedNow.Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(fixedNow.Add(time.Hour)),
	}

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(fixedNow.Add(-time.Second))

	noExpiry := valid
	noExpiry.ExpiresAt = nil

	futureIssued := valid
	futureIssued.IssuedAt = jwt.NewNumericDate(fixedNow.Add(time.Hour))

	wrongIssuer := valid
	wrongIssuer.Issuer = "someone-else"

	noSubject := valid
	noSubject.Subject = ""

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", signClaims(t, jwt.SigningMethodHS256, []byte("another-secret-another-secret-00"), valid)},
		{"wrong algorithm", signClaims(t, jwt.SigningMethodHS512, []byte(testSecret), valid)},
		{"expired", signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), expired)},
		{"missing expiry", signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), noExpiry)},
		{"issued in the future", signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), futureIssued)},
		{"wrong issuer", signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), wrongIssuer)},
		{"no subject", signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), noSubject)},
		{"none algorithm", signClaims(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)},
	}

	v := newTestVerifier(fixedNow)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			authErr := requireAuthReason(t, err, ReasonInvalid)
			assert.Equal(t, "Invalid or expired token", authErr.Message())
		})
	}
}

func TestVerifier_TamperedPayload(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(fixedNow)
	token, _, err := v.Issue(&model.User{ID: "42", Username: "ada"})
	require.NoError(t, err)

	other, _, err := v.Issue(&model.User{ID: "43", Username: "eve"})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	otherParts := strings.Split(other, ".")
	forged := parts[0] + "." + otherParts[1] + "." + parts[2]

	_, err = v.Verify(forged)
	requireAuthReason(t, err, ReasonInvalid)
}

func TestVerifier_LegacyNumericID(t *testing.T) {
	t.Parallel()

	token := signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"id":       42,
		"username": "ada",
		"iss":      "folio",
		"iat":      fixedNow.Add(-time.Minute).Unix(),
		"exp":      fixedNow.Add(time.Hour).Unix(),
	})

	caller, err := newTestVerifier(fixedNow).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "42", caller.ID)
	assert.True(t, SameID(caller.ID, 42))
}

func TestVerifier_ExpiresWithClock(t *testing.T) {
	t.Parallel()

	token, _, err := newTestVerifier(fixedNow).Issue(&model.User{ID: "1", Username: "ada"})
	require.NoError(t, err)

	_, err = newTestVerifier(fixedNow.Add(2 * time.Hour)).Verify(token)
	authErr := requireAuthReason(t, err, ReasonInvalid)
	assert.EqualError(t, authErr.Cause, "token expired")
}
