package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"

	"github.com/folio/folio/internal/auth"
	"github.com/folio/folio/internal/model"
	"github.com/folio/folio/internal/repository/memstore"
)

const testSecret = "account-test-secret-0123456789abcdef"

func newAccountEnv(t *testing.T) (*AccountService, *memstore.Store, *auth.Verifier) {
	t.Helper()
	store := memstore.New()
	verifier := auth.NewVerifier(auth.VerifierConfig{Secret: testSecret, Issuer: "folio", TTL: time.Hour})
	svc := NewAccountService(store, verifier, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, store, verifier
}

func TestAccountService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, store, verifier := newAccountEnv(t)

	registered, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "Alice@Example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "alice@example.com", registered.User.Email)

	stored, err := store.GetUserByID(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$argon2id$"))
	assert.NotContains(t, stored.PasswordHash, "correct horse")

	caller, err := verifier.Verify(registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, caller.ID)
	assert.Equal(t, "alice", caller.Username)

	loggedIn, err := svc.Login(ctx, LoginInput{Username: "ALICE", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)
	assert.False(t, loggedIn.ExpiresAt.IsZero())
}

func TestAccountService_LoginFailures(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAccountEnv(t)

	_, err := svc.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Username: "bob", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Username: "nobody", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 2)
}

func TestAccountService_RegisterConflicts(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAccountEnv(t)

	_, err := svc.Register(ctx, RegisterInput{Username: "carol", Email: "carol@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "Carol", Email: "other@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Register(ctx, RegisterInput{Username: "carol2", Email: "CAROL@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.NotErrorIs(t, err, ErrUsernameTaken)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Errors[0].Field)
}

func TestAccountService_LoginUpgradesWeakHash(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newAccountEnv(t)

	weak := &model.User{
		ID:           "legacy-user",
		Username:     "legacy",
		Email:        "legacy@example.com",
		PasswordHash: mustWeakHash(t, svc, "password123"),
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, store.CreateUser(ctx, weak))
	require.True(t, auth.NeedsRehash(weak.PasswordHash))

	_, err := svc.Login(ctx, LoginInput{Username: "legacy", Password: "password123"})
	require.NoError(t, err)

	stored, err := store.GetUserByID(ctx, weak.ID)
	require.NoError(t, err)
	assert.False(t, auth.NeedsRehash(stored.PasswordHash))
}

func TestAccountService_Me(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAccountEnv(t)

	registered, err := svc.Register(ctx, RegisterInput{Username: "dave", Email: "dave@example.com", Password: "password123"})
	require.NoError(t, err)

	me, err := svc.Me(ctx, &model.Caller{ID: registered.User.ID})
	require.NoError(t, err)
	assert.Equal(t, "dave", me.Username)

	_, err = svc.Me(ctx, &model.Caller{ID: "ghost"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Me(ctx, nil)
	var authErr *auth.AuthenticationError
	assert.ErrorAs(t, err, &authErr)
}

func mustWeakHash(t *testing.T, svc *AccountService, password string) string {
	t.Helper()
	salt := []byte("0123456789abcdef")
	key := argon2.IDKey([]byte(password), salt, 1, 1024, 1, 32)
	weak := fmt.Sprintf("$argon2id$v=%d$m=1024,t=1,p=1$%s$%s",
		argon2.Version,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	ok, err := svc.verify(password, weak)
	require.NoError(t, err)
	require.True(t, ok)
	return weak
}
