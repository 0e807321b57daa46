package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/folio/internal/model"
)

func TestAuthorize(t *testing.T) {
	t.Parallel()

	owner := &model.Caller{ID: "42", Username: "ada"}
	stranger := &model.Caller{ID: "7", Username: "bob"}

	t.Run("owner is allowed with skewed id representation", func(t *testing.T) {
		require.NoError(t, Authorize(owner, " 42", ActionUpdate))
	})

	t.Run("nil caller is unauthenticated", func(t *testing.T) {
		err := Authorize(nil, "42", ActionUpdate)
		var authErr *AuthenticationError
		require.True(t, errors.As(err, &authErr))
		assert.Equal(t, ReasonMissing, authErr.Reason)
	})

	messages := map[Action]string{
		ActionView:       "You are not authorized to access this project",
		ActionUpdate:     "You are not authorized to update this project",
		ActionSoftDelete: "You are not authorized to delete this project",
		ActionRestore:    "You are not authorized to restore this project",
		ActionHardDelete: "You are not authorized to permanently delete this project",
		ActionHistory:    "You are not authorized to view this project's history",
	}

	for action, want := range messages {
		t.Run("stranger denied "+string(action), func(t *testing.T) {
			err := Authorize(stranger, "42", action)
			var denied *AuthorizationError
			require.True(t, errors.As(err, &denied))
			assert.Equal(t, action, denied.Action)
			assert.Equal(t, want, denied.Message())
		})
	}
}

func TestAuthorize_DoesNotMutate(t *testing.T) {
	t.Parallel()

	caller := &model.Caller{ID: " 42 ", Username: "ada"}
	_ = Authorize(caller, "42", ActionUpdate)
	assert.Equal(t, " 42 ", caller.ID)
}
