package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	t.Run("valid user", func(t *testing.T) {
		t.Parallel()

		user, err := NewUser("user1", "$2a$10$hash", RoleUser)
		require.NoError(t, err)
		assert.Equal(t, "user1", user.Username)
		assert.Empty(t, user.TaskIDs)
		assert.Nil(t, user.LastLogin)
	})

	tests := []struct {
		name     string
		username string
		hash     string
		role     Role
		wantErr  error
	}{
		{"missing username", "", "h", RoleUser, ErrEmptyUsername},
		{"missing hash", "u", "", RoleUser, ErrEmptyHashedPassword},
		{"bad role", "u", "h", Role("superuser"), ErrInvalidRole},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewUser(tt.username, tt.hash, tt.role)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPrincipalCanAccess(t *testing.T) {
	t.Parallel()

	task, err := NewTask("a", "owner1", TaskConfig{ThreadID: "t"}, []string{"x"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		principal Principal
		want      bool
	}{
		{"owner", Principal{Username: "owner1", Role: RoleUser}, true},
		{"admin", Principal{Username: "root", Role: RoleAdmin}, true},
		{"other user", Principal{Username: "user2", Role: RoleUser}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.principal.CanAccess(task))
		})
	}
}
