package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_CreateUser(t *testing.T) {
	store := newFakeStore()
	svc := NewUserService(zerolog.Nop(), fakeUserRepo{store})

	user, err := svc.CreateUser(context.Background(), "Alice", "alice@example.com")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "Alice", user.Name)

	_, err = svc.CreateUser(context.Background(), "Other Alice", "alice@example.com")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	_, err = svc.CreateUser(context.Background(), "  ", "someone@example.com")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestUserService_GetUsers(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	svc := NewUserService(zerolog.Nop(), fakeUserRepo{store})

	users, err := svc.GetUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Alice", users[0].Name)
	assert.Equal(t, "Bob", users[1].Name)
}
