package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/nestdevhive/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestUserService_CreateListGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.Create(ctx, RegisterInput{Email: "a@x.com", Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	_, err = f.users.Create(ctx, RegisterInput{Email: "a@x.com", Username: "alice2", Password: "pw1"})
	assert.ErrorIs(t, err, common.ErrorConflict)

	list, err := f.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, u.ID, list[0].ID)

	got, err := f.users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = f.users.Get(ctx, 999)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "a@x.com", "alice", "pw1")
	f.register(t, "b@x.com", "bob", "pw1")

	got, err := f.users.UpdateProfile(ctx, u, ProfileInput{Bio: ptr("hello"), AvatarURL: ptr("https://img.example/a.png")})
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "hello", *got.Bio)

	got, err = f.users.UpdateProfile(ctx, u, ProfileInput{Username: ptr("alicia")})
	require.NoError(t, err)
	assert.Equal(t, "alicia", got.Username)
	assert.Equal(t, "hello", *got.Bio)

	_, err = f.users.UpdateProfile(ctx, u, ProfileInput{Username: ptr("bob")})
	assert.ErrorIs(t, err, common.ErrorConflict)

	_, err = f.users.UpdateProfile(ctx, u, ProfileInput{AvatarURL: ptr("ftp://img")})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = f.users.UpdateProfile(ctx, u, ProfileInput{Username: ptr("")})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestUserService_Deactivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "a@x.com", "alice", "pw1")
	pair, err := f.auth.Login(ctx, Credentials{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	expectTx(f.mock, 1)
	require.NoError(t, f.users.Deactivate(ctx, u))
	assert.False(t, f.store.users[u.ID].IsActive)
	assert.Nil(t, f.store.users[u.ID].RefreshToken)

	_, err = f.auth.Login(ctx, Credentials{Email: "a@x.com", Password: "pw1"})
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = f.resolver.Resolve(ctx, "Bearer "+pair.AccessToken)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
