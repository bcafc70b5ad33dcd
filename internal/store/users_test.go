package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetUser(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	u, err := db.CreateUser(ctx, "alice", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "", u.CoreInformation)

	got, err := db.GetUser(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alice", got.Username)

	_, err = db.CreateUser(ctx, "alice", "Again")
	assert.True(t, errors.Is(err, ErrExists))
}

func TestGetUserMissing(t *testing.T) {
	db := testDB(t)

	u, err := db.GetUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUpdateCoreInformationReplaces(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_, err := db.CreateUser(ctx, "alice", "Alice")
	require.NoError(t, err)

	require.NoError(t, db.UpdateCoreInformation(ctx, "alice", "Has a daughter named Rosa."))
	require.NoError(t, db.UpdateCoreInformation(ctx, "alice", "Retired librarian with a daughter named Rosa."))

	u, err := db.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Retired librarian with a daughter named Rosa.", u.CoreInformation)

	err = db.UpdateCoreInformation(ctx, "nobody", "x")
	assert.True(t, errors.Is(err, ErrNotFound))
}
