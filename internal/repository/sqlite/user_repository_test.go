package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekly-menu/internal/domain"
	"weekly-menu/internal/repository"
)

const (
	userA = "5e4ae04561fe8235a5a10001"
	userB = "5e4ae04561fe8235a5a10002"
)

func TestUserRepositoryRegister(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.register(t, userA, "alice")

	user, err := store.users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, userA, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.False(t, user.CreatedAt.IsZero())

	page, err := store.lists.List(ctx, userA, domain.PageRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pages)
	assert.Len(t, page.Results, 1)
}

func TestUserRepositoryDuplicateRollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.register(t, userA, "alice")

	dup := &domain.User{ID: userB, Username: "alice", Email: "other@example.com", PasswordHash: "x"}
	list := &domain.ShoppingList{Meta: domain.Meta{ID: "5e4ae04561fe8235a5a1eeee", OfflineID: "dup", Owner: userB}}
	err := store.users.Register(ctx, dup, list)
	assert.True(t, errors.Is(err, repository.ErrDuplicate))

	_, err = store.users.GetByID(ctx, userB)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
	n, err := store.lists.CountOwned(ctx, userB, []string{"5e4ae04561fe8235a5a1eeee"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUserRepositoryDeleteCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.register(t, userA, "alice")

	require.NoError(t, store.users.Delete(ctx, userA))

	page, err := store.lists.List(ctx, userA, domain.PageRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Results)

	assert.True(t, errors.Is(store.users.Delete(ctx, userA), repository.ErrNotFound))
}
