package sqlite

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekly-menu/internal/domain"
	"weekly-menu/internal/repository"
)

func recipeFixture(owner string, n int, name string) *domain.Recipe {
	return &domain.Recipe{
		Meta: domain.Meta{
			ID:              fmt.Sprintf("5e4ae04561fe8235a5a2%04d", n),
			OfflineID:       fmt.Sprintf("offline-%d", n),
			Owner:           owner,
			InsertTimestamp: int64(1000 + n),
			UpdateTimestamp: int64(1000 + n),
		},
		Name: name,
	}
}

func TestDocumentRepositoryCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.register(t, userA, "alice")
	store.register(t, userB, "bob")

	r := recipeFixture(userA, 1, "Pizza")
	require.NoError(t, store.recipes.Insert(ctx, r))

	got, err := store.recipes.Get(ctx, userA, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, got)

	_, err = store.recipes.Get(ctx, userB, r.ID)
	assert.True(t, errors.Is(err, repository.ErrNotFound), "other owners never see the document")

	got.Name = "Margherita"
	got.UpdateTimestamp = 5000
	require.NoError(t, store.recipes.Update(ctx, got))

	reloaded, err := store.recipes.Get(ctx, userA, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Margherita", reloaded.Name)
	assert.Equal(t, int64(5000), reloaded.UpdateTimestamp)

	stolen := *reloaded
	stolen.Owner = userB
	assert.True(t, errors.Is(store.recipes.Update(ctx, &stolen), repository.ErrNotFound))
	assert.True(t, errors.Is(store.recipes.Delete(ctx, userB, r.ID), repository.ErrNotFound))

	require.NoError(t, store.recipes.Delete(ctx, userA, r.ID))
	_, err = store.recipes.Get(ctx, userA, r.ID)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestDocumentRepositoryDuplicateOfflineID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.register(t, userA, "alice")

	first := recipeFixture(userA, 1, "Pizza")
	require.NoError(t, store.recipes.Insert(ctx, first))

	second := recipeFixture(userA, 2, "Pasta")
	second.OfflineID = first.OfflineID
	assert.True(t, errors.Is(store.recipes.Insert(ctx, second), repository.ErrDuplicate))
}

func TestDocumentRepositoryList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.register(t, userA, "alice")
	store.register(t, userB, "bob")

	names := []string{"Carbonara", "Amatriciana", "Bolognese"}
	for i, name := range names {
		require.NoError(t, store.recipes.Insert(ctx, recipeFixture(userA, i+1, name)))
	}
	require.NoError(t, store.recipes.Insert(ctx, recipeFixture(userB, 9, "Foreign")))

	t.Run("insertion order", func(t *testing.T) {
		page, err := store.recipes.List(ctx, userA, domain.PageRequest{Page: 1, PerPage: 10})
		require.NoError(t, err)
		require.Len(t, page.Results, 3)
		assert.Equal(t, 1, page.Pages)
		for i, name := range names {
			assert.Equal(t, name, page.Results[i].Name)
		}
	})

	t.Run("one per page", func(t *testing.T) {
		page, err := store.recipes.List(ctx, userA, domain.PageRequest{Page: 2, PerPage: 1})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Pages)
		require.Len(t, page.Results, 1)
		assert.Equal(t, "Amatriciana", page.Results[0].Name)
	})

	t.Run("order by document field", func(t *testing.T) {
		page, err := store.recipes.List(ctx, userA, domain.PageRequest{Page: 1, PerPage: 10, OrderBy: "name"})
		require.NoError(t, err)
		require.Len(t, page.Results, 3)
		assert.Equal(t, "Amatriciana", page.Results[0].Name)
		assert.Equal(t, "Carbonara", page.Results[2].Name)
	})

	t.Run("order by timestamp descending", func(t *testing.T) {
		page, err := store.recipes.List(ctx, userA, domain.PageRequest{Page: 1, PerPage: 1, OrderBy: "update_timestamp", Desc: true})
		require.NoError(t, err)
		require.Len(t, page.Results, 1)
		assert.Equal(t, "Bolognese", page.Results[0].Name)
	})

	t.Run("filter", func(t *testing.T) {
		page, err := store.recipes.List(ctx, userA, domain.PageRequest{Page: 1, PerPage: 10, Filters: map[string]string{"name": "Carbonara"}})
		require.NoError(t, err)
		require.Len(t, page.Results, 1)
		assert.Equal(t, 1, page.Pages)
	})

	t.Run("past the end", func(t *testing.T) {
		page, err := store.recipes.List(ctx, userA, domain.PageRequest{Page: 5, PerPage: 2})
		require.NoError(t, err)
		assert.Empty(t, page.Results)
		assert.Equal(t, 2, page.Pages)
	})

	t.Run("empty owner", func(t *testing.T) {
		page, err := store.ingredients.List(ctx, userA, domain.PageRequest{Page: 1, PerPage: 10})
		require.NoError(t, err)
		assert.Empty(t, page.Results)
		assert.Zero(t, page.Pages)
	})

	t.Run("rejects injected sort keys", func(t *testing.T) {
		_, err := store.recipes.List(ctx, userA, domain.PageRequest{Page: 1, PerPage: 1, OrderBy: "name'); DROP TABLE recipes; --"})
		assert.Error(t, err)
	})
}

func TestDocumentRepositoryCountOwned(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.register(t, userA, "alice")
	store.register(t, userB, "bob")

	a := recipeFixture(userA, 1, "Pizza")
	b := recipeFixture(userB, 2, "Pasta")
	require.NoError(t, store.recipes.Insert(ctx, a))
	require.NoError(t, store.recipes.Insert(ctx, b))

	n, err := store.recipes.CountOwned(ctx, userA, []string{a.ID, b.ID, a.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDocumentRepositoryQueriesAreOwnerScoped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentRepository[domain.Recipe](sqlx.NewDb(db, "sqlmock"), domain.CollectionRecipes)
	ctx := context.Background()

	t.Run("get miss", func(t *testing.T) {
		mock.ExpectQuery(`SELECT data FROM recipes WHERE .*owner = \?`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"data"}))

		_, err := repo.Get(ctx, userA, "5e4ae04561fe8235a5a20001")
		assert.True(t, errors.Is(err, repository.ErrNotFound))
	})

	t.Run("update miss", func(t *testing.T) {
		mock.ExpectExec(`UPDATE recipes SET data = \?, update_timestamp = \? WHERE .*owner = \?`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(ctx, recipeFixture(userA, 1, "Pizza"))
		assert.True(t, errors.Is(err, repository.ErrNotFound))
	})

	t.Run("insert failure mentioning unique is not a duplicate", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO recipes`).
			WillReturnError(errors.New("disk I/O error while writing unique index"))

		err := repo.Insert(ctx, recipeFixture(userA, 1, "Pizza"))
		require.Error(t, err)
		assert.False(t, errors.Is(err, repository.ErrDuplicate))
	})

	t.Run("list", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM recipes WHERE \(owner = \?\)`).
			WithArgs(userA).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectQuery(`SELECT data FROM recipes WHERE \(owner = \?\) ORDER BY json_extract\(data, '\$\.name'\) DESC, seq DESC LIMIT 2 OFFSET 2`).
			WithArgs(userA).
			WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(`{"_id":"x","name":"Pizza"}`))

		page, err := repo.List(ctx, userA, domain.PageRequest{Page: 2, PerPage: 2, OrderBy: "name", Desc: true})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Pages)
		require.Len(t, page.Results, 1)
		assert.Equal(t, "Pizza", page.Results[0].Name)
	})

	t.Run("list past the last page skips the select", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM recipes WHERE \(owner = \?\)`).
			WithArgs(userA).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		page, err := repo.List(ctx, userA, domain.PageRequest{Page: math.MaxInt, PerPage: 100})
		require.NoError(t, err)
		assert.Empty(t, page.Results)
		assert.NotNil(t, page.Results)
		assert.Equal(t, 1, page.Pages)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
