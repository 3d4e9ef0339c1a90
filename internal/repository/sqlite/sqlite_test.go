package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"weekly-menu/internal/domain"
)

type testStore struct {
	db          *sqlx.DB
	users       *UserRepository
	lists       *DocumentRepository[domain.ShoppingList, *domain.ShoppingList]
	recipes     *DocumentRepository[domain.Recipe, *domain.Recipe]
	ingredients *DocumentRepository[domain.Ingredient, *domain.Ingredient]
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	lists := NewDocumentRepository[domain.ShoppingList](db, domain.CollectionShoppingLists)
	users := NewUserRepository(db, lists).(*UserRepository)
	recipes := NewDocumentRepository[domain.Recipe](db, domain.CollectionRecipes)
	ingredients := NewDocumentRepository[domain.Ingredient](db, domain.CollectionIngredients)

	require.NoError(t, users.Init(ctx))
	require.NoError(t, lists.Init(ctx))
	require.NoError(t, recipes.Init(ctx))
	require.NoError(t, ingredients.Init(ctx))

	return &testStore{db: db, users: users, lists: lists, recipes: recipes, ingredients: ingredients}
}

func (s *testStore) register(t *testing.T, id, username string) {
	t.Helper()
	user := &domain.User{ID: id, Username: username, Email: username + "@example.com", PasswordHash: "x"}
	list := &domain.ShoppingList{
		Meta:  domain.Meta{ID: "ffff" + id[4:], OfflineID: username + "-list", Owner: id, InsertTimestamp: 1, UpdateTimestamp: 1},
		Items: []domain.ShoppingListItem{},
	}
	require.NoError(t, s.users.Register(context.Background(), user, list))
}
