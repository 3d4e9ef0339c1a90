package service

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekly-menu/internal/domain"
	"weekly-menu/internal/repository/sqlite"
)

type stepClock struct {
	mu  sync.Mutex
	now int64
}

func (c *stepClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now++
	return c.now
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]string
	deleted []string
	// afterPut runs once an object is stored.
	afterPut func()
}

func (f *fakeStorage) PutObject(_ context.Context, bucket, key string, body io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	f.objects[key] = string(data)
	f.mu.Unlock()
	if f.afterPut != nil {
		f.afterPut()
	}
	return "s3://" + bucket + "/" + key, nil
}

func (f *fakeStorage) DeletePrefix(_ context.Context, _, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, prefix)
	return nil
}

func (f *fakeStorage) GetObjectURL(_ context.Context, bucket, key string, expires time.Duration) (string, error) {
	return "https://" + bucket + ".example.com/" + key + "?expires=" + expires.String(), nil
}

type testEnv struct {
	users             UserService
	recipes           *ResourceService[domain.Recipe, *domain.Recipe]
	ingredients       *ResourceService[domain.Ingredient, *domain.Ingredient]
	menus             *ResourceService[domain.Menu, *domain.Menu]
	lists             *ResourceService[domain.ShoppingList, *domain.ShoppingList]
	recipeIngredients *RecipeIngredients
	menuRecipes       *MenuRecipes
	items             *ShoppingListItems
	images            *RecipeImages
	store             *fakeStorage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	clock := &stepClock{now: 1000}
	ctx := context.Background()

	listRepo := sqlite.NewDocumentRepository[domain.ShoppingList](db, domain.CollectionShoppingLists)
	userRepo := sqlite.NewUserRepository(db, listRepo)
	recipeRepo := sqlite.NewDocumentRepository[domain.Recipe](db, domain.CollectionRecipes)
	ingredientRepo := sqlite.NewDocumentRepository[domain.Ingredient](db, domain.CollectionIngredients)
	menuRepo := sqlite.NewDocumentRepository[domain.Menu](db, domain.CollectionMenus)

	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, listRepo.Init(ctx))
	require.NoError(t, recipeRepo.Init(ctx))
	require.NoError(t, ingredientRepo.Init(ctx))
	require.NoError(t, menuRepo.Init(ctx))

	refs := References{}
	refs.Register(recipeRepo)
	refs.Register(ingredientRepo)

	env := &testEnv{
		recipes:     NewResourceService[domain.Recipe](recipeRepo, refs, clock, logger),
		ingredients: NewResourceService[domain.Ingredient](ingredientRepo, refs, clock, logger),
		menus:       NewResourceService[domain.Menu](menuRepo, refs, clock, logger),
		lists:       NewResourceService[domain.ShoppingList](listRepo, refs, clock, logger),
		store:       &fakeStorage{objects: map[string]string{}},
	}
	env.recipeIngredients = NewRecipeIngredients(env.recipes)
	env.menuRecipes = NewMenuRecipes(env.menus, recipeRepo)
	env.items = NewShoppingListItems(env.lists)
	env.images = NewRecipeImages(env.recipes, env.store, ImageOptions{
		Bucket:    "images",
		KeyPrefix: "recipe-images/",
		URLTTL:    time.Minute,
	}, clock, logger)
	env.recipes.AfterDelete(env.images.DeleteRecipe)
	env.users = NewUserService(userRepo, clock, logger, env.images.DeleteOwner)
	return env
}

func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()
	user, err := e.users.Register(context.Background(), Registration{
		Username: username,
		Password: "password",
		Email:    username + "@example.com",
	})
	require.NoError(t, err)
	return user.ID
}

func requireCode(t *testing.T, err error, code domain.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	e, ok := domain.AsError(err)
	require.True(t, ok, "expected domain error, got %v", err)
	assert.Equal(t, code, e.Code, e.Description)
}

func firstPage() domain.PageRequest {
	return domain.PageRequest{Page: 1, PerPage: 10}
}
