package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekly-menu/internal/domain"
)

func TestRecipeImagesUpload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice")

	recipe, err := env.recipes.Create(ctx, owner, []byte(`{"name":"Pizza"}`))
	require.NoError(t, err)

	updated, err := env.images.Upload(ctx, owner, recipe.ID, strings.NewReader("first"), "image/png")
	require.NoError(t, err)
	prefix := "s3://images/recipe-images/" + owner + "/" + recipe.ID + "/"
	assert.True(t, strings.HasPrefix(updated.ImgURL, prefix), updated.ImgURL)
	assert.Greater(t, updated.UpdateTimestamp, recipe.UpdateTimestamp)
	firstKey := strings.TrimPrefix(updated.ImgURL, "s3://images/")
	assert.Equal(t, "first", env.store.objects[firstKey])

	url, err := env.images.URL(ctx, owner, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://images.example.com/"+firstKey+"?expires=1m0s", url)

	second, err := env.images.Upload(ctx, owner, recipe.ID, strings.NewReader("second"), "image/png")
	require.NoError(t, err)
	assert.NotEqual(t, updated.ImgURL, second.ImgURL)
	assert.Contains(t, env.store.deleted, firstKey)
}

func TestRecipeImagesRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice")
	other := env.register(t, "bob")

	recipe, err := env.recipes.Create(ctx, owner, []byte(`{"name":"Pizza"}`))
	require.NoError(t, err)

	_, err = env.images.Upload(ctx, owner, recipe.ID, strings.NewReader("x"), "text/plain")
	requireCode(t, err, domain.CodeBadRequest)

	_, err = env.images.Upload(ctx, other, recipe.ID, strings.NewReader("x"), "image/png")
	requireCode(t, err, domain.CodeNotFound)
	assert.Empty(t, env.store.objects)

	_, err = env.images.URL(ctx, owner, recipe.ID)
	requireCode(t, err, domain.CodeNotFound)
}

func TestRecipeImagesExternalURL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice")

	recipe, err := env.recipes.Create(ctx, owner, []byte(`{"name":"Pizza","imgUrl":"https://cdn.example.com/pizza.jpg"}`))
	require.NoError(t, err)

	url, err := env.images.URL(ctx, owner, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/pizza.jpg", url)
}

func TestRecipeImagesIgnoreForeignLocations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	pizza, err := env.recipes.Create(ctx, alice, []byte(`{"name":"Pizza"}`))
	require.NoError(t, err)
	pizza, err = env.images.Upload(ctx, alice, pizza.ID, strings.NewReader("alice"), "image/png")
	require.NoError(t, err)
	aliceKey := strings.TrimPrefix(pizza.ImgURL, "s3://images/")

	pasta, err := env.recipes.Create(ctx, bob, []byte(`{"name":"Pasta"}`))
	require.NoError(t, err)
	_, err = env.recipes.Patch(ctx, bob, pasta.ID, []byte(`{"imgUrl":"`+pizza.ImgURL+`"}`))
	require.NoError(t, err)

	_, err = env.images.URL(ctx, bob, pasta.ID)
	requireCode(t, err, domain.CodeNotFound)

	_, err = env.images.Upload(ctx, bob, pasta.ID, strings.NewReader("bob"), "image/png")
	require.NoError(t, err)
	assert.NotContains(t, env.store.deleted, aliceKey)

	// another recipe of the same owner is foreign too
	soup, err := env.recipes.Create(ctx, alice, []byte(`{"name":"Soup","imgUrl":"`+pizza.ImgURL+`"}`))
	require.NoError(t, err)
	_, err = env.images.URL(ctx, alice, soup.ID)
	requireCode(t, err, domain.CodeNotFound)
	_, err = env.images.Upload(ctx, alice, soup.ID, strings.NewReader("soup"), "image/png")
	require.NoError(t, err)
	assert.NotContains(t, env.store.deleted, aliceKey)

	url, err := env.images.URL(ctx, alice, pizza.ID)
	require.NoError(t, err)
	assert.Contains(t, url, aliceKey)
}

func TestRecipeImagesUploadRemovesUnlinkedObject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "alice")

	recipe, err := env.recipes.Create(ctx, owner, []byte(`{"name":"Pizza"}`))
	require.NoError(t, err)

	env.store.afterPut = func() {
		require.NoError(t, env.recipes.Delete(ctx, owner, recipe.ID))
	}
	_, err = env.images.Upload(ctx, owner, recipe.ID, strings.NewReader("x"), "image/png")
	requireCode(t, err, domain.CodeNotFound)

	require.Len(t, env.store.objects, 1)
	for key := range env.store.objects {
		assert.Contains(t, env.store.deleted, key)
	}
}
