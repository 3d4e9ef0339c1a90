package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"weekly-menu/internal/document"
	"weekly-menu/internal/domain"
	"weekly-menu/internal/storage"
)

// ImageOptions locates recipe images in object storage.
type ImageOptions struct {
	Bucket    string
	KeyPrefix string
	URLTTL    time.Duration
}

// RecipeImages stores recipe pictures in object storage and links them
// through the recipe imgUrl field.
type RecipeImages struct {
	recipes *ResourceService[domain.Recipe, *domain.Recipe]
	store   storage.Service
	opts    ImageOptions
	clock   document.Clock
	logger  logrus.FieldLogger
}

func NewRecipeImages(recipes *ResourceService[domain.Recipe, *domain.Recipe], store storage.Service, opts ImageOptions, clock document.Clock, logger logrus.FieldLogger) *RecipeImages {
	opts.KeyPrefix = strings.Trim(opts.KeyPrefix, "/")
	return &RecipeImages{
		recipes: recipes,
		store:   store,
		opts:    opts,
		clock:   clock,
		logger:  logger,
	}
}

// Upload stores body as the recipe picture and points imgUrl at it.
func (s *RecipeImages) Upload(ctx context.Context, owner, recipeID string, body io.Reader, contentType string) (*domain.Recipe, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, domain.BadRequest("image content type must be image/*")
	}
	if _, err := s.recipes.Get(ctx, owner, recipeID); err != nil {
		return nil, err
	}

	key := path.Join(s.recipePrefix(owner, recipeID), fmt.Sprintf("%013d", s.clock.Now()))
	location, err := s.store.PutObject(ctx, s.opts.Bucket, key, body, contentType)
	if err != nil {
		return nil, fmt.Errorf("store recipe image: %w", err)
	}

	var previous string
	recipe, err := s.recipes.Mutate(ctx, owner, recipeID, func(r *domain.Recipe) error {
		previous = r.ImgURL
		r.ImgURL = location
		return nil
	})
	if err != nil {
		if derr := s.store.DeletePrefix(ctx, s.opts.Bucket, key); derr != nil {
			s.logger.WithError(derr).WithField("key", key).Warn("remove unlinked recipe image")
		}
		return nil, err
	}

	if old, ok := s.ownedKey(owner, recipeID, previous); ok && old != key {
		if err := s.store.DeletePrefix(ctx, s.opts.Bucket, old); err != nil {
			s.logger.WithError(err).WithField("key", old).Warn("remove replaced recipe image")
		}
	}
	return recipe, nil
}

// URL returns a link the client can fetch the recipe picture from.
// Stored images get a presigned URL, external imgUrl values are returned as is.
func (s *RecipeImages) URL(ctx context.Context, owner, recipeID string) (string, error) {
	recipe, err := s.recipes.Get(ctx, owner, recipeID)
	if err != nil {
		return "", err
	}
	if recipe.ImgURL == "" {
		return "", domain.NotFound(fmt.Sprintf("recipe %s has no image", recipeID))
	}
	if strings.HasPrefix(recipe.ImgURL, "http://") || strings.HasPrefix(recipe.ImgURL, "https://") {
		return recipe.ImgURL, nil
	}
	key, ok := s.ownedKey(owner, recipeID, recipe.ImgURL)
	if !ok {
		return "", domain.NotFound(fmt.Sprintf("recipe %s has no stored image", recipeID))
	}
	url, err := s.store.GetObjectURL(ctx, s.opts.Bucket, key, s.opts.URLTTL)
	if err != nil {
		return "", fmt.Errorf("presign recipe image: %w", err)
	}
	return url, nil
}

// DeleteRecipe removes every stored picture of a recipe.
func (s *RecipeImages) DeleteRecipe(ctx context.Context, owner, recipeID string) error {
	return s.store.DeletePrefix(ctx, s.opts.Bucket, s.recipePrefix(owner, recipeID)+"/")
}

// DeleteOwner removes every stored picture of a user.
func (s *RecipeImages) DeleteOwner(ctx context.Context, owner string) error {
	return s.store.DeletePrefix(ctx, s.opts.Bucket, path.Join(s.opts.KeyPrefix, owner)+"/")
}

func (s *RecipeImages) recipePrefix(owner, recipeID string) string {
	return path.Join(s.opts.KeyPrefix, owner, recipeID)
}

// ownedKey returns the object key behind location when it lies under the
// recipe's own prefix. imgUrl is client writable, so any other location is
// never presigned or deleted.
func (s *RecipeImages) ownedKey(owner, recipeID, location string) (string, bool) {
	key, err := storage.KeyFromLocation(location, s.opts.Bucket)
	if err != nil {
		return "", false
	}
	prefix := s.recipePrefix(owner, recipeID) + "/"
	if !strings.HasPrefix(key, prefix) || path.Clean(key) != key || len(key) == len(prefix) {
		return "", false
	}
	return key, true
}
