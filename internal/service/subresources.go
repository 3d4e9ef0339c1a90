package service

import (
	"context"
	"errors"
	"fmt"

	"weekly-menu/internal/document"
	"weekly-menu/internal/domain"
	"weekly-menu/internal/repository"
)

// RecipeIngredients manages the ingredient list embedded in a recipe.
type RecipeIngredients struct {
	recipes *ResourceService[domain.Recipe, *domain.Recipe]
}

func NewRecipeIngredients(recipes *ResourceService[domain.Recipe, *domain.Recipe]) *RecipeIngredients {
	return &RecipeIngredients{recipes: recipes}
}

func (s *RecipeIngredients) List(ctx context.Context, owner, recipeID string) ([]domain.RecipeIngredient, error) {
	recipe, err := s.recipes.Get(ctx, owner, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.Ingredients == nil {
		return []domain.RecipeIngredient{}, nil
	}
	return recipe.Ingredients, nil
}

// Add appends an ingredient to the recipe. The ingredient must belong to the
// owner and may appear only once per recipe.
func (s *RecipeIngredients) Add(ctx context.Context, owner, recipeID string, body []byte) (*domain.RecipeIngredient, error) {
	var item domain.RecipeIngredient
	if err := decodeEmbedded(body, &item); err != nil {
		return nil, err
	}
	_, err := s.recipes.Mutate(ctx, owner, recipeID, func(recipe *domain.Recipe) error {
		if recipe.IngredientIndex(item.Ingredient) >= 0 {
			return domain.DuplicateEntry(fmt.Sprintf("ingredient %s is already part of the recipe", item.Ingredient))
		}
		recipe.Ingredients = append(recipe.Ingredients, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *RecipeIngredients) Remove(ctx context.Context, owner, recipeID, ingredientID string) error {
	_, err := s.recipes.Mutate(ctx, owner, recipeID, func(recipe *domain.Recipe) error {
		i := recipe.IngredientIndex(ingredientID)
		if i < 0 {
			return domain.NotFound(fmt.Sprintf("ingredient %s is not part of the recipe", ingredientID))
		}
		recipe.Ingredients = append(recipe.Ingredients[:i], recipe.Ingredients[i+1:]...)
		return nil
	})
	return err
}

// MenuRecipe is the payload that adds a recipe to a menu.
type MenuRecipe struct {
	Recipe string `json:"recipe" validate:"required,objectid"`
}

// MenuRecipes manages the recipes planned in a menu.
type MenuRecipes struct {
	menus   *ResourceService[domain.Menu, *domain.Menu]
	recipes repository.DocumentRepository[domain.Recipe, *domain.Recipe]
}

func NewMenuRecipes(menus *ResourceService[domain.Menu, *domain.Menu], recipes repository.DocumentRepository[domain.Recipe, *domain.Recipe]) *MenuRecipes {
	return &MenuRecipes{menus: menus, recipes: recipes}
}

// List returns the full recipes of the menu in planning order. Recipes deleted
// since they were planned are skipped.
func (s *MenuRecipes) List(ctx context.Context, owner, menuID string) ([]*domain.Recipe, error) {
	menu, err := s.menus.Get(ctx, owner, menuID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Recipe, 0, len(menu.Recipes))
	for _, id := range menu.Recipes {
		recipe, err := s.recipes.Get(ctx, owner, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load menu recipe %s: %w", id, err)
		}
		out = append(out, recipe)
	}
	return out, nil
}

func (s *MenuRecipes) Add(ctx context.Context, owner, menuID string, body []byte) (*domain.Recipe, error) {
	var in MenuRecipe
	if err := decodeEmbedded(body, &in); err != nil {
		return nil, err
	}
	_, err := s.menus.Mutate(ctx, owner, menuID, func(menu *domain.Menu) error {
		if menu.RecipeIndex(in.Recipe) >= 0 {
			return domain.DuplicateEntry(fmt.Sprintf("recipe %s is already part of the menu", in.Recipe))
		}
		menu.Recipes = append(menu.Recipes, in.Recipe)
		return nil
	})
	if err != nil {
		return nil, err
	}
	recipe, err := s.recipes.Get(ctx, owner, in.Recipe)
	if err != nil {
		return nil, translateStoreError(err, domain.CollectionRecipes, in.Recipe)
	}
	return recipe, nil
}

func (s *MenuRecipes) Remove(ctx context.Context, owner, menuID, recipeID string) error {
	_, err := s.menus.Mutate(ctx, owner, menuID, func(menu *domain.Menu) error {
		i := menu.RecipeIndex(recipeID)
		if i < 0 {
			return domain.NotFound(fmt.Sprintf("recipe %s is not part of the menu", recipeID))
		}
		menu.Recipes = append(menu.Recipes[:i], menu.Recipes[i+1:]...)
		return nil
	})
	return err
}

// ShoppingListItems manages the entries of a shopping list.
type ShoppingListItems struct {
	lists *ResourceService[domain.ShoppingList, *domain.ShoppingList]
}

func NewShoppingListItems(lists *ResourceService[domain.ShoppingList, *domain.ShoppingList]) *ShoppingListItems {
	return &ShoppingListItems{lists: lists}
}

// Add appends an item and returns it with its assigned item_id.
func (s *ShoppingListItems) Add(ctx context.Context, owner, listID string, body []byte) (*domain.ShoppingListItem, error) {
	fields, err := document.Parse(body)
	if err != nil {
		return nil, err
	}
	if fields.Has(itemIDField) {
		return nil, domain.CannotSetID(itemIDField)
	}
	var item domain.ShoppingListItem
	if err := fields.DecodeInto(&item); err != nil {
		return nil, err
	}
	item.ItemID = document.NewID()
	if err := document.Validate(item); err != nil {
		return nil, err
	}

	_, err = s.lists.Mutate(ctx, owner, listID, func(list *domain.ShoppingList) error {
		list.Items = append(list.Items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Patch writes the supplied fields over one item.
func (s *ShoppingListItems) Patch(ctx context.Context, owner, listID, itemID string, body []byte) (*domain.ShoppingListItem, error) {
	fields, err := document.Parse(body)
	if err != nil {
		return nil, err
	}
	if fields.Has(itemIDField) {
		return nil, domain.CannotSetID(itemIDField)
	}

	var updated domain.ShoppingListItem
	_, err = s.lists.Mutate(ctx, owner, listID, func(list *domain.ShoppingList) error {
		i := list.ItemIndex(itemID)
		if i < 0 {
			return domain.NotFound(fmt.Sprintf("no item found with id %s", itemID))
		}
		merged, err := document.ToFields(list.Items[i])
		if err != nil {
			return err
		}
		for k, v := range fields {
			merged[k] = v
		}
		var next domain.ShoppingListItem
		if err := merged.DecodeInto(&next); err != nil {
			return err
		}
		next.ItemID = itemID
		list.Items[i] = next
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *ShoppingListItems) Remove(ctx context.Context, owner, listID, itemID string) error {
	_, err := s.lists.Mutate(ctx, owner, listID, func(list *domain.ShoppingList) error {
		i := list.ItemIndex(itemID)
		if i < 0 {
			return domain.NotFound(fmt.Sprintf("no item found with id %s", itemID))
		}
		list.Items = append(list.Items[:i], list.Items[i+1:]...)
		return nil
	})
	return err
}

const itemIDField = "item_id"

// decodeEmbedded parses and validates a payload for a nested value.
func decodeEmbedded(body []byte, dst any) error {
	fields, err := document.Parse(body)
	if err != nil {
		return err
	}
	if err := fields.DecodeInto(dst); err != nil {
		return err
	}
	return document.Validate(dst)
}
