package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxImageBytes = 10 << 20

func (h *Handler) listRecipeIngredients(c *gin.Context) {
	items, err := h.svc.RecipeIngredients.List(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) addRecipeIngredient(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	item, err := h.svc.RecipeIngredients.Add(c.Request.Context(), currentUser(c).ID, c.Param("id"), body)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) removeRecipeIngredient(c *gin.Context) {
	if err := h.svc.RecipeIngredients.Remove(c.Request.Context(), currentUser(c).ID, c.Param("id"), c.Param("ingredient_id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listMenuRecipes(c *gin.Context) {
	recipes, err := h.svc.MenuRecipes.List(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

func (h *Handler) addMenuRecipe(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	recipe, err := h.svc.MenuRecipes.Add(c.Request.Context(), currentUser(c).ID, c.Param("id"), body)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *Handler) removeMenuRecipe(c *gin.Context) {
	if err := h.svc.MenuRecipes.Remove(c.Request.Context(), currentUser(c).ID, c.Param("id"), c.Param("recipe_id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) addShoppingListItem(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	item, err := h.svc.ShoppingListItems.Add(c.Request.Context(), currentUser(c).ID, c.Param("id"), body)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) patchShoppingListItem(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	item, err := h.svc.ShoppingListItems.Patch(c.Request.Context(), currentUser(c).ID, c.Param("id"), c.Param("item_id"), body)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) removeShoppingListItem(c *gin.Context) {
	if err := h.svc.ShoppingListItems.Remove(c.Request.Context(), currentUser(c).ID, c.Param("id"), c.Param("item_id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) uploadRecipeImage(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes)
	recipe, err := h.svc.RecipeImages.Upload(c.Request.Context(), currentUser(c).ID, c.Param("id"), body, c.ContentType())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *Handler) recipeImage(c *gin.Context) {
	url, err := h.svc.RecipeImages.URL(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}
