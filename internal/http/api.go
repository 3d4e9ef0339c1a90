package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"weekly-menu/internal/auth"
	"weekly-menu/internal/domain"
	"weekly-menu/internal/observability"
	"weekly-menu/internal/service"
)

// Services groups the application services exposed over HTTP.
type Services struct {
	Users             service.UserService
	Recipes           *service.ResourceService[domain.Recipe, *domain.Recipe]
	Ingredients       *service.ResourceService[domain.Ingredient, *domain.Ingredient]
	Menus             *service.ResourceService[domain.Menu, *domain.Menu]
	ShoppingLists     *service.ResourceService[domain.ShoppingList, *domain.ShoppingList]
	RecipeIngredients *service.RecipeIngredients
	MenuRecipes       *service.MenuRecipes
	ShoppingListItems *service.ShoppingListItems
	// RecipeImages is nil when object storage is not configured.
	RecipeImages *service.RecipeImages
}

// Options tunes the HTTP layer.
type Options struct {
	Tokens          *auth.TokenIssuer
	Logger          *logrus.Logger
	Metrics         *observability.Metrics
	Gatherer        prometheus.Gatherer
	DefaultPageSize int
	MaxPageSize     int
	// Ping reports storage health for /health.
	Ping func(ctx context.Context) error
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	svc  Services
	opts Options
	log  *logrus.Logger
}

func NewHandler(svc Services, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 10
	}
	if opts.MaxPageSize < opts.DefaultPageSize {
		opts.MaxPageSize = opts.DefaultPageSize
	}
	return &Handler{
		svc:  svc,
		opts: opts,
		log:  opts.Logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(h.requestLogger())
	if h.opts.Metrics != nil {
		router.Use(h.opts.Metrics.Middleware())
	}
	router.Use(corsMiddleware())
	router.NoRoute(func(c *gin.Context) {
		h.fail(c, domain.NotFound("resource not found"))
	})

	router.GET("/health", h.health)
	if h.opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")
	{
		api.POST("/auth/register", h.register)
		api.POST("/auth/token", h.token)
	}

	protected := api.Group("")
	protected.Use(h.authGate())
	{
		protected.GET("/users/me", h.me)
		protected.DELETE("/users/me", h.deleteMe)

		recipes := protected.Group("/recipes")
		mountResource(h, recipes, h.svc.Recipes, nil)
		recipes.GET("/:id/ingredients", h.listRecipeIngredients)
		recipes.POST("/:id/ingredients", h.addRecipeIngredient)
		recipes.DELETE("/:id/ingredients/:ingredient_id", h.removeRecipeIngredient)
		if h.svc.RecipeImages != nil {
			recipes.PUT("/:id/image", h.uploadRecipeImage)
			recipes.GET("/:id/image", h.recipeImage)
		}

		mountResource(h, protected.Group("/ingredients"), h.svc.Ingredients, nil)

		menus := protected.Group("/menus")
		mountResource(h, menus, h.svc.Menus, menuFilters)
		menus.GET("/:id/recipes", h.listMenuRecipes)
		menus.POST("/:id/recipes", h.addMenuRecipe)
		menus.DELETE("/:id/recipes/:recipe_id", h.removeMenuRecipe)

		lists := protected.Group("/shopping-lists")
		mountResource(h, lists, h.svc.ShoppingLists, nil)
		lists.POST("/:id/items", h.addShoppingListItem)
		lists.PATCH("/:id/items/:item_id", h.patchShoppingListItem)
		lists.DELETE("/:id/items/:item_id", h.removeShoppingListItem)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Location, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) health(c *gin.Context) {
	if h.opts.Ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.opts.Ping(ctx); err != nil {
			h.log.WithError(err).Warn("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
