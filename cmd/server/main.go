package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"weekly-menu/internal/auth"
	"weekly-menu/internal/config"
	"weekly-menu/internal/document"
	"weekly-menu/internal/domain"
	apphttp "weekly-menu/internal/http"
	"weekly-menu/internal/observability"
	"weekly-menu/internal/repository/sqlite"
	"weekly-menu/internal/service"
	"weekly-menu/internal/storage"
)

func main() {
	root := &cobra.Command{
		Use:           "weekly-menu",
		Short:         "REST backend for recipes, weekly menus and shopping lists",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}, versionCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.New()
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func serve(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	listRepo := sqlite.NewDocumentRepository[domain.ShoppingList](db, domain.CollectionShoppingLists)
	userRepo := sqlite.NewUserRepository(db, listRepo)
	recipeRepo := sqlite.NewDocumentRepository[domain.Recipe](db, domain.CollectionRecipes)
	ingredientRepo := sqlite.NewDocumentRepository[domain.Ingredient](db, domain.CollectionIngredients)
	menuRepo := sqlite.NewDocumentRepository[domain.Menu](db, domain.CollectionMenus)

	// users first, document tables reference it
	if err := userRepo.Init(ctx); err != nil {
		return fmt.Errorf("init user repository: %w", err)
	}
	for name, initRepo := range map[string]func(context.Context) error{
		domain.CollectionShoppingLists: listRepo.Init,
		domain.CollectionRecipes:       recipeRepo.Init,
		domain.CollectionIngredients:   ingredientRepo.Init,
		domain.CollectionMenus:         menuRepo.Init,
	} {
		if err := initRepo(ctx); err != nil {
			return fmt.Errorf("init %s repository: %w", name, err)
		}
	}

	clock := document.NewSystemClock()
	refs := service.References{}
	refs.Register(recipeRepo)
	refs.Register(ingredientRepo)

	recipes := service.NewResourceService[domain.Recipe](recipeRepo, refs, clock, logger)
	menus := service.NewResourceService[domain.Menu](menuRepo, refs, clock, logger)
	lists := service.NewResourceService[domain.ShoppingList](listRepo, refs, clock, logger)

	svc := apphttp.Services{
		Recipes:           recipes,
		Ingredients:       service.NewResourceService[domain.Ingredient](ingredientRepo, refs, clock, logger),
		Menus:             menus,
		ShoppingLists:     lists,
		RecipeIngredients: service.NewRecipeIngredients(recipes),
		MenuRecipes:       service.NewMenuRecipes(menus, recipeRepo),
		ShoppingListItems: service.NewShoppingListItems(lists),
	}

	var cleanups []service.AccountCleanup
	if cfg.Storage.Bucket != "" {
		storageSvc, err := buildStorage(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("setup storage: %w", err)
		}
		images := service.NewRecipeImages(recipes, storageSvc, service.ImageOptions{
			Bucket:    cfg.Storage.Bucket,
			KeyPrefix: cfg.Storage.KeyPrefix,
			URLTTL:    time.Duration(cfg.Storage.URLTTLMinutes) * time.Minute,
		}, clock, logger)
		recipes.AfterDelete(images.DeleteRecipe)
		cleanups = append(cleanups, images.DeleteOwner)
		svc.RecipeImages = images
	} else {
		logger.Info("storage bucket not configured, recipe images disabled")
	}
	svc.Users = service.NewUserService(userRepo, clock, logger, cleanups...)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(svc, apphttp.Options{
		Tokens:          auth.NewTokenIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute),
		Logger:          logger,
		Metrics:         observability.NewMetrics(registry),
		Gatherer:        registry,
		DefaultPageSize: cfg.Pagination.DefaultPageSize,
		MaxPageSize:     cfg.Pagination.MaxPageSize,
		Ping:            db.PingContext,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
	return nil
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
