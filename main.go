package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ah-arbitrage/internal/api"
	"ah-arbitrage/internal/cache"
	"ah-arbitrage/internal/config"
	"ah-arbitrage/internal/database"
	"ah-arbitrage/internal/logging"
	"ah-arbitrage/internal/observability"
	"ah-arbitrage/internal/services/catalog"
	"ah-arbitrage/internal/services/comparison"
	"ah-arbitrage/internal/services/tsm"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()

	logger := logging.MustNew(cfg.Environment)
	defer logger.Sync()

	policy, err := cfg.Policy()
	if err != nil {
		logger.Fatal("invalid comparison policy", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics("")

	var store cache.Store = cache.NewMemoryStore()
	if cfg.RedisAddr != "" {
		redisStore, err := cache.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		defer redisStore.Close()
		store = redisStore
		logger.Info("using redis cache", zap.String("addr", cfg.RedisAddr))
	}

	tsmClient := tsm.NewClient(tsm.Config{
		APIKey:     cfg.TSMAPIKey,
		ClientID:   cfg.TSMClientID,
		AuthURL:    cfg.TSMAuthURL,
		PricingURL: cfg.TSMPricingURL,
	}, tsm.WithLogger(logger.Named("tsm")))
	if cfg.TSMAPIKey == "" {
		logger.Warn("TSM_API_KEY is not set, pricing requests will fail")
	}

	opts := []comparison.Option{
		comparison.WithLogger(logger.Named("comparison")),
		comparison.WithMetrics(metrics),
		comparison.WithTTL(cfg.CacheTTL),
	}
	deps := api.Deps{DefaultPair: cfg.DefaultPair(), Logger: logger.Named("api")}

	if cfg.DatabaseURL != "" {
		db, err := database.Initialize(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		repo := database.NewRepository(db)
		opts = append(opts, comparison.WithRunRecorder(repo))
		deps.Runs = repo
		logger.Info("comparison runs are persisted")
	}

	items := catalog.NewFileSource(cfg.CatalogPath, logger.Named("catalog"))
	if _, err := items.Catalog(context.Background()); err != nil {
		logger.Warn("item catalog not loaded yet, retrying on first request", zap.Error(err))
	}

	svc, err := comparison.New(tsmClient, items, store, policy, opts...)
	if err != nil {
		logger.Fatal("failed to create comparison service", zap.Error(err))
	}
	deps.Comparer = svc

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api.SetupRoutes(r.Group("/api"), deps)

	// Dashboard build, with SPA fallback for client-side routing
	index := filepath.Join(cfg.WebDir, "index.html")
	r.Static("/assets", filepath.Join(cfg.WebDir, "assets"))
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || strings.HasPrefix(c.Request.URL.Path, "/assets/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		if _, err := os.Stat(index); err != nil {
			c.String(http.StatusNotFound, "dashboard is not built")
			return
		}
		c.File(index)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Port),
			zap.Stringer("default_pair", cfg.DefaultPair()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
