package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lessonbook-server-go/config"
	"lessonbook-server-go/db"
	"lessonbook-server-go/handlers"
	"lessonbook-server-go/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("could not open document store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("store close error", zap.Error(err))
		}
	}()

	repo := db.NewRepository(store, logger)
	seedDefaults(ctx, repo, logger)

	apiHandler := handlers.NewAPIHandler(cfg, repo, logger)
	router, err := apiHandler.Router()
	if err != nil {
		logger.Fatal("could not build router", zap.Error(err))
	}
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr), zap.String("store", cfg.StoreBackend))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}

// openStore connects the configured document store backend
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (db.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendFirestore:
		client, err := db.InitializeFirestoreClient(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentials, cfg.FirebaseCredsJSON)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to Firestore", zap.String("project", cfg.FirebaseProjectID))
		return db.NewFirestoreService(client), nil
	default:
		client, err := db.InitializeRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))
		return db.NewRedisService(client, logger), nil
	}
}

// seedDefaults writes the default settings document when the store is empty
func seedDefaults(ctx context.Context, repo *db.Repository, logger *zap.Logger) {
	seeded, err := repo.EnsureSettings(ctx)
	if err != nil {
		// Not fatal: GET /settings falls back to defaults anyway
		logger.Warn("could not check default settings", zap.Error(err))
		return
	}
	if seeded {
		logger.Info("seeded default settings")
	}
}
