// Package main запускает HTTP-сервер маркетплейса doormarket.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/doormarket/internal/catalog"
	"github.com/mmeshcher/doormarket/internal/config"
	"github.com/mmeshcher/doormarket/internal/handler"
	"github.com/mmeshcher/doormarket/internal/middleware"
	"github.com/mmeshcher/doormarket/internal/repository"
	"github.com/mmeshcher/doormarket/internal/service"
)

const checkoutBurst = 3

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	checkoutItems, err := newCatalog(cfg, repo)
	if err != nil {
		sugar.Fatalw("catalog initialization error", "error", err.Error())
	}

	items := checkoutItems
	if cfg.RedisAddress != "" {
		cache := catalog.NewRedisCache(cfg.RedisAddress)
		defer cache.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := cache.Ping(pingCtx); err != nil {
			sugar.Warnw("catalog cache unavailable, continuing with fallthrough", "addr", cfg.RedisAddress, "error", err.Error())
		}
		cancel()

		items = catalog.NewCachedLookup(checkoutItems, cache, cfg.CatalogCacheTTL, logger)
		sugar.Infow("catalog cache enabled", "addr", cfg.RedisAddress, "ttl", cfg.CatalogCacheTTL)
	}

	// Оформление заказа всегда проверяет товары по каталогу без кэша.
	svc := service.NewService(repo, items, checkoutItems, logger)
	defer svc.Close()

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)
	limiter := middleware.NewUserRateLimiter(cfg.CheckoutRateLimit, checkoutBurst)
	h := handler.NewHandler(svc, logger, authMiddleware, limiter)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting doormarket server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

// newCatalog выбирает источник каталога: удалённый сервис, если задан его адрес, иначе таблицы в БД.
func newCatalog(cfg *config.Config, repo *repository.PostgresRepository) (catalog.Lookup, error) {
	if cfg.CatalogServiceAddress != "" {
		return catalog.NewHTTPClient(cfg.CatalogServiceAddress), nil
	}
	return catalog.NewSQLRegistry(repo.SQLDB())
}
