// Package config содержит логику чтения конфигурации сервиса.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultRunAddress        = "localhost:8080"
	defaultCatalogCacheTTL   = 30 * time.Second
	defaultAuthSecret        = "doormarket-secret"
	defaultCheckoutRateLimit = 1.0
)

// Config содержит параметры конфигурации сервиса.
//
// RedisAddress включает кэш каталога при добавлении в корзину. В пределах CatalogCacheTTL
// удалённый из каталога товар ещё можно добавить, а зафиксированная цена может отставать
// на время TTL. Оформление заказа проверяет товары без кэша, поэтому такая позиция
// будет отклонена как недоступная. Без RedisAddress каталог читается при каждом добавлении.
type Config struct {
	RunAddress            string        `env:"RUN_ADDRESS"`
	DatabaseURI           string        `env:"DATABASE_URI"`
	CatalogServiceAddress string        `env:"CATALOG_SERVICE_ADDRESS"`
	RedisAddress          string        `env:"REDIS_ADDRESS"`
	CatalogCacheTTL       time.Duration `env:"CATALOG_CACHE_TTL"`
	AuthSecret            string        `env:"AUTH_SECRET"`
	CheckoutRateLimit     float64       `env:"CHECKOUT_RATE_LIMIT"`
}

// Parse считывает конфигурацию из файла .env, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	// Файл .env необязателен.
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fromEnv := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.CatalogServiceAddress, "c", "", "remote catalog service address")
	flag.StringVar(&cfg.RedisAddress, "r", "", "redis address for catalog cache")
	flag.DurationVar(&cfg.CatalogCacheTTL, "t", defaultCatalogCacheTTL, "catalog cache TTL")
	flag.StringVar(&cfg.AuthSecret, "s", defaultAuthSecret, "auth token signing secret")
	flag.Float64Var(&cfg.CheckoutRateLimit, "l", defaultCheckoutRateLimit, "checkout requests per second per user")

	flag.Parse()

	if fromEnv.RunAddress != "" {
		cfg.RunAddress = fromEnv.RunAddress
	}
	if fromEnv.DatabaseURI != "" {
		cfg.DatabaseURI = fromEnv.DatabaseURI
	}
	if fromEnv.CatalogServiceAddress != "" {
		cfg.CatalogServiceAddress = fromEnv.CatalogServiceAddress
	}
	if fromEnv.RedisAddress != "" {
		cfg.RedisAddress = fromEnv.RedisAddress
	}
	if fromEnv.CatalogCacheTTL != 0 {
		cfg.CatalogCacheTTL = fromEnv.CatalogCacheTTL
	}
	if fromEnv.AuthSecret != "" {
		cfg.AuthSecret = fromEnv.AuthSecret
	}
	if fromEnv.CheckoutRateLimit != 0 {
		cfg.CheckoutRateLimit = fromEnv.CheckoutRateLimit
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}

	return cfg, nil
}
