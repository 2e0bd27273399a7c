package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/brunoksato/finbot/internal/bot"
	"github.com/brunoksato/finbot/internal/common/clients/mfinance"
	"github.com/brunoksato/finbot/internal/common/config"
	"github.com/brunoksato/finbot/internal/common/repositories/postgres"
	"github.com/brunoksato/finbot/internal/portfolio"
	"github.com/brunoksato/finbot/internal/quote"
	"github.com/brunoksato/finbot/pkg/goosemigrate"
	"github.com/brunoksato/finbot/pkg/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "prod.yaml", "bot config path")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())

	cfg := config.GetConfig(configPath)

	log.Info("bot starting...")

	log.Info("init postgres...")
	pool, err := pgxpool.New(ctx, cfg.GetPostgresURL())
	if err != nil {
		log.Fatal("postgres init failed", zap.Error(err))
	}

	if err := goosemigrate.NewMigrator(cfg.GetPostgresURL(), "migrations", cfg.Postgres.Schema).Up(); err != nil {
		log.Fatal("migrations up failed", zap.Error(err))
	}

	portfolioRepository := postgres.NewPortfolioRepository(pool)

	log.Info("init price source...")
	priceSource := mfinance.NewClient(cfg.PriceSource.BaseURL, cfg.PriceSource.Timeout, cfg.PriceSource.Retries)

	quotes := quote.NewCache(priceSource, cfg.PriceSource.QuoteTTL)
	refresher := quote.NewRefresher(cfg.PriceSource.RefreshWorkers, cfg.PriceSource.RefreshTimeout)

	ledger := portfolio.New(quotes, refresher, portfolioRepository)

	log.Info("init telebot...")
	b, err := bot.New(&cfg.Bot, ledger)
	if err != nil {
		log.Fatal("bot starting failed", zap.Error(err))
	}

	go func() {
		b.Start()
	}()

	log.Info("bot starting complete")

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-done
	log.Info("bot shutting down...")

	b.Stop()
	refresher.Close()
	pool.Close()

	if err := log.Sync(); err != nil {
		log.Error("log sync failed", zap.Error(err))
	}

	cancel()

	log.Info("bot shut down complete")
}
