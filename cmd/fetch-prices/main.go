package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ah-arbitrage/internal/config"
	"ah-arbitrage/internal/export"
	"ah-arbitrage/internal/logging"
	"ah-arbitrage/internal/models"
	"ah-arbitrage/internal/services/tsm"
)

var (
	sourceID = flag.Int64("source", 0, "source auction house id (default SOURCE_AUCTION_HOUSE_ID)")
	targetID = flag.Int64("target", 0, "target auction house id (default TARGET_AUCTION_HOUSE_ID)")
	dataDir  = flag.String("data", "./data", "directory the snapshots are written to")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	logger := logging.MustNew(cfg.Environment)
	defer logger.Sync()

	pair := cfg.DefaultPair()
	if *sourceID > 0 {
		pair.SourceID = *sourceID
	}
	if *targetID > 0 {
		pair.TargetID = *targetID
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := tsm.NewClient(tsm.Config{
		APIKey:     cfg.TSMAPIKey,
		ClientID:   cfg.TSMClientID,
		AuthURL:    cfg.TSMAuthURL,
		PricingURL: cfg.TSMPricingURL,
	}, tsm.WithLogger(logger))

	source, target, err := client.FetchPair(ctx, pair)
	if err != nil {
		logger.Fatal("failed to fetch prices", zap.Stringer("pair", pair), zap.Error(err))
	}

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logger.Fatal("failed to create data directory", zap.Error(err))
	}
	write(logger, filepath.Join(*dataDir, "a-items.json"), source)
	write(logger, filepath.Join(*dataDir, "b-items.json"), target)
}

func write(logger *zap.Logger, path string, records []models.PriceRecord) {
	if err := export.WriteJSON(path, records); err != nil {
		logger.Fatal("failed to write snapshot", zap.String("path", path), zap.Error(err))
	}
	logger.Info("snapshot written", zap.String("path", path), zap.Int("items", len(records)))
}
