package main

import (
	"flag"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"ah-arbitrage/internal/compare"
	"ah-arbitrage/internal/export"
	"ah-arbitrage/internal/logging"
	"ah-arbitrage/internal/models"
	"ah-arbitrage/internal/report"
)

var (
	dataDir = flag.String("data", "./data", "directory holding compared-items.json")
	limit   = flag.Int64("limit", 40, "buy limit: maximum source unit price in gold")
	verbose = flag.Bool("v", false, "print the buyable items")
)

func main() {
	flag.Parse()

	logger := logging.MustNew("development")
	defer logger.Sync()

	if *limit <= 0 {
		logger.Fatal("limit must be positive", zap.Int64("limit", *limit))
	}

	var compared []models.ComparisonRecord
	if err := export.ReadJSON(filepath.Join(*dataDir, "compared-items.json"), &compared); err != nil {
		logger.Fatal("failed to read comparison", zap.Error(err))
	}

	buyables := compare.Query{MaxSourceGold: *limit}.Apply(compared)

	out := filepath.Join(*dataDir, "buyables.json")
	if err := export.WriteJSON(out, buyables); err != nil {
		logger.Fatal("failed to write buyables", zap.Error(err))
	}
	logger.Info("buyables written",
		zap.String("path", out),
		zap.Int("items", len(buyables)),
		zap.Int("of", len(compared)))

	if *verbose {
		fmt.Println(report.Table(buyables, 0))
	}
}
