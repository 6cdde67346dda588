package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ah-arbitrage/internal/compare"
	"ah-arbitrage/internal/config"
	"ah-arbitrage/internal/export"
	"ah-arbitrage/internal/logging"
	"ah-arbitrage/internal/models"
	"ah-arbitrage/internal/report"
	"ah-arbitrage/internal/services/catalog"
)

var (
	dataDir = flag.String("data", "./data", "directory holding a-items.json and b-items.json")
	top     = flag.Int("top", 30, "number of rows printed")
	xlsx    = flag.Bool("xlsx", false, "also write compared-items.xlsx")
)

func main() {
	flag.Parse()

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

	source := readSnapshot(logger, filepath.Join(*dataDir, "a-items.json"))
	target := readSnapshot(logger, filepath.Join(*dataDir, "b-items.json"))

	items, rejected, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		logger.Fatal("failed to load item catalog", zap.Error(err))
	}
	if len(rejected) > 0 {
		logger.Warn("dropped malformed catalog entries", zap.Int("count", len(rejected)))
	}

	ranked, err := compare.Compare(source, target, items, policy)
	if err != nil {
		logger.Fatal("comparison failed", zap.Error(err))
	}

	out := filepath.Join(*dataDir, "compared-items.json")
	if err := export.WriteJSON(out, ranked); err != nil {
		logger.Fatal("failed to write comparison", zap.Error(err))
	}
	logger.Info("comparison written", zap.String("path", out), zap.Int("items", len(ranked)))

	if *xlsx {
		path := filepath.Join(*dataDir, "compared-items.xlsx")
		if err := export.WriteXLSXFile(path, ranked); err != nil {
			logger.Fatal("failed to write spreadsheet", zap.Error(err))
		}
		logger.Info("spreadsheet written", zap.String("path", path))
	}

	fmt.Println(report.Table(ranked, *top))
}

func readSnapshot(logger *zap.Logger, path string) []models.PriceRecord {
	var records []models.PriceRecord
	if err := export.ReadJSON(path, &records); err != nil {
		logger.Fatal("failed to read snapshot", zap.Error(err))
	}

	valid, rejected := compare.SanitizePrices(records)
	if len(rejected) > 0 {
		logger.Warn("dropped malformed price records", zap.String("path", path), zap.Int("count", len(rejected)))
	}
	return valid
}
