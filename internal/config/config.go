package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"ah-arbitrage/internal/compare"
	"ah-arbitrage/internal/models"
)

const (
	DefaultSourceAuctionHouse = 564
	DefaultTargetAuctionHouse = 560
)

type Config struct {
	Port        string
	Environment string

	// TradeSkillMaster API
	TSMAPIKey     string
	TSMClientID   string
	TSMAuthURL    string
	TSMPricingURL string

	// Default market pair when a request does not name one
	SourceAuctionHouse int64
	TargetAuctionHouse int64

	CatalogPath string
	CacheTTL    time.Duration

	// Redis is used for the shared cache when RedisAddr is set
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Comparison runs are persisted when DatabaseURL is set
	DatabaseURL string

	PolicyPath string
	WebDir     string
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "3001"),
		Environment: getEnv("ENVIRONMENT", "development"),

		TSMAPIKey:     getEnv("TSM_API_KEY", ""),
		TSMClientID:   getEnv("TSM_CLIENT_ID", ""),
		TSMAuthURL:    getEnv("TSM_AUTH_URL", ""),
		TSMPricingURL: getEnv("TSM_PRICING_URL", ""),

		SourceAuctionHouse: getEnvInt64("SOURCE_AUCTION_HOUSE_ID", DefaultSourceAuctionHouse),
		TargetAuctionHouse: getEnvInt64("TARGET_AUCTION_HOUSE_ID", DefaultTargetAuctionHouse),

		CatalogPath: getEnv("CATALOG_PATH", "./data/all-items-dictionary.json"),
		CacheTTL:    getEnvDuration("CACHE_TTL", 15*time.Minute),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       int(getEnvInt64("REDIS_DB", 0)),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		PolicyPath: getEnv("POLICY_PATH", ""),
		WebDir:     getEnv("WEB_DIR", "./web/dist"),
	}
}

// DefaultPair is the market pair served when a request names none.
func (c *Config) DefaultPair() models.MarketPair {
	return models.MarketPair{SourceID: c.SourceAuctionHouse, TargetID: c.TargetAuctionHouse}
}

// Policy returns the eligibility policy: the defaults, overridden by the YAML
// file at PolicyPath when one is configured.
func (c *Config) Policy() (compare.Policy, error) {
	if c.PolicyPath == "" {
		return compare.DefaultPolicy(), nil
	}
	return LoadPolicy(c.PolicyPath)
}

// policyFile mirrors compare.Policy with optional fields, so a file can
// override a subset of the defaults.
type policyFile struct {
	AllowedClasses []string `yaml:"allowed_classes"`
	LiquidityFloor *int64   `yaml:"liquidity_floor"`
	Threshold      *float64 `yaml:"threshold"`
	MinAuctions    *int64   `yaml:"min_auctions"`
}

// LoadPolicy reads a policy YAML file. Keys missing from the file keep their
// default values.
func LoadPolicy(path string) (compare.Policy, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return compare.Policy{}, errors.Wrapf(err, "read policy %s", path)
	}

	var pf policyFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return compare.Policy{}, errors.Wrapf(err, "parse policy %s", path)
	}

	p := compare.DefaultPolicy()
	if len(pf.AllowedClasses) > 0 {
		p.AllowedClasses = make([]string, 0, len(pf.AllowedClasses))
		for _, c := range pf.AllowedClasses {
			p.AllowedClasses = append(p.AllowedClasses, strings.ToLower(strings.TrimSpace(c)))
		}
	}
	if pf.LiquidityFloor != nil {
		p.LiquidityFloor = *pf.LiquidityFloor
	}
	if pf.Threshold != nil {
		p.Threshold = *pf.Threshold
	}
	if pf.MinAuctions != nil {
		p.MinAuctions = *pf.MinAuctions
	}

	if err := p.Validate(); err != nil {
		return compare.Policy{}, errors.Wrapf(err, "policy %s", path)
	}
	return p, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
