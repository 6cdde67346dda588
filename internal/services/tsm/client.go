// Package tsm talks to the TradeSkillMaster auth and pricing APIs.
package tsm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ah-arbitrage/internal/models"
	"ah-arbitrage/internal/retrier"
)

const (
	DefaultAuthURL    = "https://auth.tradeskillmaster.com/oauth2/token"
	DefaultPricingURL = "https://pricing-api.tradeskillmaster.com"
	DefaultClientID   = "c260f00d-1071-409a-992f-dda2e5498536"

	grantType = "api_token"
	scope     = "app:realm-api app:pricing-api"

	// tokens are refreshed this long before they expire
	tokenExpiryMargin = time.Minute
	defaultTokenTTL   = time.Hour
)

var (
	// ErrMissingAPIKey is returned when no TSM API key is configured.
	ErrMissingAPIKey = errors.New("tsm api key is not configured")
	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected status from tsm")
)

// Config configures a Client.
type Config struct {
	APIKey     string
	ClientID   string
	AuthURL    string
	PricingURL string
	Timeout    time.Duration
}

type tokenRequest struct {
	ClientID  string `json:"client_id"`
	GrantType string `json:"grant_type"`
	Scope     string `json:"scope"`
	Token     string `json:"token"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Client fetches auction house snapshots. It is safe for concurrent use.
type Client struct {
	cfg     Config
	client  *resty.Client
	retrier *retrier.Retrier
	logger  *zap.Logger
	now     func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithRetrier replaces the default retry policy.
func WithRetrier(r *retrier.Retrier) Option {
	return func(c *Client) { c.retrier = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a TSM client. Empty URLs and client id fall back to the public defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.PricingURL == "" {
		cfg.PricingURL = DefaultPricingURL
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.PricingURL = strings.TrimRight(cfg.PricingURL, "/")

	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Accept", "application/json")

	c := &Client{
		cfg:     cfg,
		client:  client,
		retrier: retrier.New(),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns a valid access token, requesting a new one when the cached one
// is missing or about to expire.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}
	if c.cfg.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	tok, err := retrier.DoWithData(c.retrier, ctx, c.requestToken)
	if err != nil {
		return "", errors.Wrap(err, "tsm auth")
	}

	ttl := time.Duration(tok.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	c.token = tok.AccessToken
	c.tokenExpiry = c.now().Add(ttl - tokenExpiryMargin)
	return c.token, nil
}

func (c *Client) requestToken(ctx context.Context) (tokenResponse, error) {
	var tok tokenResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(tokenRequest{
			ClientID:  c.cfg.ClientID,
			GrantType: grantType,
			Scope:     scope,
			Token:     c.cfg.APIKey,
		}).
		Post(c.cfg.AuthURL)
	if err != nil {
		return tok, err
	}
	if err := checkStatus(resp); err != nil {
		return tok, err
	}
	if err := json.Unmarshal(resp.Body(), &tok); err != nil {
		return tok, retrier.Permanent(errors.Wrap(err, "decode token response"))
	}
	if tok.AccessToken == "" {
		return tok, retrier.Permanent(errors.New("token response has no access_token"))
	}
	return tok, nil
}

// AuctionHouse downloads the current snapshot of one auction house.
func (c *Client) AuctionHouse(ctx context.Context, auctionHouseID int64) ([]models.PriceRecord, error) {
	url := fmt.Sprintf("%s/ah/%d", c.cfg.PricingURL, auctionHouseID)
	started := c.now()

	items, err := retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) ([]models.PriceRecord, error) {
		token, err := c.Token(ctx)
		if err != nil {
			return nil, retrier.Permanent(err)
		}

		resp, err := c.client.R().
			SetContext(ctx).
			SetAuthToken(token).
			Get(url)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() == http.StatusUnauthorized {
			c.invalidateToken()
		}
		if err := checkStatus(resp); err != nil {
			return nil, err
		}

		var items []models.PriceRecord
		if err := json.Unmarshal(resp.Body(), &items); err != nil {
			return nil, retrier.Permanent(errors.Wrap(err, "decode auction house snapshot"))
		}
		return items, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetch auction house %d", auctionHouseID)
	}

	c.logger.Info("auction house fetched",
		zap.Int64("auction_house_id", auctionHouseID),
		zap.Int("items", len(items)),
		zap.Duration("took", c.now().Sub(started)))
	return items, nil
}

// FetchPair downloads both snapshots of pair concurrently.
func (c *Client) FetchPair(ctx context.Context, pair models.MarketPair) (source, target []models.PriceRecord, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		source, err = c.AuctionHouse(gctx, pair.SourceID)
		return err
	})
	g.Go(func() error {
		var err error
		target, err = c.AuctionHouse(gctx, pair.TargetID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return source, target, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

// checkStatus turns a non-2xx response into ErrUnexpectedStatus. Client errors
// other than 401 and 429 are permanent.
func checkStatus(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= 200 && code < 300 {
		return nil
	}
	err := errors.Wrapf(ErrUnexpectedStatus, "%s %s returned %d", resp.Request.Method, resp.Request.URL, code)
	if code >= 400 && code < 500 && code != http.StatusUnauthorized && code != http.StatusTooManyRequests {
		return retrier.Permanent(err)
	}
	return err
}
