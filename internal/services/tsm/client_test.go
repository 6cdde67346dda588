package tsm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ah-arbitrage/internal/models"
	"ah-arbitrage/internal/retrier"
)

type fakeTSM struct {
	tokenCalls   atomic.Int32
	pricingCalls atomic.Int32
	failFirst    atomic.Int32 // number of pricing calls answered with 500
	mu           sync.Mutex
	lastBody     tokenRequest
	snapshots    map[string][]models.PriceRecord
}

func (f *fakeTSM) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		var body tokenRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.lastBody = body
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "secret-token", ExpiresIn: 3600, TokenType: "Bearer"})
	})
	mux.HandleFunc("/ah/", func(w http.ResponseWriter, r *http.Request) {
		f.pricingCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer secret-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if f.failFirst.Load() > 0 {
			f.failFirst.Add(-1)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		items, ok := f.snapshots[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(items)
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeTSM) *Client {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	return NewClient(Config{
		APIKey:     "my-api-key",
		AuthURL:    srv.URL + "/oauth2/token",
		PricingURL: srv.URL + "/",
		Timeout:    5 * time.Second,
	}, WithRetrier(retrier.New(retrier.WithMaxRetries(2), retrier.WithInitialInterval(time.Millisecond))))
}

func TestClient_AuctionHouse(t *testing.T) {
	f := &fakeTSM{snapshots: map[string][]models.PriceRecord{
		"/ah/564": {{AuctionHouseID: 564, ItemID: 2589, MarketValue: 1200, MinBuyout: 1100, NumAuctions: 40}},
	}}
	c := newTestClient(t, f)

	items, err := c.AuctionHouse(context.Background(), 564)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2589), items[0].ItemID)
	assert.Equal(t, int64(1200), items[0].MarketValue)

	f.mu.Lock()
	body := f.lastBody
	f.mu.Unlock()
	assert.Equal(t, DefaultClientID, body.ClientID)
	assert.Equal(t, "api_token", body.GrantType)
	assert.Equal(t, "app:realm-api app:pricing-api", body.Scope)
	assert.Equal(t, "my-api-key", body.Token)
}

func TestClient_ReusesToken(t *testing.T) {
	f := &fakeTSM{snapshots: map[string][]models.PriceRecord{
		"/ah/564": {{ItemID: 1}},
		"/ah/560": {{ItemID: 2}},
	}}
	c := newTestClient(t, f)

	source, target, err := c.FetchPair(context.Background(), models.MarketPair{SourceID: 564, TargetID: 560})
	require.NoError(t, err)
	assert.Equal(t, int64(1), source[0].ItemID)
	assert.Equal(t, int64(2), target[0].ItemID)

	_, err = c.AuctionHouse(context.Background(), 564)
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.tokenCalls.Load())
}

func TestClient_RefreshesExpiredToken(t *testing.T) {
	f := &fakeTSM{snapshots: map[string][]models.PriceRecord{"/ah/1": {}}}
	c := newTestClient(t, f)
	now := time.Now()
	c.now = func() time.Time { return now }

	_, err := c.Token(context.Background())
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = c.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.tokenCalls.Load())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	f := &fakeTSM{snapshots: map[string][]models.PriceRecord{"/ah/564": {{ItemID: 1}}}}
	f.failFirst.Store(2)
	c := newTestClient(t, f)

	items, err := c.AuctionHouse(context.Background(), 564)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int32(3), f.pricingCalls.Load())
}

func TestClient_DoesNotRetryNotFound(t *testing.T) {
	f := &fakeTSM{snapshots: map[string][]models.PriceRecord{}}
	c := newTestClient(t, f)

	_, err := c.AuctionHouse(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
	assert.Equal(t, int32(1), f.pricingCalls.Load())
}

func TestClient_FetchPairFailsIfEitherSideFails(t *testing.T) {
	f := &fakeTSM{snapshots: map[string][]models.PriceRecord{"/ah/564": {{ItemID: 1}}}}
	c := newTestClient(t, f)

	_, _, err := c.FetchPair(context.Background(), models.MarketPair{SourceID: 564, TargetID: 404})
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
}

func TestClient_MissingAPIKey(t *testing.T) {
	c := NewClient(Config{AuthURL: "http://127.0.0.1:0/token"})
	_, err := c.AuctionHouse(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}
