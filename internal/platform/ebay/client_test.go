package ebay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

const searchBody = `{
  "total": 3,
  "itemSummaries": [
    {
      "itemId": "v1|111|0",
      "title": "Apple AirPods Pro 2nd Gen",
      "price": {"value": "179.99", "currency": "GBP"},
      "itemWebUrl": "https://www.ebay.co.uk/itm/111",
      "condition": "New",
      "shippingOptions": [{"shippingCost": {"value": "3.50", "currency": "GBP"}}],
      "seller": {"username": "gadgets", "feedbackPercentage": "98.0"},
      "estimatedAvailabilities": [{"availabilityThreshold": 10}],
      "categories": [{"categoryName": "Headphones"}],
      "image": {"imageUrl": "https://i.ebayimg.com/111.jpg"}
    },
    {
      "itemId": "v1|222|0",
      "title": "Broken price",
      "price": {"value": "n/a"}
    },
    {
      "itemId": "v1|333|0",
      "title": "Echo Dot",
      "price": {"value": "29.99"}
    }
  ]
}`

func newTestServer(t *testing.T, search http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+tokenPath, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "app" || pass != "cert" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":7200}`))
	})
	mux.HandleFunc("GET "+searchPath, search)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(baseURL string) *Client {
	return New(Config{
		BaseURL:         baseURL,
		ClientID:        "app",
		ClientSecret:    "cert",
		MarketplaceID:   "EBAY_GB",
		DeliveryCountry: "GB",
		Timeout:         5 * time.Second,
	}, nil)
}

func TestSearch_MapsItemSummaries(t *testing.T) {
	// Arrange
	var gotQuery, gotFilter, gotLimit, gotAuth, gotMarket string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotFilter = r.URL.Query().Get("filter")
		gotLimit = r.URL.Query().Get("limit")
		gotAuth = r.Header.Get("Authorization")
		gotMarket = r.Header.Get("X-EBAY-C-MARKETPLACE-ID")
		_, _ = w.Write([]byte(searchBody))
	})
	c := newTestClient(srv.URL)

	// Act
	listings, err := c.Search(context.Background(), "airpods pro", 50)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "airpods pro", gotQuery)
	assert.Equal(t, "conditions:{NEW},deliveryCountry:GB", gotFilter)
	assert.Equal(t, "50", gotLimit)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "EBAY_GB", gotMarket)

	require.Len(t, listings, 2)
	first := listings[0]
	assert.Equal(t, domain.PlatformEbay, first.Platform)
	assert.Equal(t, "v1|111|0", first.ProductID)
	assert.Equal(t, "179.99", first.Price.StringFixed(2))
	assert.Equal(t, "3.50", first.Shipping.StringFixed(2))
	assert.InDelta(t, 4.9, first.SellerRating, 1e-9)
	assert.Equal(t, 10, first.Stock)
	assert.Equal(t, "Headphones", first.Category)
	assert.Equal(t, "gadgets", first.SellerID)

	second := listings[1]
	assert.Equal(t, "GBP", second.Currency)
	assert.True(t, second.Shipping.IsZero())
	assert.Zero(t, second.SellerRating)
}

func TestSearch_CapsPageSize(t *testing.T) {
	var gotLimit string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`{"total":0}`))
	})

	listings, err := newTestClient(srv.URL).Search(context.Background(), "x", 1000)

	require.NoError(t, err)
	assert.Empty(t, listings)
	assert.Equal(t, "200", gotLimit)
}

func TestSearch_ErrorStatus(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"errors":[{"errorId":2001,"message":"Too many requests"}]}`))
	})

	_, err := newTestClient(srv.URL).Search(context.Background(), "x", 10)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Contains(t, err.Error(), "Too many requests (2001)")
}

func TestSellerRating(t *testing.T) {
	cases := map[string]float64{
		"100":  5,
		"98.0": 4.9,
		"":     0,
		"abc":  0,
		"250":  5,
	}
	for in, want := range cases {
		assert.InDelta(t, want, sellerRating(in), 1e-9, in)
	}
}

type sharedQuota struct {
	keys []string
}

func (s *sharedQuota) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return true, nil
}

func (s *sharedQuota) Wait(_ context.Context, key string, _ int, _ time.Duration) error {
	s.keys = append(s.keys, key)
	return nil
}

func TestSearch_DrawsFromSharedQuota(t *testing.T) {
	// Arrange
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searchBody))
	})
	quota := &sharedQuota{}
	c := New(Config{
		BaseURL:           srv.URL,
		ClientID:          "app",
		ClientSecret:      "cert",
		MarketplaceID:     "EBAY_GB",
		DeliveryCountry:   "GB",
		RequestsPerSecond: 50,
		Timeout:           5 * time.Second,
		Shared:            quota,
	}, nil)

	// Act
	_, err1 := c.Search(context.Background(), "airpods", 10)
	_, err2 := c.Search(context.Background(), "kindle", 10)

	// Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, []string{"source:ebay", "source:ebay"}, quota.keys)
}
