// Package ebay searches the eBay Browse API for new items that can be
// delivered to the configured country.
package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/alanyoungcy/arbscout/internal/domain"
	"github.com/alanyoungcy/arbscout/internal/platform"
)

const (
	tokenPath  = "/identity/v1/oauth2/token"
	searchPath = "/buy/browse/v1/item_summary/search"
	apiScope   = "https://api.ebay.com/oauth/api_scope"

	// maxPageSize is the Browse API limit per request.
	maxPageSize = 200
)

// Config holds the Browse API credentials and endpoint.
type Config struct {
	BaseURL           string
	ClientID          string
	ClientSecret      string
	MarketplaceID     string
	DeliveryCountry   string
	RequestsPerSecond float64
	Timeout           time.Duration
	// Shared spreads RequestsPerSecond across replicas; nil paces locally.
	Shared domain.RateLimiter
}

// Client implements domain.ListingSource for eBay. Application tokens are
// fetched and refreshed by the oauth2 client-credentials transport.
type Client struct {
	baseURL       string
	marketplaceID string
	filter        string
	httpClient    *http.Client
	pacer         *platform.Pacer
	logger        *slog.Logger
}

// New creates an eBay client.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     baseURL + tokenPath,
		Scopes:       []string{apiScope},
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	// Token requests use the same timeout as searches.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
	httpClient := cc.Client(tokenCtx)
	httpClient.Timeout = timeout

	logger = logger.With(slog.String("component", "ebay"))
	return &Client{
		baseURL:       baseURL,
		marketplaceID: cfg.MarketplaceID,
		filter:        fmt.Sprintf("conditions:{NEW},deliveryCountry:%s", cfg.DeliveryCountry),
		httpClient:    httpClient,
		pacer:         platform.NewPacer(domain.PlatformEbay, cfg.RequestsPerSecond, cfg.Shared, logger),
		logger:        logger,
	}
}

// Platform returns domain.PlatformEbay.
func (c *Client) Platform() domain.Platform { return domain.PlatformEbay }

// Search returns up to limit listings for keyword. Items that cannot be
// priced are skipped.
func (c *Client) Search(ctx context.Context, keyword string, limit int) ([]domain.Listing, error) {
	if limit <= 0 {
		limit = 50
	}
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, fmt.Errorf("ebay: search %q: %w", keyword, err)
	}

	params := url.Values{}
	params.Set("q", keyword)
	params.Set("limit", strconv.Itoa(min(limit, maxPageSize)))
	params.Set("filter", c.filter)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+searchPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("ebay: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", c.marketplaceID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ebay: search %q: %w", keyword, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ebay: read response: %w", err)
	}
	if err := checkStatus(resp.StatusCode, body); err != nil {
		return nil, fmt.Errorf("ebay: search %q: %w", keyword, err)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("ebay: decode search: %w", err)
	}

	listings := make([]domain.Listing, 0, len(result.ItemSummaries))
	for _, item := range result.ItemSummaries {
		l, err := item.toListing()
		if err != nil {
			c.logger.WarnContext(ctx, "skipping item",
				slog.String("item_id", item.ItemID),
				slog.String("error", err.Error()),
			)
			continue
		}
		listings = append(listings, l)
	}
	c.logger.DebugContext(ctx, "search complete",
		slog.String("keyword", keyword),
		slog.Int("total", result.Total),
		slog.Int("listings", len(listings)),
	)
	return listings, nil
}

// checkStatus maps non-2xx responses to errors, wrapping the domain
// sentinels where one applies.
func checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr errorResponse
	_ = json.Unmarshal(body, &apiErr)
	msg := apiErr.message()

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, msg)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, msg)
	}
}

var _ domain.ListingSource = (*Client)(nil)
