// Package amazon searches the Product Advertising API 5.0 with SigV4-signed
// SearchItems requests.
package amazon

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"

	"github.com/alanyoungcy/arbscout/internal/domain"
	"github.com/alanyoungcy/arbscout/internal/platform"
)

const (
	searchItemsPath   = "/paapi5/searchitems"
	searchItemsTarget = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.SearchItems"
	signingService    = "ProductAdvertisingAPI"

	// PA-API returns at most 10 items per page and 10 pages per query.
	pageSize = 10
	maxPages = 10
)

var searchResources = []string{
	"ItemInfo.Title",
	"ItemInfo.Classifications",
	"Images.Primary.Medium",
	"Offers.Listings.Price",
	"Offers.Listings.Condition",
	"Offers.Listings.DeliveryInfo.IsFreeShippingEligible",
	"Offers.Listings.MerchantInfo",
	"Offers.Listings.Availability.MaxOrderQuantity",
}

// Config holds the PA-API credentials and locale.
type Config struct {
	// Endpoint overrides https://{Host}; used by tests.
	Endpoint          string
	AccessKey         string
	SecretKey         string
	PartnerTag        string
	Host              string
	Region            string
	Marketplace       string
	RequestsPerSecond float64
	Timeout           time.Duration
	// Shared spreads RequestsPerSecond across replicas; nil paces locally.
	Shared domain.RateLimiter
}

// Client implements domain.ListingSource for Amazon.
type Client struct {
	cfg        Config
	endpoint   string
	creds      aws.Credentials
	signer     *v4.Signer
	httpClient *http.Client
	pacer      *platform.Pacer
	logger     *slog.Logger
	now        func() time.Time
}

// New creates an Amazon client.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = "https://" + cfg.Host
	}
	logger = logger.With(slog.String("component", "amazon"))
	return &Client{
		cfg:      cfg,
		endpoint: endpoint,
		creds: aws.Credentials{
			AccessKeyID:     cfg.AccessKey,
			SecretAccessKey: cfg.SecretKey,
			Source:          "arbscout",
		},
		signer:     v4.NewSigner(),
		httpClient: &http.Client{Timeout: timeout},
		pacer:      platform.NewPacer(domain.PlatformAmazon, cfg.RequestsPerSecond, cfg.Shared, logger),
		logger:     logger,
		now:        time.Now,
	}
}

// Platform returns domain.PlatformAmazon.
func (c *Client) Platform() domain.Platform { return domain.PlatformAmazon }

// Search pages through SearchItems until limit listings are collected or
// results run out.
func (c *Client) Search(ctx context.Context, keyword string, limit int) ([]domain.Listing, error) {
	if limit <= 0 {
		limit = 50
	}

	var listings []domain.Listing
	for page := 1; page <= maxPages && len(listings) < limit; page++ {
		items, err := c.searchPage(ctx, keyword, page)
		if err != nil {
			if page > 1 {
				c.logger.WarnContext(ctx, "stopping pagination",
					slog.String("keyword", keyword),
					slog.Int("page", page),
					slog.String("error", err.Error()),
				)
				break
			}
			return nil, fmt.Errorf("amazon: search %q: %w", keyword, err)
		}
		for _, it := range items {
			if l, ok := it.toListing(); ok {
				listings = append(listings, l)
			}
		}
		if len(items) < pageSize {
			break
		}
	}
	if len(listings) > limit {
		listings = listings[:limit]
	}
	return listings, nil
}

func (c *Client) searchPage(ctx context.Context, keyword string, page int) ([]item, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(searchItemsRequest{
		Keywords:    keyword,
		PartnerTag:  c.cfg.PartnerTag,
		PartnerType: "Associates",
		Marketplace: c.cfg.Marketplace,
		SearchIndex: "All",
		ItemCount:   pageSize,
		ItemPage:    page,
		Resources:   searchResources,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+searchItemsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Content-Encoding", "amz-1.0")
	req.Header.Set("X-Amz-Target", searchItemsTarget)
	req.Header.Set("Accept", "application/json")
	if err := c.sign(ctx, req, payload); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var result searchItemsResponse
	_ = json.Unmarshal(body, &result)
	if result.noResults() {
		return nil, nil
	}
	if err := checkStatus(resp.StatusCode, result); err != nil {
		return nil, err
	}
	if result.SearchResult == nil {
		return nil, nil
	}
	return result.SearchResult.Items, nil
}

func (c *Client) sign(ctx context.Context, req *http.Request, payload []byte) error {
	sum := sha256.Sum256(payload)
	err := c.signer.SignHTTP(ctx, c.creds, req, hex.EncodeToString(sum[:]), signingService, c.cfg.Region, c.now().UTC())
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}
	return nil
}

func checkStatus(statusCode int, result searchItemsResponse) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	msg := result.errorMessage()
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
