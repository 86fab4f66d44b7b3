package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultMaxAttempts is how many times a remote call is attempted before giving up
const DefaultMaxAttempts uint = 10

// AccessTokenHeader carries the Admin API access token
const AccessTokenHeader = "X-Shopify-Access-Token"

// Client is a Shopify Admin GraphQL API client. It is immutable after New and
// safe for concurrent use; calls share no state apart from the optional rate
// limiter.
type Client struct {
	httpClient  *http.Client
	shop        string
	accessToken string
	apiVersion  Version
	baseURL     string
	graphqlURL  string
	userAgent   string
	maxAttempts uint
	limiter     *rate.Limiter
	logger      *zap.Logger
}

// ClientConfig contains configuration for creating a new client
type ClientConfig struct {
	// Shop is the shop name or domain (e.g., my-shop or my-shop.myshopify.com)
	Shop string

	// AccessToken is the Admin API access token sent on every call
	AccessToken string

	// APIVersion is the API version to use (optional, defaults to DefaultAPIVersion)
	APIVersion Version

	// HTTPClient is the underlying HTTP client (optional, defaults to a client with a 60s timeout)
	HTTPClient *http.Client

	// BaseURL overrides https://{shop domain} (optional, used for testing and proxies)
	BaseURL string

	// MaxAttempts bounds the attempts per remote call (optional, defaults to DefaultMaxAttempts)
	MaxAttempts uint

	// RateLimit caps outgoing GraphQL calls per second (optional, 0 disables)
	RateLimit float64

	// UserAgent is sent with every request (optional)
	UserAgent string

	// Logger receives debug output (optional, defaults to a no-op logger)
	Logger *zap.Logger

	// Now is the clock used to resolve deprecated API versions (optional)
	Now func() time.Time
}

// New creates a new Shopify API client
func New(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.Shop) == "" {
		return nil, ErrShopRequired
	}
	if cfg.AccessToken == "" {
		return nil, ErrAccessTokenRequired
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	if _, err := ParseVersion(string(apiVersion)); err != nil {
		return nil, err
	}
	if effective := apiVersion.Effective(now()); effective != apiVersion {
		logger.Warn("API version is out of support, using unstable instead",
			zap.String("api_version", string(apiVersion)),
			zap.Time("support_ended", apiVersion.SupportEndsAt()))
		apiVersion = effective
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxAttempts
	}

	shop := ShopDomain(cfg.Shop)
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://" + shop
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		httpClient:  httpClient,
		shop:        shop,
		accessToken: cfg.AccessToken,
		apiVersion:  apiVersion,
		baseURL:     baseURL,
		graphqlURL:  fmt.Sprintf("%s/admin/api/%s/graphql.json", baseURL, apiVersion),
		userAgent:   cfg.UserAgent,
		maxAttempts: maxAttempts,
		limiter:     limiter,
		logger:      logger,
	}, nil
}

// ShopDomain normalizes a shop name to its myshopify.com domain
func ShopDomain(shop string) string {
	shop = strings.TrimSpace(shop)
	shop = strings.TrimPrefix(shop, "https://")
	shop = strings.TrimPrefix(shop, "http://")
	shop = strings.TrimSuffix(shop, "/")

	if !strings.HasSuffix(shop, ".myshopify.com") {
		shop += ".myshopify.com"
	}
	return shop
}

// Shop returns the shop domain
func (c *Client) Shop() string {
	return c.shop
}

// APIVersion returns the API version in use (after deprecation fallback)
func (c *Client) APIVersion() Version {
	return c.apiVersion
}

// GraphQLURL returns the GraphQL endpoint
func (c *Client) GraphQLURL() string {
	return c.graphqlURL
}

// AdminURL returns the web admin URL for the shop
func (c *Client) AdminURL() string {
	return c.baseURL + "/admin"
}

// MaxAttempts returns the attempt bound applied to every remote call
func (c *Client) MaxAttempts() uint {
	return c.maxAttempts
}

// HTTPClient returns the underlying HTTP client
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Logger returns the client's logger
func (c *Client) Logger() *zap.Logger {
	return c.logger
}
