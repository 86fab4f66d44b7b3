package bulk

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/open-cli-collective/shopify-cli/api"
	"github.com/open-cli-collective/shopify-cli/api/staged"
)

// Client is a bulk operation client.
type Client struct {
	api        *api.Client
	staged     *staged.Client
	httpClient *http.Client
	logger     *zap.Logger
	sleep      func(time.Duration) <-chan time.Time
	now        func() time.Time
}

// ClientConfig contains configuration for creating a new bulk client.
type ClientConfig struct {
	// API is the GraphQL client (required)
	API *api.Client
	// Staged performs the variables upload for bulk mutations (optional, built from API)
	Staged *staged.Client
	// HTTPClient downloads results (optional, defaults to the API client's HTTP client)
	HTTPClient *http.Client
}

// New creates a new bulk client.
func New(cfg ClientConfig) (*Client, error) {
	if cfg.API == nil {
		return nil, errors.New("API client is required")
	}

	stagedClient := cfg.Staged
	if stagedClient == nil {
		var err error
		stagedClient, err = staged.New(staged.ClientConfig{API: cfg.API})
		if err != nil {
			return nil, err
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = cfg.API.HTTPClient()
	}

	return &Client{
		api:        cfg.API,
		staged:     stagedClient,
		httpClient: httpClient,
		logger:     cfg.API.Logger().Named("bulk"),
		sleep:      time.After,
		now:        time.Now,
	}, nil
}
