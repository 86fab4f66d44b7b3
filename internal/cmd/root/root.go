// Package root provides the root command and global options.
package root

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/open-cli-collective/shopify-cli/api"
	"github.com/open-cli-collective/shopify-cli/api/bulk"
	"github.com/open-cli-collective/shopify-cli/api/staged"
	"github.com/open-cli-collective/shopify-cli/internal/auth"
	"github.com/open-cli-collective/shopify-cli/internal/config"
	"github.com/open-cli-collective/shopify-cli/internal/keychain"
	"github.com/open-cli-collective/shopify-cli/internal/logging"
	"github.com/open-cli-collective/shopify-cli/internal/version"
	"github.com/open-cli-collective/shopify-cli/internal/view"
)

// Options contains global options for commands
type Options struct {
	Output     string
	NoColor    bool
	Verbose    bool
	APIVersion string
	Attempts   uint
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer

	// testClient is used for testing; if set, APIClient() returns this instead
	testClient *api.Client
	// testBulkClient is used for testing; if set, BulkClient() returns this instead
	testBulkClient *bulk.Client
	// testStagedClient is used for testing; if set, StagedClient() returns this instead
	testStagedClient *staged.Client
	// testConfig is used for testing; if set, Config() returns this instead
	testConfig *config.Config
}

// View returns a configured View instance
func (o *Options) View() *view.View {
	v := view.NewWithFormat(o.Output, o.NoColor)
	v.Out = o.Stdout
	v.Err = o.Stderr
	return v
}

// Logger returns a logger writing to Stderr; debug output needs --verbose.
func (o *Options) Logger() *zap.Logger {
	return logging.New(o.Stderr, logging.Options{Verbose: o.Verbose, NoColor: o.NoColor})
}

// Config loads and validates the configuration.
func (o *Options) Config() (*config.Config, error) {
	if o.testConfig != nil {
		return o.testConfig, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetConfig sets a test configuration (for testing only)
func (o *Options) SetConfig(cfg *config.Config) {
	o.testConfig = cfg
}

// PollConfig returns the bulk polling settings from config, bounded by timeout.
func (o *Options) PollConfig(timeout time.Duration) bulk.PollConfig {
	poll := bulk.DefaultPollConfig()
	if cfg, err := o.Config(); err == nil {
		poll.Interval = cfg.PollIntervalDuration()
	}
	poll.Timeout = timeout
	return poll
}

// APIClient creates a new API client from config and stored credentials
func (o *Options) APIClient(ctx context.Context) (*api.Client, error) {
	if o.testClient != nil {
		return o.testClient, nil
	}

	cfg, err := o.Config()
	if err != nil {
		return nil, err
	}
	if cfg.Shop == "" {
		return nil, api.ErrShopRequired
	}

	logger := o.Logger()
	if path, err := config.GetTokenPath(); err == nil {
		if err := keychain.MigrateFromFile(path); err != nil {
			logger.Warn("token file migration failed", zap.Error(err))
		}
	}

	token, _, err := auth.ResolveAccessToken(ctx, cfg)
	if err != nil {
		return nil, err
	}

	apiVersion := cfg.APIVersion
	if o.APIVersion != "" {
		apiVersion = o.APIVersion
	}
	attempts := cfg.MaxAttempts
	if o.Attempts > 0 {
		attempts = o.Attempts
	}

	return api.New(api.ClientConfig{
		Shop:        cfg.Shop,
		AccessToken: token,
		APIVersion:  api.Version(apiVersion),
		MaxAttempts: attempts,
		RateLimit:   cfg.RateLimit,
		UserAgent:   version.UserAgent(),
		Logger:      logger,
	})
}

// SetAPIClient sets a test client (for testing only)
func (o *Options) SetAPIClient(client *api.Client) {
	o.testClient = client
}

// StagedClient creates a staged upload client on top of APIClient
func (o *Options) StagedClient(ctx context.Context) (*staged.Client, error) {
	if o.testStagedClient != nil {
		return o.testStagedClient, nil
	}

	client, err := o.APIClient(ctx)
	if err != nil {
		return nil, err
	}
	return staged.New(staged.ClientConfig{API: client})
}

// SetStagedClient sets a test staged upload client (for testing only)
func (o *Options) SetStagedClient(client *staged.Client) {
	o.testStagedClient = client
}

// BulkClient creates a bulk operation client on top of APIClient
func (o *Options) BulkClient(ctx context.Context) (*bulk.Client, error) {
	if o.testBulkClient != nil {
		return o.testBulkClient, nil
	}

	client, err := o.APIClient(ctx)
	if err != nil {
		return nil, err
	}
	stagedClient, err := o.StagedClient(ctx)
	if err != nil {
		return nil, err
	}
	return bulk.New(bulk.ClientConfig{API: client, Staged: stagedClient})
}

// SetBulkClient sets a test bulk client (for testing only)
func (o *Options) SetBulkClient(client *bulk.Client) {
	o.testBulkClient = client
}

// NewCmd creates the root command and returns the options struct
func NewCmd() (*cobra.Command, *Options) {
	opts := &Options{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	cmd := &cobra.Command{
		Use:   "shopctl",
		Short: "A CLI for Shopify bulk operations",
		Long: `shopctl is a command-line interface for the Shopify Admin GraphQL API.

It runs bulk queries and bulk mutations, stages uploads, waits for bulk
operations to finish and downloads their JSONL results.
Run 'shopctl init' to set up authentication.`,
		Version:       version.Info(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return view.ValidateFormat(opts.Output)
		},
	}

	// Global flags - bound to opts struct
	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "table", "Output format: table, json, plain")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Log requests and responses to stderr")
	cmd.PersistentFlags().StringVar(&opts.APIVersion, "api-version", "", "Admin API version (default: "+string(api.DefaultAPIVersion)+")")
	cmd.PersistentFlags().UintVar(&opts.Attempts, "attempts", 0, "Attempts per remote call (default: from config, 10)")

	return cmd, opts
}

// RegisterCommands registers subcommands with the root command
func RegisterCommands(root *cobra.Command, opts *Options, registrars ...func(*cobra.Command, *Options)) {
	for _, register := range registrars {
		register(root, opts)
	}
}
