// Package configcmd provides the config command and subcommands.
package configcmd

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/shopify-cli/api"
	"github.com/open-cli-collective/shopify-cli/internal/auth"
	"github.com/open-cli-collective/shopify-cli/internal/cmd/root"
	"github.com/open-cli-collective/shopify-cli/internal/config"
	"github.com/open-cli-collective/shopify-cli/internal/keychain"
)

// Register registers the config command with the parent command.
func Register(parent *cobra.Command, opts *root.Options) {
	parent.AddCommand(NewCommand(opts))
}

// NewCommand returns the config command with subcommands.
func NewCommand(opts *root.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "View, change, test, and clear shopctl configuration.",
	}

	cmd.AddCommand(newShowCommand(opts))
	cmd.AddCommand(newSetCommand(opts))
	cmd.AddCommand(newTestCommand(opts))
	cmd.AddCommand(newClearCommand(opts))

	return cmd
}

func newShowCommand(opts *root.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long:  "Display the current configuration, including environment overrides and where the access token comes from.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), opts)
		},
	}
}

func newSetCommand(opts *root.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a configuration value",
		Long: `Change a configuration value and save it.

Keys: shop, api_version, max_attempts, poll_interval, rate_limit, client_id

Examples:
  shopctl config set api_version 2026-10
  shopctl config set poll_interval 5s`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(opts, args[0], args[1])
		},
	}
}

func newTestCommand(opts *root.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Verify authentication works",
		Long:  "Test the configured shop and access token by fetching the shop's details.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(cmd.Context(), opts)
		},
	}
}

func newClearCommand(opts *root.Options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove stored credentials",
		Long:  "Remove the stored access token and configuration. This will require re-running 'shopctl init'.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(opts, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func runShow(ctx context.Context, opts *root.Options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	notSet := func(s string) string {
		if s == "" {
			return "Not configured"
		}
		return s
	}

	token := "Not found"
	if _, method, err := auth.TokenSource(ctx, cfg); err == nil {
		token = string(method)
		if method == auth.MethodStored {
			token = fmt.Sprintf("%s (%s)", method, keychain.GetStorageBackend())
		}
	}

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = string(api.DefaultAPIVersion) + " (default)"
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		configPath = "(unable to determine)"
	}

	secure := "no (token file)"
	if keychain.IsSecureStorage() {
		secure = "yes (" + string(keychain.GetStorageBackend()) + ")"
	}

	return opts.View().KeyValues([][2]string{
		{"Shop", notSet(cfg.Shop)},
		{"API Version", apiVersion},
		{"Max Attempts", strconv.FormatUint(uint64(cfg.MaxAttempts), 10)},
		{"Poll Interval", cfg.PollInterval},
		{"Rate Limit", strconv.FormatFloat(cfg.RateLimit, 'f', -1, 64)},
		{"Client ID", notSet(maskClientID(cfg.ClientID))},
		{"Token", token},
		{"Secure Storage", secure},
		{"Config File", config.ShortenPath(configPath)},
	})
}

func runSet(opts *root.Options, key, value string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	switch key {
	case "shop":
		cfg.Shop = value
	case "api_version":
		cfg.APIVersion = value
	case "max_attempts":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid max_attempts %q: %w", value, err)
		}
		cfg.MaxAttempts = uint(n)
	case "poll_interval":
		cfg.PollInterval = value
	case "rate_limit":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid rate_limit %q: %w", value, err)
		}
		cfg.RateLimit = f
	case "client_id":
		cfg.ClientID = value
	default:
		return fmt.Errorf("unknown configuration key %q", key)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	opts.View().Success("%s set to %s", key, value)
	return nil
}

func runTest(ctx context.Context, opts *root.Options) error {
	v := opts.View()

	client, err := opts.APIClient(ctx)
	if err != nil {
		return err
	}

	v.Info("Testing connection to %s (API %s)...", client.Shop(), client.APIVersion())

	shop, err := client.GetShop(ctx)
	if err != nil {
		return fmt.Errorf("failed to access the Admin API: %w", err)
	}

	v.Success("Connected to %s (%s, %s plan)", shop.Name, shop.MyshopifyDomain, shop.Plan.DisplayName)
	v.Info("Admin: %s", client.AdminURL())
	return nil
}

func runClear(opts *root.Options, force bool) error {
	v := opts.View()

	if !force {
		v.Print("This will remove all stored credentials. Continue? [y/N]: ")
		response, _ := bufio.NewReader(opts.Stdin).ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			v.Info("Cancelled.")
			return nil
		}
	}

	hadToken := keychain.HasStoredToken()
	var tokenErr error
	if hadToken {
		tokenErr = keychain.DeleteToken()
	}
	hadConfig := config.IsConfigured()
	configErr := config.Clear()

	if tokenErr != nil {
		v.Warning("failed to remove token: %v", tokenErr)
	} else if hadToken {
		v.Info("Token removed.")
	}

	if configErr != nil {
		v.Warning("failed to clear config: %v", configErr)
	} else if hadConfig {
		v.Info("Configuration cleared.")
	}

	if !hadToken && !hadConfig {
		v.Info("Nothing to clear.")
	} else if tokenErr == nil && configErr == nil {
		v.Success("All credentials cleared. Run 'shopctl init' to reconfigure.")
	}

	return nil
}

// maskClientID masks a client ID for display, showing only first and last 4 chars.
func maskClientID(clientID string) string {
	if clientID == "" {
		return ""
	}
	if len(clientID) <= 12 {
		return "****"
	}
	return clientID[:4] + "..." + clientID[len(clientID)-4:]
}
