// Package initcmd provides the init command for credential setup.
package initcmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/shopify-cli/api"
	"github.com/open-cli-collective/shopify-cli/internal/auth"
	"github.com/open-cli-collective/shopify-cli/internal/cmd/root"
	"github.com/open-cli-collective/shopify-cli/internal/config"
	"github.com/open-cli-collective/shopify-cli/internal/keychain"
)

type initOptions struct {
	shop       string
	token      string
	apiVersion string
	noVerify   bool
}

// Register registers the init command with the parent command.
func Register(parent *cobra.Command, opts *root.Options) {
	parent.AddCommand(NewCommand(opts))
}

// NewCommand returns the init command.
func NewCommand(opts *root.Options) *cobra.Command {
	var flags initOptions

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up Shopify authentication",
		Long: `Guided setup for the shop and its Admin API access token.

The access token is stored in the system keychain when one is available and
in the config directory otherwise.

Prerequisites:
  1. Create a custom app in the shop admin (Settings → Apps and sales channels → Develop apps)
  2. Grant the Admin API access scopes your queries need
  3. Install the app and reveal the Admin API access token (shpat_...)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.Context(), opts, flags)
		},
	}

	cmd.Flags().StringVar(&flags.shop, "shop", "", "Shop name or myshopify.com domain")
	cmd.Flags().StringVar(&flags.token, "token", "", "Admin API access token (prompted for when unset)")
	cmd.Flags().StringVar(&flags.apiVersion, "api-version", "", "Admin API version to pin (e.g. 2026-07)")
	cmd.Flags().BoolVar(&flags.noVerify, "no-verify", false, "Skip connectivity verification after setup")

	return cmd
}

func runInit(ctx context.Context, opts *root.Options, flags initOptions) error {
	v := opts.View()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	shop := flags.shop
	if shop == "" {
		shop = cfg.Shop
	}
	token := flags.token

	if flags.shop == "" || token == "" {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Shop").
					Description("Shop name or domain, e.g. my-shop or my-shop.myshopify.com").
					Value(&shop).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return fmt.Errorf("shop is required")
						}
						return nil
					}),
				huh.NewInput().
					Title("Admin API access token").
					Description("From the custom app's API credentials tab").
					EchoMode(huh.EchoModePassword).
					Value(&token).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return fmt.Errorf("access token is required")
						}
						return nil
					}),
			),
		).WithInput(opts.Stdin).WithOutput(opts.Stderr)

		if err := form.Run(); err != nil {
			return err
		}
	}

	cfg.Shop = strings.TrimSuffix(api.ShopDomain(shop), ".myshopify.com")
	if flags.apiVersion != "" {
		cfg.APIVersion = flags.apiVersion
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	if err := keychain.SetToken(keychain.NewToken(strings.TrimSpace(token))); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	v.Success("Saved %s (token %s stored in %s)", cfg.Shop, auth.MaskToken(token), keychain.GetStorageBackend())

	if flags.noVerify {
		return nil
	}

	client, err := opts.APIClient(ctx)
	if err != nil {
		return err
	}
	info, err := client.GetShop(ctx)
	if err != nil {
		v.Warning("Credentials saved, but the connection test failed")
		return fmt.Errorf("failed to access the Admin API: %w", err)
	}
	v.Success("Connected to %s (API %s)", info.Name, client.APIVersion())
	return nil
}
