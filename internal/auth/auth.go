// Package auth resolves the access token used to call the Admin API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/open-cli-collective/shopify-cli/api"
	"github.com/open-cli-collective/shopify-cli/internal/config"
	"github.com/open-cli-collective/shopify-cli/internal/keychain"
)

// Method identifies where an access token came from
type Method string

const (
	MethodEnv               Method = "environment"
	MethodClientCredentials Method = "client credentials"
	MethodStored            Method = "stored token"
)

// ErrNoCredentials means no access token is available from any source
var ErrNoCredentials = errors.New("no access token found - please run 'shopctl init' first")

// TokenURL returns the OAuth token endpoint of a shop
func TokenURL(shop string) string {
	return "https://" + api.ShopDomain(shop) + "/admin/oauth/access_token"
}

// GetClientCredentialsConfig creates a client credentials grant config.
// Shopify expects the client credentials as form parameters.
func GetClientCredentialsConfig(tokenURL, clientID, clientSecret string) *clientcredentials.Config {
	return &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
}

// TokenSource picks the first available credential source.
// Precedence: SHOPCTL_ACCESS_TOKEN → SHOPIFY_ACCESS_TOKEN → client credentials
// (client_id plus SHOPCTL_CLIENT_SECRET) → stored token.
func TokenSource(ctx context.Context, cfg *config.Config) (oauth2.TokenSource, Method, error) {
	if v := getEnvWithFallback("SHOPCTL_ACCESS_TOKEN", "SHOPIFY_ACCESS_TOKEN"); v != "" {
		return oauth2.StaticTokenSource(keychain.NewToken(v)), MethodEnv, nil
	}

	if cfg != nil && cfg.ClientID != "" {
		if secret := getEnvWithFallback("SHOPCTL_CLIENT_SECRET", "SHOPIFY_CLIENT_SECRET"); secret != "" {
			if cfg.Shop == "" {
				return nil, "", fmt.Errorf("client credentials need a shop - please run 'shopctl init' first")
			}
			cc := GetClientCredentialsConfig(TokenURL(cfg.Shop), cfg.ClientID, secret)
			return oauth2.ReuseTokenSource(nil, cc.TokenSource(ctx)), MethodClientCredentials, nil
		}
	}

	tok, err := keychain.GetToken()
	if err != nil {
		if errors.Is(err, keychain.ErrTokenNotFound) {
			return nil, "", ErrNoCredentials
		}
		return nil, "", fmt.Errorf("failed to read stored token: %w", err)
	}
	return oauth2.StaticTokenSource(tok), MethodStored, nil
}

// ResolveAccessToken returns the access token and where it came from
func ResolveAccessToken(ctx context.Context, cfg *config.Config) (string, Method, error) {
	src, method, err := TokenSource(ctx, cfg)
	if err != nil {
		return "", "", err
	}
	tok, err := src.Token()
	if err != nil {
		return "", "", fmt.Errorf("failed to obtain access token (%s): %w", method, err)
	}
	if tok.AccessToken == "" {
		return "", "", ErrNoCredentials
	}
	return tok.AccessToken, method, nil
}

// MaskToken masks an access token for display, keeping its prefix and last
// four characters (shpat_****cdef).
func MaskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	prefix := ""
	if i := strings.Index(token, "_"); i > 0 && i < len(token)-4 {
		prefix = token[:i+1]
	}
	return prefix + "****" + token[len(token)-4:]
}

func getEnvWithFallback(primary, fallback string) string {
	if v := os.Getenv(primary); v != "" {
		return v
	}
	return os.Getenv(fallback)
}
