package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/shopify-cli/internal/config"
	"github.com/open-cli-collective/shopify-cli/internal/keychain"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(keychain.StorageEnv, "file")
	for _, name := range []string{
		"SHOPCTL_ACCESS_TOKEN", "SHOPIFY_ACCESS_TOKEN",
		"SHOPCTL_CLIENT_SECRET", "SHOPIFY_CLIENT_SECRET",
	} {
		t.Setenv(name, "")
	}
}

func TestResolveAccessToken_Env(t *testing.T) {
	isolate(t)
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "shpat_fallback")

	token, method, err := ResolveAccessToken(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.Equal(t, "shpat_fallback", token)
	assert.Equal(t, MethodEnv, method)

	t.Setenv("SHOPCTL_ACCESS_TOKEN", "shpat_primary")
	token, _, err = ResolveAccessToken(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.Equal(t, "shpat_primary", token)
}

func TestResolveAccessToken_Stored(t *testing.T) {
	isolate(t)
	require.NoError(t, keychain.SetToken(keychain.NewToken("shpat_stored")))

	token, method, err := ResolveAccessToken(context.Background(), &config.Config{Shop: "my-shop"})
	require.NoError(t, err)
	assert.Equal(t, "shpat_stored", token)
	assert.Equal(t, MethodStored, method)
}

func TestResolveAccessToken_None(t *testing.T) {
	isolate(t)

	_, _, err := ResolveAccessToken(context.Background(), &config.Config{})
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestResolveAccessToken_ClientCredentialsNeedsShop(t *testing.T) {
	isolate(t)
	t.Setenv("SHOPCTL_CLIENT_SECRET", "secret")

	_, _, err := ResolveAccessToken(context.Background(), &config.Config{ClientID: "id"})
	assert.Error(t, err)
}

func TestClientCredentialsConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "app-client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "app-secret", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "shpca_issued",
			"scope":        "read_products,write_products",
			"expires_in":   86399,
		})
	}))
	defer server.Close()

	cc := GetClientCredentialsConfig(server.URL, "app-client-id", "app-secret")
	tok, err := cc.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "shpca_issued", tok.AccessToken)
	assert.False(t, tok.Expiry.IsZero())
}

func TestTokenURL(t *testing.T) {
	assert.Equal(t, "https://my-shop.myshopify.com/admin/oauth/access_token", TokenURL("my-shop"))
	assert.Equal(t, "https://my-shop.myshopify.com/admin/oauth/access_token", TokenURL("https://my-shop.myshopify.com/"))
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"shpat_0123456789abcdef", "shpat_****cdef"},
		{"0123456789abcdef", "****cdef"},
		{"short", "*****"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskToken(tt.input))
		})
	}
}
