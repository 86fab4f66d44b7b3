package root

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/shopify-cli/api"
	"github.com/open-cli-collective/shopify-cli/internal/config"
	"github.com/open-cli-collective/shopify-cli/internal/keychain"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(keychain.StorageEnv, "file")
	t.Setenv("SHOPCTL_ACCESS_TOKEN", "")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "")
}

func TestNewCmd(t *testing.T) {
	cmd, opts := NewCmd()

	assert.Equal(t, "shopctl", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotEmpty(t, cmd.Version)

	for _, name := range []string{"output", "no-color", "verbose", "api-version", "attempts"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}

	assert.Equal(t, "table", opts.Output)
	assert.False(t, opts.NoColor)
	assert.False(t, opts.Verbose)
	assert.Zero(t, opts.Attempts)
}

func TestNewCmd_RejectsUnknownOutput(t *testing.T) {
	cmd, opts := NewCmd()
	opts.Stdout = &bytes.Buffer{}
	opts.Stderr = &bytes.Buffer{}
	cmd.AddCommand(&cobra.Command{Use: "noop", RunE: func(*cobra.Command, []string) error { return nil }})

	cmd.SetArgs([]string{"noop", "-o", "xml"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestOptions_View(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	opts := &Options{Output: "json", NoColor: true, Stdout: stdout, Stderr: stderr}

	v := opts.View()
	require.NotNil(t, v)
	assert.Same(t, stdout, v.Out)
	assert.Same(t, stderr, v.Err)

	v.Warning("careful")
	assert.Contains(t, stderr.String(), "careful")
}

func TestOptions_APIClient_UsesConfig(t *testing.T) {
	isolate(t)
	t.Setenv("SHOPCTL_ACCESS_TOKEN", "shpat_test")
	opts := &Options{Stderr: &bytes.Buffer{}, Attempts: 3}
	opts.SetConfig(&config.Config{Shop: "my-shop", APIVersion: "2026-04", MaxAttempts: 10, PollInterval: "1s"})

	client, err := opts.APIClient(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "my-shop.myshopify.com", client.Shop())
	assert.Equal(t, api.Version("2026-04"), client.APIVersion())
	assert.Equal(t, uint(3), client.MaxAttempts())
}

func TestOptions_APIClient_FlagVersionWins(t *testing.T) {
	isolate(t)
	t.Setenv("SHOPCTL_ACCESS_TOKEN", "shpat_test")
	opts := &Options{Stderr: &bytes.Buffer{}, APIVersion: "unstable"}
	opts.SetConfig(&config.Config{Shop: "my-shop", APIVersion: "2026-04", MaxAttempts: 10})

	client, err := opts.APIClient(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.VersionUnstable, client.APIVersion())
	assert.Equal(t, uint(10), client.MaxAttempts())
}

func TestOptions_APIClient_StoredToken(t *testing.T) {
	isolate(t)
	require.NoError(t, keychain.SetToken(keychain.NewToken("shpat_stored")))

	stderr := &bytes.Buffer{}
	opts := &Options{Stderr: stderr, NoColor: true}
	opts.SetConfig(&config.Config{Shop: "my-shop", MaxAttempts: 10})

	client, err := opts.APIClient(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "my-shop.myshopify.com", client.Shop())
	assert.NotContains(t, stderr.String(), "migration failed")

	path, err := config.GetTokenPath()
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err, "token file stays when only file storage is available")
}

func TestOptions_APIClient_RequiresShop(t *testing.T) {
	opts := &Options{Stderr: &bytes.Buffer{}}
	opts.SetConfig(&config.Config{})

	_, err := opts.APIClient(context.Background())
	assert.ErrorIs(t, err, api.ErrShopRequired)
}

func TestOptions_BulkClient(t *testing.T) {
	isolate(t)
	t.Setenv("SHOPCTL_ACCESS_TOKEN", "shpat_test")
	opts := &Options{Stderr: &bytes.Buffer{}}
	opts.SetConfig(&config.Config{Shop: "my-shop", MaxAttempts: 10})

	client, err := opts.BulkClient(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestOptions_PollConfig(t *testing.T) {
	opts := &Options{}
	opts.SetConfig(&config.Config{PollInterval: "250ms"})

	poll := opts.PollConfig(time.Minute)
	assert.Equal(t, 250*time.Millisecond, poll.Interval)
	assert.Equal(t, time.Minute, poll.Timeout)
}

func TestRegisterCommands(t *testing.T) {
	cmd, opts := NewCmd()

	callCount := 0
	registrar := func(parent *cobra.Command, o *Options) {
		callCount++
		assert.Same(t, cmd, parent)
		assert.Same(t, opts, o)
	}

	RegisterCommands(cmd, opts, registrar, registrar)
	assert.Equal(t, 2, callCount)
}
