package limitscmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/shopify-cli/api"
	"github.com/open-cli-collective/shopify-cli/internal/cmd/root"
)

const costResponse = `{"data":{"shop":{"id":"gid://shopify/Shop/1"}},"extensions":{"cost":{"requestedQueryCost":1,"actualQueryCost":1,` +
	`"throttleStatus":{"maximumAvailable":2000.0,"currentlyAvailable":1500,"restoreRate":100.0}}}}`

func setup(t *testing.T, output string) (*root.Options, *bytes.Buffer) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/graphql.json")
		_, _ = io.WriteString(w, costResponse)
	}))
	t.Cleanup(server.Close)

	client, err := api.New(api.ClientConfig{
		Shop:        "test-shop",
		AccessToken: "shpat_test",
		BaseURL:     server.URL,
		MaxAttempts: 1,
		Now:         func() time.Time { return time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	stdout := &bytes.Buffer{}
	opts := &root.Options{Output: output, NoColor: true, Stdout: stdout, Stderr: &bytes.Buffer{}}
	opts.SetAPIClient(client)
	return opts, stdout
}

func TestLimitsCommand(t *testing.T) {
	opts, stdout := setup(t, "table")

	cmd := NewCommand(opts)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	output := stdout.String()
	assert.Contains(t, output, "Query cost")
	assert.Contains(t, output, "2000")
	assert.Contains(t, output, "1500")
	assert.Contains(t, output, "25.0%")
	assert.Contains(t, output, "100/s")
}

func TestLimitsCommand_JSON(t *testing.T) {
	opts, stdout := setup(t, "json")

	cmd := NewCommand(opts)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	var result map[string]float64
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.Equal(t, float64(500), result["used"])
	assert.Equal(t, float64(100), result["restoreRate"])
}
