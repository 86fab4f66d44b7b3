package stagedcmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/shopify-cli/api"
	"github.com/open-cli-collective/shopify-cli/api/staged"
	"github.com/open-cli-collective/shopify-cli/internal/cmd/root"
)

type upload struct {
	input    map[string]any
	fields   map[string]string
	fileType string
	content  []byte
}

func setup(t *testing.T, output string, uploadStatus int) (*root.Options, *bytes.Buffer, *upload) {
	t.Helper()

	got := &upload{fields: map[string]string{}}
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/api/2026-07/graphql.json", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables struct {
				Input []map[string]any `json:"input"`
			} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Variables.Input, 1)
		got.input = req.Variables.Input[0]
		_, _ = io.WriteString(w, `{"data":{"stagedUploadsCreate":{"stagedTargets":[{"url":"`+server.URL+`/bucket",`+
			`"resourceUrl":"https://cdn.example/tmp/banner","parameters":[{"name":"key","value":"tmp/9/banner.png"},{"name":"policy","value":"p"}]}],"userErrors":[]}}}`)
	})
	mux.HandleFunc("/bucket", func(w http.ResponseWriter, r *http.Request) {
		mr, err := r.MultipartReader()
		require.NoError(t, err)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			data, _ := io.ReadAll(part)
			if part.FormName() == staged.FileField {
				got.fileType = part.Header.Get("Content-Type")
				got.content = data
				continue
			}
			got.fields[part.FormName()] = string(data)
		}
		w.WriteHeader(uploadStatus)
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)

	apiClient, err := api.New(api.ClientConfig{
		Shop:        "test-shop",
		AccessToken: "shpat_test",
		BaseURL:     server.URL,
		MaxAttempts: 1,
		Now:         func() time.Time { return time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	client, err := staged.New(staged.ClientConfig{API: apiClient})
	require.NoError(t, err)

	stdout := &bytes.Buffer{}
	opts := &root.Options{Output: output, NoColor: true, Stdout: stdout, Stderr: &bytes.Buffer{}}
	opts.SetStagedClient(client)
	return opts, stdout, got
}

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func TestUploadCommand(t *testing.T) {
	opts, stdout, got := setup(t, "table", http.StatusCreated)
	path := writeFile(t, "notes.txt", []byte("restock on monday\n"))

	cmd := newUploadCommand(opts)
	cmd.SetArgs([]string{path})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "FILE", got.input["resource"])
	assert.Equal(t, "notes.txt", got.input["filename"])
	assert.Equal(t, "18", got.input["fileSize"])
	assert.Equal(t, "POST", got.input["httpMethod"])
	assert.Equal(t, "text/plain; charset=utf-8", got.input["mimeType"])

	assert.Equal(t, map[string]string{"key": "tmp/9/banner.png", "policy": "p"}, got.fields)
	assert.Equal(t, "restock on monday\n", string(got.content))
	assert.Equal(t, "text/plain; charset=utf-8", got.fileType)

	assert.Contains(t, stdout.String(), "Uploaded notes.txt")
	assert.Contains(t, stdout.String(), "Staged path: tmp/9/banner.png")
}

func TestUploadCommand_ExplicitMimeAndResource(t *testing.T) {
	opts, stdout, got := setup(t, "plain", http.StatusNoContent)
	path := writeFile(t, "banner.png", []byte("not really a png"))

	cmd := newUploadCommand(opts)
	cmd.SetArgs([]string{path, "--resource", "product-image", "--mime-type", "image/png"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "PRODUCT_IMAGE", got.input["resource"])
	assert.Equal(t, "image/png", got.fileType)
	assert.Equal(t, "tmp/9/banner.png\n", stdout.String())
}

func TestUploadCommand_Rejected(t *testing.T) {
	opts, _, _ := setup(t, "table", http.StatusForbidden)
	path := writeFile(t, "a.txt", []byte("a"))

	cmd := newUploadCommand(opts)
	cmd.SetArgs([]string{path})
	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, api.IsOther(err))
	assert.Contains(t, err.Error(), "staged upload rejected")
}

func TestParseResource(t *testing.T) {
	r, err := parseResource("url-redirect-import")
	require.NoError(t, err)
	assert.Equal(t, staged.ResourceURLRedirectImport, r)

	_, err = parseResource("spreadsheet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bulk_mutation_variables")
}
