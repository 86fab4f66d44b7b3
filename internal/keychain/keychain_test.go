package keychain

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fileOnly forces the file backend in a temp config directory.
func fileOnly(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(StorageEnv, "file")
}

func TestFileStorage(t *testing.T) {
	fileOnly(t)
	token := NewToken("shpat_0123456789abcdef")

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, SetToken(token))

		retrieved, err := GetToken()
		require.NoError(t, err)
		assert.Equal(t, token.AccessToken, retrieved.AccessToken)
		assert.Equal(t, "shopify", retrieved.TokenType)
		assert.Equal(t, BackendFile, GetStorageBackend())
		assert.False(t, IsSecureStorage())
	})

	t.Run("file permissions", func(t *testing.T) {
		path := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "shopify-cli", "token.json")
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, DeleteToken())

		_, err := GetToken()
		assert.ErrorIs(t, err, ErrTokenNotFound)
		assert.False(t, HasStoredToken())
	})

	t.Run("delete when absent", func(t *testing.T) {
		assert.NoError(t, DeleteToken())
	})
}

func TestSetToken_RejectsEmpty(t *testing.T) {
	fileOnly(t)
	assert.Error(t, SetToken(nil))
	assert.Error(t, SetToken(&oauth2.Token{}))
}

func TestGetToken_EmptyFile(t *testing.T) {
	fileOnly(t)
	require.NoError(t, setInConfigFile(&oauth2.Token{TokenType: "shopify"}))

	_, err := GetToken()
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestGetToken_CorruptFile(t *testing.T) {
	fileOnly(t)
	path := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "shopify-cli", "token.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte("{"), 0600))

	_, err := GetToken()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenNotFound)
}

func TestMigrateFromFile_NoSecureStore(t *testing.T) {
	fileOnly(t)
	var buf bytes.Buffer
	warnings = &buf
	defer func() { warnings = os.Stderr }()

	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"access_token":"x"}`), 0600))

	require.NoError(t, MigrateFromFile(path))
	_, err := os.Stat(path)
	assert.NoError(t, err, "file kept when there is nowhere to migrate to")
	assert.Empty(t, buf.String())
}

func TestMigrateFromFile_Missing(t *testing.T) {
	fileOnly(t)
	assert.NoError(t, MigrateFromFile("/nonexistent/token.json"))
}

func TestSecureDelete(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test-token.json")
	require.NoError(t, os.WriteFile(testFile, []byte(`{"access_token":"secret"}`), 0600))

	require.NoError(t, secureDelete(testFile))

	_, err := os.Stat(testFile)
	assert.True(t, os.IsNotExist(err))
}

func TestSecureDeleteNonexistent(t *testing.T) {
	assert.NoError(t, secureDelete("/nonexistent/path/to/file"))
}

func TestGetStorageBackend(t *testing.T) {
	backend := GetStorageBackend()
	validBackends := []StorageBackend{BackendKeychain, BackendSecretTool, BackendFile}
	assert.Contains(t, validBackends, backend)
}
