// Package keychain stores the shop access token using platform-native secure
// storage (macOS Keychain, Linux secret-tool) with a file fallback.
package keychain

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"

	"github.com/open-cli-collective/shopify-cli/internal/config"
)

const (
	serviceName = config.DirName
	tokenKey    = "access_token"

	// StorageEnv forces a backend; "file" disables secure storage.
	StorageEnv = "SHOPCTL_TOKEN_STORAGE"
)

// StorageBackend represents where tokens are stored
type StorageBackend string

const (
	BackendKeychain   StorageBackend = "Keychain"    // macOS Keychain
	BackendSecretTool StorageBackend = "secret-tool" // Linux libsecret
	BackendFile       StorageBackend = "config file" // File fallback
)

var (
	// ErrTokenNotFound indicates no token exists in storage
	ErrTokenNotFound = errors.New("no access token found in secure storage")
)

// warnings receives fallback notices
var warnings io.Writer = os.Stderr

// secureStore is a platform secure storage backend.
type secureStore interface {
	get() (*oauth2.Token, error)
	set(token *oauth2.Token) error
	remove() error
	backend() StorageBackend
}

// store returns the platform store, or nil when only file storage is usable.
func store() secureStore {
	if os.Getenv(StorageEnv) == "file" {
		return nil
	}
	return platformStore()
}

// NewToken wraps a shop access token for storage. Admin API tokens do not
// expire, so Expiry is left zero.
func NewToken(accessToken string) *oauth2.Token {
	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "shopify",
	}
}

// GetToken retrieves the access token from secure storage, falling back to
// the token file.
func GetToken() (*oauth2.Token, error) {
	if s := store(); s != nil {
		if token, err := s.get(); err == nil {
			return token, nil
		}
	}
	return getFromConfigFile()
}

// SetToken stores the access token in secure storage, falling back to the
// token file when secure storage is unavailable.
func SetToken(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return errors.New("access token is empty")
	}
	if s := store(); s != nil {
		err := s.set(token)
		if err == nil {
			return nil
		}
		fmt.Fprintf(warnings, "Warning: %s storage failed, using config file: %v\n", s.backend(), err)
	}
	return setInConfigFile(token)
}

// DeleteToken removes the access token from every backend
func DeleteToken() error {
	fileErr := deleteFromConfigFile()
	s := store()
	if s == nil {
		return fileErr
	}
	if err := s.remove(); err != nil && fileErr != nil {
		return err
	}
	return nil
}

// HasStoredToken returns true if a token exists in any backend
func HasStoredToken() bool {
	_, err := GetToken()
	return err == nil
}

// GetStorageBackend returns the backend that holds the token, or the
// preferred backend when no token is stored.
func GetStorageBackend() StorageBackend {
	s := store()
	if s != nil {
		if _, err := s.get(); err == nil {
			return s.backend()
		}
	}
	if _, err := getFromConfigFile(); err == nil {
		return BackendFile
	}
	if s != nil {
		return s.backend()
	}
	return BackendFile
}

// IsSecureStorage returns true if using secure storage (keychain/secret-tool)
func IsSecureStorage() bool {
	backend := GetStorageBackend()
	return backend == BackendKeychain || backend == BackendSecretTool
}

// MigrateFromFile moves a token file into secure storage if both exist
func MigrateFromFile(tokenFilePath string) error {
	if _, err := os.Stat(tokenFilePath); os.IsNotExist(err) {
		return nil
	}

	s := store()
	if s == nil {
		return nil
	}
	if _, err := s.get(); err == nil {
		return nil
	}

	token, err := readTokenFile(tokenFilePath)
	if err != nil {
		return err
	}
	if err := s.set(token); err != nil {
		return fmt.Errorf("failed to store token in %s: %w", s.backend(), err)
	}

	if err := secureDelete(tokenFilePath); err != nil {
		fmt.Fprintf(warnings, "Warning: could not securely delete old token file: %v\n", err)
	} else {
		fmt.Fprintf(warnings, "Migrated token to %s. Old token file securely deleted.\n", s.backend())
	}
	return nil
}

// secureDelete overwrites a file with zeros before deleting it.
func secureDelete(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return os.Remove(path)
	}
	_, _ = f.Write(make([]byte, info.Size()))
	_ = f.Sync()
	_ = f.Close()

	return os.Remove(path)
}

// File-based storage (fallback)

func readTokenFile(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	return decodeToken(data)
}

func decodeToken(data []byte) (*oauth2.Token, error) {
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if token.AccessToken == "" {
		return nil, ErrTokenNotFound
	}
	return &token, nil
}

func getFromConfigFile() (*oauth2.Token, error) {
	path, err := config.GetTokenPath()
	if err != nil {
		return nil, err
	}
	return readTokenFile(path)
}

func setInConfigFile(token *oauth2.Token) error {
	path, err := config.GetTokenPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), config.DirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to serialize token: %w", err)
	}
	if err := os.WriteFile(path, data, config.FilePerm); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

func deleteFromConfigFile() error {
	path, err := config.GetTokenPath()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}
