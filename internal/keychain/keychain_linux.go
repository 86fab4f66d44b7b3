//go:build linux

package keychain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"

	"golang.org/x/oauth2"
)

func platformStore() secureStore {
	if _, err := exec.LookPath("secret-tool"); err != nil {
		return nil
	}
	return secretToolStore{}
}

// secretToolStore uses libsecret through the secret-tool CLI.
type secretToolStore struct{}

func (secretToolStore) backend() StorageBackend {
	return BackendSecretTool
}

func (secretToolStore) get() (*oauth2.Token, error) {
	output, err := exec.Command("secret-tool", "lookup",
		"service", serviceName,
		"account", tokenKey).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to read from secret-tool: %w", err)
	}
	return decodeToken(bytes.TrimSpace(output))
}

func (secretToolStore) set(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to serialize token: %w", err)
	}

	// secret-tool reads the secret from stdin.
	cmd := exec.Command("secret-tool", "store",
		"--label", serviceName+" access token",
		"service", serviceName,
		"account", tokenKey)
	cmd.Stdin = bytes.NewReader(data)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to store in secret-tool: %w", err)
	}
	return nil
}

func (secretToolStore) remove() error {
	if err := exec.Command("secret-tool", "clear",
		"service", serviceName,
		"account", tokenKey).Run(); err != nil {
		return fmt.Errorf("failed to delete from secret-tool: %w", err)
	}
	return nil
}
