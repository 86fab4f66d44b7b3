//go:build darwin

package keychain

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/oauth2"
)

func platformStore() secureStore {
	if _, err := exec.LookPath("security"); err != nil {
		return nil
	}
	return keychainStore{}
}

// keychainStore uses the macOS security CLI.
type keychainStore struct{}

func (keychainStore) backend() StorageBackend {
	return BackendKeychain
}

func (keychainStore) get() (*oauth2.Token, error) {
	output, err := exec.Command("security", "find-generic-password",
		"-s", serviceName,
		"-a", tokenKey,
		"-w").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to read from keychain: %w", err)
	}
	return decodeToken([]byte(strings.TrimSpace(string(output))))
}

func (k keychainStore) set(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to serialize token: %w", err)
	}

	_ = k.remove()

	// Interactive mode keeps the secret out of the process list.
	cmd := exec.Command("security", "-i")
	cmd.Stdin = strings.NewReader(fmt.Sprintf("add-generic-password -s %q -a %q -w %q -U\n",
		serviceName, tokenKey, string(data)))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to store in keychain: %w", err)
	}
	return nil
}

func (keychainStore) remove() error {
	if err := exec.Command("security", "delete-generic-password",
		"-s", serviceName,
		"-a", tokenKey).Run(); err != nil {
		return fmt.Errorf("failed to delete from keychain: %w", err)
	}
	return nil
}
