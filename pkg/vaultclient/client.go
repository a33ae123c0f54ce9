// Package vaultclient provides the main entry point for creating strongroom
// vault clients.
package vaultclient

import (
	"fmt"
	"os"
	"strings"

	"github.com/strongroom-io/strongroom-client/internal/client"
	"github.com/strongroom-io/strongroom-client/pkg/strongroom"
)

// New creates a new vault client.
func New(config *strongroom.Config) (strongroom.Client, error) {
	if config == nil {
		return nil, strongroom.ErrConfigRequired
	}

	if config.VaultURL == "" {
		return nil, strongroom.ErrVaultURLRequired
	}

	// Normalize the vault URL
	vaultURL := strings.TrimSuffix(config.VaultURL, "/")
	if !strings.HasPrefix(vaultURL, "http://") && !strings.HasPrefix(vaultURL, "https://") {
		vaultURL = "https://" + vaultURL
	}

	config.VaultURL = vaultURL

	if config.SkipTLSValidation && !isDevelopmentEnvironment() {
		return nil, fmt.Errorf("%w (set STRONGROOM_DEV_MODE=true)", strongroom.ErrSkipTLSOnlyInDev)
	}

	vault, err := client.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return vault, nil
}

// NewWithEndpoint creates a new client with just a vault URL (no auth).
func NewWithEndpoint(endpoint string) (strongroom.Client, error) {
	return New(&strongroom.Config{
		VaultURL: endpoint,
	})
}

// NewWithToken creates a new client with a vault URL and access token.
func NewWithToken(endpoint, token string) (strongroom.Client, error) {
	return New(&strongroom.Config{
		VaultURL:    endpoint,
		AccessToken: token,
	})
}

// isDevelopmentEnvironment checks if we're in a development environment.
func isDevelopmentEnvironment() bool {
	devMode := os.Getenv("STRONGROOM_DEV_MODE")

	return devMode == "true" || devMode == "1"
}
