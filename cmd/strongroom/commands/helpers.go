package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/strongroom-io/strongroom-client/pkg/strongroom"
	"github.com/strongroom-io/strongroom-client/pkg/vaultclient"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"

	// Output formats.
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"
)

// Common static errors used throughout the commands package.
var (
	ErrVaultEndpointRequired = errors.New("vault endpoint is required (use --vault, STRONGROOM_VAULT, or 'strongroom config set vault <url>')")
	ErrSecretValueRequired   = errors.New("secret value is required (use --value or enter it at the prompt)")
	ErrValueNotReadable      = errors.New("cannot prompt for a secret value without a terminal; use --value")
)

// CreateClient builds a vault client from the effective flag/env/config values.
func CreateClient() (strongroom.Client, error) {
	endpoint := viper.GetString("vault")
	if endpoint == "" {
		return nil, ErrVaultEndpointRequired
	}

	config := &strongroom.Config{
		VaultURL:          endpoint,
		AccessToken:       viper.GetString("token"),
		SkipTLSValidation: viper.GetBool("skip-tls-validation"),
	}

	if viper.GetBool("verbose") {
		config.Logger = strongroom.NewLogrusLogger("debug")
	}

	client, err := vaultclient.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	return client, nil
}

// outputJSON writes v to stdout as indented JSON.
func outputJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("encoding to JSON: %w", err)
	}

	return nil
}

// outputYAML writes v to stdout as YAML.
func outputYAML(v interface{}) error {
	encoder := yaml.NewEncoder(os.Stdout)

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("encoding to YAML: %w", err)
	}

	return nil
}

// promptSecretValue reads a secret value from the terminal without echo.
func promptSecretValue(prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", ErrValueNotReadable
	}

	_, _ = fmt.Fprint(os.Stderr, prompt)

	value, err := term.ReadPassword(int(os.Stdin.Fd()))

	_, _ = fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", fmt.Errorf("reading secret value: %w", err)
	}

	return string(value), nil
}

// confirm asks a y/N question on stdout and reads the answer from stdin.
func confirm(question string) bool {
	_, _ = fmt.Fprintf(os.Stdout, "%s (y/N): ", question)

	var response string

	_, _ = fmt.Scanln(&response)

	return response == "y" || response == "Y"
}

// enabledLabel renders a secret's enabled state, colored unless disabled.
func enabledLabel(enabled *bool) string {
	useColor := !viper.GetBool("no-color")

	if enabled != nil && !*enabled {
		if useColor {
			return color.RedString("disabled")
		}

		return "disabled"
	}

	if useColor {
		return color.GreenString("enabled")
	}

	return "enabled"
}

// formatTime renders an optional timestamp for table output.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}

	return t.Format("2006-01-02 15:04:05")
}
