package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/strongroom-io/strongroom-client/internal/constants"
)

// Config represents the persisted CLI configuration.
type Config struct {
	Vault             string `json:"vault,omitempty"     yaml:"vault,omitempty"`
	Token             string `json:"token,omitempty"     yaml:"token,omitempty"`
	Output            string `json:"output,omitempty"    yaml:"output,omitempty"`
	NoColor           bool   `json:"no_color,omitempty"  yaml:"no_color,omitempty"`
	SkipTLSValidation bool   `json:"skip_tls_validation" yaml:"skip_tls_validation"`
}

// Keys that 'config set' and 'config unset' accept.
var configKeys = map[string]bool{
	"vault":               true,
	"token":               true,
	"output":              true,
	"no-color":            true,
	"skip-tls-validation": true,
}

var ErrUnknownConfigKey = errors.New("unknown config key")

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage persisted strongroom CLI configuration",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigGetCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Get a configuration value",
		Long:  "Print a single effective configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			if !configKeys[key] {
				return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
			}

			_, _ = fmt.Fprintln(os.Stdout, viper.GetString(key))

			return nil
		},
	}
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective CLI configuration. Token values are masked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			display := *config
			if display.Token != "" {
				display.Token = "***"
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return outputJSON(display)
			case OutputFormatYAML:
				return outputYAML(display)
			default:
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Key", "Value")
				_ = table.Append("vault", display.Vault)
				_ = table.Append("token", display.Token)
				_ = table.Append("output", display.Output)
				_ = table.Append("no-color", fmt.Sprintf("%t", display.NoColor))
				_ = table.Append("skip-tls-validation", fmt.Sprintf("%t", display.SkipTLSValidation))

				if err := table.Render(); err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}

				return nil
			}
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Persist a configuration value to the CLI config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			if !configKeys[key] {
				return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
			}

			config := loadConfig()
			applyConfigValue(config, key, value)

			err := saveConfig(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(os.Stdout, "Set %s\n", key)

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Remove a configuration value",
		Long:  "Remove a configuration value from the CLI config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			if !configKeys[key] {
				return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
			}

			config := loadConfig()
			applyConfigValue(config, key, "")

			err := saveConfig(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(os.Stdout, "Unset %s\n", key)

			return nil
		},
	}
}

func applyConfigValue(config *Config, key, value string) {
	switch key {
	case "vault":
		config.Vault = value
	case "token":
		config.Token = value
	case "output":
		config.Output = value
	case "no-color":
		config.NoColor = value == "true"
	case "skip-tls-validation":
		config.SkipTLSValidation = value == "true"
	}
}

// loadConfig builds the config from the effective viper values.
func loadConfig() *Config {
	return &Config{
		Vault:             viper.GetString("vault"),
		Token:             viper.GetString("token"),
		Output:            viper.GetString("output"),
		NoColor:           viper.GetBool("no-color"),
		SkipTLSValidation: viper.GetBool("skip-tls-validation"),
	}
}

// saveConfig writes the config file under ~/.strongroom.
func saveConfig(config *Config) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("finding home directory: %w", err)
	}

	configDir := filepath.Join(home, ".strongroom")

	err = os.MkdirAll(configDir, constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yml")

	err = os.WriteFile(configPath, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
