package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/strongroom-io/strongroom-client/pkg/strongroom"
)

// NewSecretsCommand creates the secrets command group.
func NewSecretsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "secrets",
		Aliases: []string{"secret"},
		Short:   "Manage vault secrets",
		Long:    "Create, read, list, delete, recover, and purge secrets in a strongroom vault",
	}

	cmd.AddCommand(newSecretsGetCommand())
	cmd.AddCommand(newSecretsSetCommand())
	cmd.AddCommand(newSecretsListCommand())
	cmd.AddCommand(newSecretsDeleteCommand())
	cmd.AddCommand(newSecretsRecoverCommand())
	cmd.AddCommand(newSecretsPurgeCommand())
	cmd.AddCommand(newSecretsDeletedCommand())

	return cmd
}

func newSecretsGetCommand() *cobra.Command {
	var (
		version   string
		valueOnly bool
	)

	cmd := &cobra.Command{
		Use:   "get SECRET_NAME",
		Short: "Get a secret",
		Long:  "Retrieve a secret's value and metadata from the vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			secret, err := client.Secrets().Get(context.Background(), args[0], version)
			if err != nil {
				return fmt.Errorf("failed to get secret: %w", err)
			}

			if valueOnly {
				_, _ = fmt.Fprintln(os.Stdout, secret.Value)

				return nil
			}

			return outputSecret(secret)
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "specific secret version (default is latest)")
	cmd.Flags().BoolVar(&valueOnly, "value-only", false, "print only the secret value")

	return cmd
}

func newSecretsSetCommand() *cobra.Command {
	var (
		value       string
		contentType string
		tags        map[string]string
		disabled    bool
	)

	cmd := &cobra.Command{
		Use:   "set SECRET_NAME",
		Short: "Set a secret",
		Long:  "Create a secret or add a new version to an existing one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if value == "" {
				prompted, err := promptSecretValue("Secret value: ")
				if err != nil {
					return err
				}

				value = prompted
			}

			if value == "" {
				return ErrSecretValueRequired
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			options := &strongroom.SetSecretOptions{
				ContentType: contentType,
				Tags:        tags,
			}

			if disabled {
				enabled := false
				options.Enabled = &enabled
			}

			secret, err := client.Secrets().Set(context.Background(), name, value, options)
			if err != nil {
				return fmt.Errorf("failed to set secret: %w", err)
			}

			_, _ = fmt.Fprintf(os.Stdout, "Successfully set secret '%s' (version %s)\n", secret.Name, secret.Version)

			return nil
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "secret value (prompted when omitted)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "content type hint for the value")
	cmd.Flags().StringToStringVar(&tags, "tags", nil, "tags to apply (key=value)")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "create the secret in a disabled state")

	return cmd
}

func newSecretsListCommand() *cobra.Command {
	var (
		page     int
		perPage  int
		allPages bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List secrets",
		Long:  "List the secrets stored in the vault (metadata only, never values)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			ctx := context.Background()

			var secrets []strongroom.Secret

			if allPages {
				secrets, err = client.Secrets().ListAll(ctx)
			} else {
				var list *strongroom.SecretList

				list, err = client.Secrets().List(ctx, &strongroom.ListSecretsOptions{Page: page, PerPage: perPage})
				if list != nil {
					secrets = list.Resources
				}
			}

			if err != nil {
				return fmt.Errorf("failed to list secrets: %w", err)
			}

			return outputSecretList(secrets)
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "page number to fetch")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "results per page")
	cmd.Flags().BoolVar(&allPages, "all", false, "fetch all pages")

	return cmd
}

func newSecretsDeleteCommand() *cobra.Command {
	var (
		force bool
		wait  bool
	)

	cmd := &cobra.Command{
		Use:   "delete SECRET_NAME",
		Short: "Delete a secret",
		Long: `Soft-delete a secret. The vault accepts the deletion immediately but
propagates it in the background; use --wait to block until the deleted
secret is readable (and therefore recoverable or purgeable).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if !force && !confirm(fmt.Sprintf("Really delete secret '%s'?", name)) {
				_, _ = os.Stdout.WriteString("Cancelled\n")

				return nil
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			ctx := context.Background()

			poller, err := client.Secrets().BeginDelete(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to delete secret: %w", err)
			}

			if !wait {
				if poller.Done() {
					_, _ = fmt.Fprintf(os.Stdout, "Successfully deleted secret '%s'\n", name)
				} else {
					_, _ = fmt.Fprintf(os.Stdout, "Deleting secret '%s'... (propagating)\n", name)
					_, _ = fmt.Fprintf(os.Stdout, "Check with: strongroom secrets deleted %s\n", name)
				}

				return nil
			}

			deleted, err := poller.Result(ctx)
			if err != nil {
				return fmt.Errorf("waiting for deletion of '%s': %w", name, err)
			}

			_, _ = fmt.Fprintf(os.Stdout, "Successfully deleted secret '%s'\n", deleted.Name)

			if deleted.RecoveryID != "" {
				_, _ = fmt.Fprintf(os.Stdout, "Recoverable until purge via: strongroom secrets recover %s\n", deleted.Name)
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait until the deletion has propagated")

	return cmd
}

func newSecretsRecoverCommand() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "recover SECRET_NAME",
		Short: "Recover a deleted secret",
		Long: `Recover a soft-deleted secret back into the vault. Recovery is
asynchronous; use --wait to block until the secret is readable again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			client, err := CreateClient()
			if err != nil {
				return err
			}

			ctx := context.Background()

			poller, err := client.Secrets().BeginRecover(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to recover secret: %w", err)
			}

			if !wait {
				_, _ = fmt.Fprintf(os.Stdout, "Recovering secret '%s'... (propagating)\n", name)

				return nil
			}

			recovered, err := poller.Result(ctx)
			if err != nil {
				return fmt.Errorf("waiting for recovery of '%s': %w", name, err)
			}

			_, _ = fmt.Fprintf(os.Stdout, "Successfully recovered secret '%s' (version %s)\n", recovered.Name, recovered.Version)

			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "wait until the recovery has propagated")

	return cmd
}

func newSecretsPurgeCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "purge SECRET_NAME",
		Short: "Permanently delete a secret",
		Long:  "Permanently remove a soft-deleted secret. This cannot be undone.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if !force && !confirm(fmt.Sprintf("Really purge secret '%s'? This cannot be undone.", name)) {
				_, _ = os.Stdout.WriteString("Cancelled\n")

				return nil
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			err = client.Secrets().Purge(context.Background(), name)
			if err != nil {
				return fmt.Errorf("failed to purge secret: %w", err)
			}

			_, _ = fmt.Fprintf(os.Stdout, "Successfully purged secret '%s'\n", name)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")

	return cmd
}

func newSecretsDeletedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deleted SECRET_NAME",
		Short: "Show a deleted secret",
		Long:  "Display a soft-deleted secret's recovery metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			deleted, err := client.Secrets().GetDeleted(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get deleted secret: %w", err)
			}

			return outputDeletedSecret(deleted)
		},
	}
}

func outputSecret(secret *strongroom.Secret) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return outputJSON(secret)
	case OutputFormatYAML:
		return outputYAML(secret)
	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Property", "Value")
		_ = table.Append("Name", secret.Name)
		_ = table.Append("Version", secret.Version)
		_ = table.Append("Value", secret.Value)

		if secret.ContentType != "" {
			_ = table.Append("Content Type", secret.ContentType)
		}

		if secret.Attributes != nil {
			_ = table.Append("State", enabledLabel(secret.Attributes.Enabled))
			_ = table.Append("Created", formatTime(secret.Attributes.CreatedAt))
			_ = table.Append("Updated", formatTime(secret.Attributes.UpdatedAt))
		}

		for key, value := range secret.Tags {
			_ = table.Append("Tag: "+key, value)
		}

		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

func outputSecretList(secrets []strongroom.Secret) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return outputJSON(secrets)
	case OutputFormatYAML:
		return outputYAML(secrets)
	default:
		if len(secrets) == 0 {
			_, _ = os.Stdout.WriteString("No secrets found\n")

			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Name", "Version", "Content Type", "State", "Updated")

		for _, secret := range secrets {
			contentType := secret.ContentType
			if contentType == "" {
				contentType = NotAvailable
			}

			state := enabledLabel(nil)
			updated := NotAvailable

			if secret.Attributes != nil {
				state = enabledLabel(secret.Attributes.Enabled)
				updated = formatTime(secret.Attributes.UpdatedAt)
			}

			_ = table.Append(secret.Name, secret.Version, contentType, state, updated)
		}

		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

func outputDeletedSecret(deleted *strongroom.DeletedSecret) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return outputJSON(deleted)
	case OutputFormatYAML:
		return outputYAML(deleted)
	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Property", "Value")
		_ = table.Append("Name", deleted.Name)
		_ = table.Append("Recovery ID", deleted.RecoveryID)
		_ = table.Append("Deleted", formatTime(deleted.DeletedAt))
		_ = table.Append("Scheduled Purge", formatTime(deleted.ScheduledPurgeAt))

		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}
