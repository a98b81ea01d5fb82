package commands

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewHealthCommand creates the health command.
func NewHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check API health",
		Long:  "Call the unauthenticated health endpoint of the configured Prophet API",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createHealthClient(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer client.Close()

			health, err := client.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}

			return render(cmd.OutOrStdout(), health, func(w io.Writer) error {
				table := tablewriter.NewWriter(w)
				table.Header("Property", "Value")
				_ = table.Append([]string{"Status", health.Status})
				_ = table.Append([]string{"Service", formatConfigValue(health.Service)})
				_ = table.Append([]string{"Version", formatConfigValue(health.Version)})
				_ = table.Append([]string{"Timestamp", formatConfigValue(health.Timestamp)})

				err := table.Render()
				if err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}

				return nil
			})
		},
	}
}
