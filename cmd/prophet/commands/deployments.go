package commands

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/prophet/internal/constants"
	"github.com/fivetwenty-io/prophet/pkg/prophet"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewDeploymentsCommand creates the deployments command group.
func NewDeploymentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deployments",
		Aliases: []string{"deployment", "deploy"},
		Short:   "Manage sub-deployments",
		Long:    "List, inspect, create and delete sub-deployments (child tenants) of an MSP",
	}

	cmd.AddCommand(newDeploymentsListCommand())
	cmd.AddCommand(newDeploymentsGetCommand())
	cmd.AddCommand(newDeploymentsCreateCommand())
	cmd.AddCommand(newDeploymentsDeleteCommand())

	return cmd
}

// parentFlag returns --parent, or the configured parent_id.
func parentFlag(parent string) string {
	if parent != "" {
		return parent
	}

	return loadConfig().ParentID
}

func newDeploymentsListCommand() *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sub-deployments",
		Long:  "List the sub-deployments of a parent MSP, or of the authenticated customer when no parent is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer client.Close()

			list, err := client.Deployments().List(cmd.Context(), parentFlag(parent))
			if err != nil {
				return fmt.Errorf("failed to list deployments: %w", err)
			}

			return render(cmd.OutOrStdout(), list, func(w io.Writer) error {
				if list.Parent.Name != "" {
					_, _ = fmt.Fprintf(w, "Parent: %s (%s)\n", list.Parent.Name, list.Parent.CustomerID)
				}

				return displayDeploymentsTable(w, list.Deployments)
			})
		},
	}

	cmd.Flags().StringVarP(&parent, "parent", "p", "", "parent MSP customer ID")

	return cmd
}

func newDeploymentsGetCommand() *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "get CUSTOMER_ID",
		Short: "Get a sub-deployment",
		Long:  "Display one sub-deployment of a parent MSP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer client.Close()

			deployment, err := client.Deployments().Get(cmd.Context(), args[0], parentFlag(parent))
			if err != nil {
				return fmt.Errorf("failed to get deployment: %w", err)
			}

			return render(cmd.OutOrStdout(), deployment, func(w io.Writer) error {
				table := tablewriter.NewWriter(w)
				table.Header("Property", "Value")
				_ = table.Append([]string{"Customer ID", deployment.CustomerID})
				_ = table.Append([]string{"Name", deployment.Name})
				_ = table.Append([]string{"Handle", deployment.Handle})
				_ = table.Append([]string{"Type", formatConfigValue(deployment.Type)})
				_ = table.Append([]string{"Subdomain", formatConfigValue(deployment.Subdomain)})
				_ = table.Append([]string{"Status", formatConfigValue(deployment.Status())})
				_ = table.Append([]string{"Created", formatConfigValue(deployment.CreatedAt)})

				err := table.Render()
				if err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&parent, "parent", "p", "", "parent MSP customer ID")

	return cmd
}

func newDeploymentsCreateCommand() *cobra.Command {
	var (
		parent    string
		name      string
		handle    string
		subdomain string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a sub-deployment",
		Long:  "Create a sub-deployment under a parent MSP",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &prophet.DeploymentCreate{
				Name:      name,
				Handle:    handle,
				ParentID:  parentFlag(parent),
				Subdomain: subdomain,
			}

			if req.ParentID == "" {
				return constants.ErrParentRequired
			}

			client, err := createClient(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer client.Close()

			created, err := client.Deployments().Create(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to create deployment: %w", err)
			}

			return render(cmd.OutOrStdout(), created, func(w io.Writer) error {
				table := tablewriter.NewWriter(w)
				table.Header("Property", "Value")
				_ = table.Append([]string{"Customer ID", created.Customer.CustomerID})
				_ = table.Append([]string{"Name", created.Customer.Name})
				_ = table.Append([]string{"Handle", created.Customer.Handle})
				_ = table.Append([]string{"Org Code", formatConfigValue(created.Org.Code)})

				err := table.Render()
				if err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&parent, "parent", "p", "", "parent MSP customer ID")
	cmd.Flags().StringVarP(&name, "name", "n", "", "deployment name")
	cmd.Flags().StringVar(&handle, "handle", "", "deployment handle")
	cmd.Flags().StringVar(&subdomain, "subdomain", "", "deployment subdomain")

	return cmd
}

func newDeploymentsDeleteCommand() *cobra.Command {
	var (
		parent string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "delete CUSTOMER_ID",
		Short: "Delete a sub-deployment",
		Long:  "Delete a sub-deployment from a parent MSP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			customerID := args[0]

			parentID := parentFlag(parent)
			if parentID == "" {
				return constants.ErrParentRequired
			}

			if !force && !confirm(cmd, fmt.Sprintf("Really delete deployment '%s'? (y/N): ", customerID)) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")

				return nil
			}

			client, err := createClient(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer client.Close()

			result, err := client.Deployments().Delete(cmd.Context(), customerID, parentID)
			if err != nil {
				return fmt.Errorf("failed to delete deployment: %w", err)
			}

			return render(cmd.OutOrStdout(), result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Successfully deleted deployment '%s' (%s)\n", result.Deleted.Name, result.Deleted.CustomerID)

				return err
			})
		},
	}

	cmd.Flags().StringVarP(&parent, "parent", "p", "", "parent MSP customer ID")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")

	return cmd
}

func confirm(cmd *cobra.Command, question string) bool {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), question)

	response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	response = strings.TrimSpace(response)

	return response == "y" || response == "Y"
}

func displayDeploymentsTable(w io.Writer, deployments []prophet.Deployment) error {
	table := tablewriter.NewWriter(w)
	table.Header("Customer ID", "Name", "Handle", "Status", "Created")

	for i := range deployments {
		d := &deployments[i]
		_ = table.Append([]string{
			d.CustomerID,
			d.Name,
			d.Handle,
			formatConfigValue(d.Status()),
			formatConfigValue(d.CreatedAt),
		})
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	_, _ = fmt.Fprintln(w, "Total: "+strconv.Itoa(len(deployments)))

	return nil
}
