package main

import (
	"fmt"
	"os/user"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tenantio/tenantd/pkg/types"
)

var deployCmd = &cobra.Command{
	Use:   "deploy TENANT",
	Short: "Deploy a tenant's service stack",
	Long: `Deploy a tenant's enabled services to the cluster: allocate ports,
render manifests, and apply them in order. Progress is printed as each
manifest lands. The deployment record id is printed for later status,
history, and rollback commands.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		services, _ := cmd.Flags().GetStringSlice("service")
		initiator, _ := cmd.Flags().GetString("initiator")
		if initiator == "" {
			initiator = currentUser()
		}

		var serviceSet []types.ServiceType
		for _, svc := range services {
			st := types.ServiceType(svc)
			if !validServiceType(st) {
				return fmt.Errorf("unknown service type %q", svc)
			}
			serviceSet = append(serviceSet, st)
		}

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		tenant, err := findTenant(store, args[0])
		if err != nil {
			return err
		}

		deployer, err := buildDeployer(cmd, store, nil)
		if err != nil {
			return err
		}

		fmt.Printf("Deploying tenant '%s' to %s...\n", tenant.Slug, tenant.DeploymentTarget)

		record, err := deployer.Deploy(cmd.Context(), tenant.ID, serviceSet, force, initiator)
		if record != nil {
			fmt.Println()
			fmt.Printf("  Deployment: %s\n", record.ID)
			fmt.Printf("  Status: %s\n", record.Status)
			if record.ConfigSnapshot != nil {
				for _, svc := range record.ServicesDeployed {
					fmt.Printf("  %s: port %d\n", svc, record.ConfigSnapshot.Ports[svc])
				}
			}
		}
		if err != nil {
			return fmt.Errorf("deployment failed: %v", err)
		}

		if tenant.DeploymentTarget == types.TargetSelfHosted {
			fmt.Println()
			fmt.Println("Manifests generated. Retrieve them with 'tenantd status --manifest'.")
		} else {
			fmt.Printf("\n✓ Deployed %d services to %s\n", len(record.ServicesDeployed), tenant.Namespace())
		}
		return nil
	},
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback TENANT DEPLOYMENT_ID",
	Short: "Roll a tenant back to a previous deployment",
	Long: `Re-apply the manifest snapshot of a previous completed deployment.
The target must belong to the tenant, be completed, and carry a stored
manifest.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		initiator, _ := cmd.Flags().GetString("initiator")
		if initiator == "" {
			initiator = currentUser()
		}

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		tenant, err := findTenant(store, args[0])
		if err != nil {
			return err
		}

		deployer, err := buildDeployer(cmd, store, nil)
		if err != nil {
			return err
		}

		fmt.Printf("Rolling tenant '%s' back to %s...\n", tenant.Slug, args[1])

		record, err := deployer.Rollback(cmd.Context(), tenant.ID, args[1], initiator)
		if err != nil {
			return fmt.Errorf("rollback failed: %v", err)
		}

		fmt.Printf("✓ Rollback %s completed\n", record.ID)
		return nil
	},
}

var teardownCmd = &cobra.Command{
	Use:   "teardown TENANT",
	Short: "Remove a tenant's deployment from the cluster",
	Long: `Delete the tenant's namespace (which removes every object in it)
and release the tenant's port allocations. The tenant record and its
deployment history are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		confirmed, _ := cmd.Flags().GetBool("yes")
		if !confirmed {
			return fmt.Errorf("teardown removes the tenant's namespace; re-run with --yes to confirm")
		}

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		tenant, err := findTenant(store, args[0])
		if err != nil {
			return err
		}

		deployer, err := buildDeployer(cmd, store, nil)
		if err != nil {
			return err
		}

		if err := deployer.DeleteTenantDeployment(cmd.Context(), tenant.ID); err != nil {
			return fmt.Errorf("teardown failed: %v", err)
		}

		fmt.Printf("✓ Tenant '%s' deployment removed\n", tenant.Slug)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status DEPLOYMENT_ID",
	Short: "Show a deployment record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		showManifest, _ := cmd.Flags().GetBool("manifest")

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		record, err := store.GetDeployment(args[0])
		if err != nil {
			return err
		}

		if showManifest {
			fmt.Print(record.GeneratedManifest)
			return nil
		}

		fmt.Printf("Deployment: %s\n", record.ID)
		fmt.Printf("  Tenant: %s\n", record.TenantID)
		fmt.Printf("  Type: %s\n", record.Type)
		fmt.Printf("  Status: %s\n", record.Status)
		fmt.Printf("  Initiator: %s\n", record.Initiator)
		fmt.Printf("  Started: %s\n", record.StartedAt.Format("2006-01-02 15:04:05"))
		if record.Status.Terminal() {
			fmt.Printf("  Completed: %s (%.1fs)\n",
				record.CompletedAt.Format("2006-01-02 15:04:05"), record.DurationSeconds)
		}
		if record.RollbackFromID != "" {
			fmt.Printf("  Rolled back to: %s\n", record.RollbackFromID)
		}
		if record.StatusMessage != "" {
			fmt.Printf("  Message: %s\n", record.StatusMessage)
		}
		if record.ConfigSnapshot != nil {
			fmt.Printf("  Namespace: %s\n", record.ConfigSnapshot.Namespace)
			for _, svc := range record.ServicesDeployed {
				fmt.Printf("  %s: port %d\n", svc, record.ConfigSnapshot.Ports[svc])
			}
		}
		if len(record.Logs) > 0 {
			fmt.Println("  Log:")
			for _, line := range record.Logs {
				fmt.Printf("    %s\n", line)
			}
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history TENANT",
	Short: "Show a tenant's deployment history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		tenant, err := findTenant(store, args[0])
		if err != nil {
			return err
		}

		records, err := store.ListDeploymentsByTenant(tenant.ID, page, 20)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Printf("No deployments on page %d for tenant '%s'\n", page, tenant.Slug)
			return nil
		}

		fmt.Printf("%-16s %-10s %-12s %-20s %-10s %s\n",
			"ID", "TYPE", "STATUS", "STARTED", "DURATION", "SERVICES")
		for _, record := range records {
			duration := "-"
			if record.Status.Terminal() {
				duration = fmt.Sprintf("%.1fs", record.DurationSeconds)
			}
			names := make([]string, len(record.ServicesDeployed))
			for i, svc := range record.ServicesDeployed {
				names[i] = string(svc)
			}
			fmt.Printf("%-16s %-10s %-12s %-20s %-10s %s\n",
				record.ID, record.Type, record.Status,
				record.StartedAt.Format("2006-01-02 15:04:05"),
				duration, strings.Join(names, ","))
		}
		return nil
	},
}

func init() {
	deployCmd.Flags().Bool("force", false, "Redeploy over an existing deployment")
	deployCmd.Flags().StringSlice("service", nil, "Limit the deployment to specific services (repeatable)")
	deployCmd.Flags().String("initiator", "", "Who initiated the deployment (defaults to the current user)")
	addClusterFlags(deployCmd)
	addPortFlags(deployCmd)

	rollbackCmd.Flags().String("initiator", "", "Who initiated the rollback (defaults to the current user)")
	addClusterFlags(rollbackCmd)
	addPortFlags(rollbackCmd)

	teardownCmd.Flags().Bool("yes", false, "Confirm the teardown")
	addClusterFlags(teardownCmd)
	addPortFlags(teardownCmd)

	statusCmd.Flags().Bool("manifest", false, "Print the stored manifest instead of the summary")

	historyCmd.Flags().Int("page", 1, "History page, newest first")
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}
