package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tenantio/tenantd/pkg/types"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenants",
}

var tenantAddCmd = &cobra.Command{
	Use:   "add SLUG NAME",
	Short: "Register a new tenant",
	Long: `Register a new tenant. The tenant starts unapproved; approve it
before deploying. Services named via --service start enabled with catalog
defaults.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug, name := args[0], args[1]
		target, _ := cmd.Flags().GetString("target")
		services, _ := cmd.Flags().GetStringSlice("service")
		quota, _ := cmd.Flags().GetInt("storage-quota")
		branding, _ := cmd.Flags().GetStringToString("branding")

		switch types.DeploymentTarget(target) {
		case types.TargetCentralCloud, types.TargetCompanyCloud, types.TargetSelfHosted:
		default:
			return fmt.Errorf("invalid target %q (central_cloud, company_cloud, or self_hosted)", target)
		}

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		if _, err := store.GetTenantBySlug(slug); err == nil {
			return fmt.Errorf("tenant with slug %q already exists", slug)
		}

		tenant := &types.Tenant{
			ID:               uuid.New().String(),
			Slug:             slug,
			Name:             name,
			DeploymentTarget: types.DeploymentTarget(target),
			StorageQuotaGB:   quota,
			Branding:         branding,
			CreatedAt:        time.Now(),
		}
		for _, svc := range services {
			st := types.ServiceType(svc)
			if !validServiceType(st) {
				return fmt.Errorf("unknown service type %q", svc)
			}
			tenant.Services = append(tenant.Services, &types.ServiceDescriptor{
				ServiceType: st,
				IsEnabled:   true,
			})
		}

		if err := store.CreateTenant(tenant); err != nil {
			return fmt.Errorf("failed to create tenant: %v", err)
		}

		fmt.Printf("✓ Tenant '%s' registered\n", slug)
		fmt.Printf("  ID: %s\n", tenant.ID)
		fmt.Printf("  Namespace: %s\n", tenant.Namespace())
		fmt.Printf("  Target: %s\n", tenant.DeploymentTarget)
		fmt.Printf("  Services: %d\n", len(tenant.Services))
		fmt.Println()
		fmt.Println("The tenant is unapproved. Run 'tenantd tenant approve' before deploying.")
		return nil
	},
}

var tenantApproveCmd = &cobra.Command{
	Use:   "approve TENANT",
	Short: "Approve a tenant for deployment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		tenant, err := findTenant(store, args[0])
		if err != nil {
			return err
		}
		if tenant.IsApproved {
			fmt.Printf("Tenant '%s' is already approved\n", tenant.Slug)
			return nil
		}

		tenant.IsApproved = true
		tenant.UpdatedAt = time.Now()
		if err := store.UpdateTenant(tenant); err != nil {
			return fmt.Errorf("failed to update tenant: %v", err)
		}

		fmt.Printf("✓ Tenant '%s' approved\n", tenant.Slug)
		return nil
	},
}

var tenantSuspendCmd = &cobra.Command{
	Use:   "suspend TENANT",
	Short: "Suspend a tenant",
	Long: `Suspend a tenant. A suspended tenant is rejected by deploy until
resumed; existing cluster objects are left running.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		tenant, err := findTenant(store, args[0])
		if err != nil {
			return err
		}

		tenant.IsSuspended = true
		tenant.UpdatedAt = time.Now()
		if err := store.UpdateTenant(tenant); err != nil {
			return fmt.Errorf("failed to update tenant: %v", err)
		}

		fmt.Printf("✓ Tenant '%s' suspended\n", tenant.Slug)
		return nil
	},
}

var tenantResumeCmd = &cobra.Command{
	Use:   "resume TENANT",
	Short: "Lift a tenant's suspension",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		tenant, err := findTenant(store, args[0])
		if err != nil {
			return err
		}

		tenant.IsSuspended = false
		tenant.UpdatedAt = time.Now()
		if err := store.UpdateTenant(tenant); err != nil {
			return fmt.Errorf("failed to update tenant: %v", err)
		}

		fmt.Printf("✓ Tenant '%s' resumed\n", tenant.Slug)
		return nil
	},
}

var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered tenants",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		tenants, err := store.ListTenants()
		if err != nil {
			return err
		}
		if len(tenants) == 0 {
			fmt.Println("No tenants registered")
			return nil
		}

		fmt.Printf("%-16s %-24s %-14s %-10s %-10s %s\n",
			"SLUG", "NAME", "TARGET", "APPROVED", "SUSPENDED", "DEPLOYED")
		for _, tenant := range tenants {
			deployed := 0
			for _, svc := range tenant.Services {
				if svc.IsDeployed {
					deployed++
				}
			}
			fmt.Printf("%-16s %-24s %-14s %-10t %-10t %d/%d\n",
				tenant.Slug, tenant.Name, tenant.DeploymentTarget,
				tenant.IsApproved, tenant.IsSuspended,
				deployed, len(tenant.Services))
		}
		return nil
	},
}

func init() {
	tenantCmd.AddCommand(tenantAddCmd)
	tenantCmd.AddCommand(tenantApproveCmd)
	tenantCmd.AddCommand(tenantSuspendCmd)
	tenantCmd.AddCommand(tenantResumeCmd)
	tenantCmd.AddCommand(tenantListCmd)

	tenantAddCmd.Flags().String("target", string(types.TargetCentralCloud), "Deployment target (central_cloud, company_cloud, self_hosted)")
	tenantAddCmd.Flags().StringSlice("service", nil, "Service to enable (repeatable)")
	tenantAddCmd.Flags().Int("storage-quota", 0, "Storage quota in GB (0 uses the default)")
	tenantAddCmd.Flags().StringToString("branding", nil, "Branding key=value pairs")
}

func validServiceType(st types.ServiceType) bool {
	for _, known := range types.AllServiceTypes {
		if st == known {
			return true
		}
	}
	return false
}
