package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tenantio/tenantd/pkg/catalog"
	"github.com/tenantio/tenantd/pkg/health"
)

var healthCmd = &cobra.Command{
	Use:   "health TENANT",
	Short: "Probe a tenant's deployed services",
	Long: `Probe each deployed service of a tenant over its published
NodePort: an HTTP check against the service's probe path, with a TCP dial
as fallback evidence. Exits non-zero when any service is unhealthy.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		node, _ := cmd.Flags().GetString("node")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		tenant, err := findTenant(store, args[0])
		if err != nil {
			return err
		}

		prober := health.NewProber(node, catalog.Default()).WithTimeout(timeout)
		results := prober.CheckTenant(cmd.Context(), tenant)
		if len(results) == 0 {
			fmt.Printf("Tenant '%s' has no deployed services\n", tenant.Slug)
			return nil
		}

		unhealthy := 0
		fmt.Printf("%-12s %-8s %-10s %s\n", "SERVICE", "PORT", "STATUS", "DETAIL")
		for _, result := range results {
			status := "healthy"
			if !result.Healthy {
				status = "unhealthy"
				unhealthy++
			}
			fmt.Printf("%-12s %-8d %-10s %s (%.0fms)\n",
				result.Service, result.Port, status, result.Message,
				float64(result.Duration)/float64(time.Millisecond))
		}

		if unhealthy > 0 {
			return fmt.Errorf("%d of %d services unhealthy", unhealthy, len(results))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)

	healthCmd.Flags().String("node", "127.0.0.1", "Node host carrying the published NodePorts")
	healthCmd.Flags().Duration("timeout", 10*time.Second, "Per-probe timeout")
}
