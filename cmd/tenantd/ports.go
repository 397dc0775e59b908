package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "Inspect NodePort allocations",
}

var portsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active port allocations",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		allocs, err := store.ListActiveAllocations()
		if err != nil {
			return err
		}
		if len(allocs) == 0 {
			fmt.Println("No active allocations")
			return nil
		}

		fmt.Printf("%-8s %-38s %-12s %s\n", "PORT", "TENANT", "SERVICE", "NAMESPACE")
		for _, alloc := range allocs {
			fmt.Printf("%-8d %-38s %-12s %s\n",
				alloc.Port, alloc.TenantID, alloc.ServiceType, alloc.Namespace)
		}
		return nil
	},
}

var portsCheckCmd = &cobra.Command{
	Use:   "check PORT",
	Short: "Check whether a port could be allocated",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid port %q", args[0])
		}

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		if buildAllocator(cmd, store).IsAvailable(port) {
			fmt.Printf("Port %d is available\n", port)
			return nil
		}

		if alloc, err := store.GetAllocation(port); err == nil && alloc != nil && alloc.IsAllocated {
			fmt.Printf("Port %d is allocated to tenant %s (%s)\n",
				port, alloc.TenantID, alloc.ServiceType)
			return nil
		}
		fmt.Printf("Port %d is unavailable (outside the range or reserved)\n", port)
		return nil
	},
}

func init() {
	portsCmd.AddCommand(portsListCmd)
	portsCmd.AddCommand(portsCheckCmd)

	addPortFlags(portsCheckCmd)
}
