package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tenantio/tenantd/pkg/catalog"
	"github.com/tenantio/tenantd/pkg/cluster"
	"github.com/tenantio/tenantd/pkg/deploy"
	"github.com/tenantio/tenantd/pkg/events"
	"github.com/tenantio/tenantd/pkg/log"
	"github.com/tenantio/tenantd/pkg/manifest"
	"github.com/tenantio/tenantd/pkg/ports"
	"github.com/tenantio/tenantd/pkg/storage"
	"github.com/tenantio/tenantd/pkg/types"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tenantd",
	Short: "Tenantd - multi-tenant deployment orchestrator",
	Long: `Tenantd provisions and manages per-tenant service stacks on a
Kubernetes cluster: NodePort allocation, manifest generation, ordered
idempotent applies, and a full deployment history with rollback.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		jsonOut, _ := cmd.Flags().GetBool("log-json")
		log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Tenantd version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("data-dir", "./tenantd-data", "Data directory for orchestrator state")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit structured JSON logs")

	rootCmd.AddCommand(tenantCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(teardownCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(serveCmd)
}

// openStore opens the bolt-backed store under --data-dir
func openStore(cmd *cobra.Command) (storage.Store, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}
	return storage.NewBoltStore(dataDir)
}

// addClusterFlags registers the cluster connection flags on commands that
// talk to the cluster API.
func addClusterFlags(cmd *cobra.Command) {
	cmd.Flags().String("cluster-api", "https://127.0.0.1:6443", "Cluster API server URL")
	cmd.Flags().String("cluster-token", "", "Bearer token for the cluster API")
	cmd.Flags().String("cluster-ca", "", "Path to the cluster CA certificate")
	cmd.Flags().Bool("cluster-insecure", false, "Skip cluster TLS verification")
}

func addPortFlags(cmd *cobra.Command) {
	cmd.Flags().Int("port-range-start", ports.DefaultRangeStart, "First allocatable NodePort")
	cmd.Flags().Int("port-range-end", ports.DefaultRangeEnd, "Last allocatable NodePort")
	cmd.Flags().IntSlice("reserved-port", nil, "NodePort to withhold from allocation (repeatable)")
}

func buildAllocator(cmd *cobra.Command, store storage.Store) *ports.Allocator {
	cfg := &ports.Config{}
	cfg.RangeStart, _ = cmd.Flags().GetInt("port-range-start")
	cfg.RangeEnd, _ = cmd.Flags().GetInt("port-range-end")
	if reserved, _ := cmd.Flags().GetIntSlice("reserved-port"); len(reserved) > 0 {
		cfg.ReservedPorts = make(map[int]bool, len(reserved))
		for _, port := range reserved {
			cfg.ReservedPorts[port] = true
		}
	}
	return ports.NewAllocator(store, cfg)
}

// buildDeployer wires a deployer from the command's flags. The broker is
// optional; CLI one-shot commands pass nil and rely on stdout progress.
func buildDeployer(cmd *cobra.Command, store storage.Store, broker *events.Broker) (*deploy.Deployer, error) {
	baseURL, _ := cmd.Flags().GetString("cluster-api")
	token, _ := cmd.Flags().GetString("cluster-token")
	caFile, _ := cmd.Flags().GetString("cluster-ca")
	insecure, _ := cmd.Flags().GetBool("cluster-insecure")

	client, err := cluster.NewHTTPClient(cluster.Config{
		BaseURL:            baseURL,
		BearerToken:        token,
		CACertFile:         caFile,
		InsecureSkipVerify: insecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster client: %v", err)
	}

	return deploy.NewDeployer(&deploy.Config{
		Store:     store,
		Allocator: buildAllocator(cmd, store),
		Generator: manifest.NewGenerator(catalog.Default()),
		Cluster:   client,
		Broker:    broker,
		Progress: func(deploymentID, message string, fields map[string]string) {
			fmt.Printf("  %s\n", message)
		},
	})
}

// findTenant resolves a tenant by id first, then by slug
func findTenant(store storage.Store, ref string) (*types.Tenant, error) {
	tenant, err := store.GetTenant(ref)
	if err == nil {
		return tenant, nil
	}
	return store.GetTenantBySlug(ref)
}
