package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tenantio/tenantd/pkg/api"
	"github.com/tenantio/tenantd/pkg/events"
	"github.com/tenantio/tenantd/pkg/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the operations API server",
	Long: `Serve the read-only operations API: liveness, Prometheus metrics,
and tenant/deployment inspection. Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		listen, _ := cmd.Flags().GetString("listen")

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		broker := events.NewBroker()
		broker.Start()
		defer broker.Stop()

		deployer, err := buildDeployer(cmd, store, broker)
		if err != nil {
			return err
		}

		server := api.NewServer(store, deployer, listen)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		// Mirror lifecycle events into the structured log
		sub := broker.Subscribe()
		go func() {
			logger := log.WithComponent("events")
			for event := range sub {
				logger.Info().
					Str("type", string(event.Type)).
					Str("tenant_id", event.TenantID).
					Str("deployment_id", event.DeploymentID).
					Msg(event.Message)
			}
		}()

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(ctx)
		}()

		fmt.Printf("Operations API listening on %s. Press Ctrl+C to stop.\n", listen)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
			cancel()
			<-errCh
		case err := <-errCh:
			if err != nil {
				return err
			}
		}

		fmt.Println("✓ Shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("listen", "127.0.0.1:9090", "Listen address for the operations API")
	addClusterFlags(serveCmd)
	addPortFlags(serveCmd)
}
