/*
Package metrics provides Prometheus metrics for tenantd.

Collectors are package-level variables registered once at init, following
the standard client_golang pattern. The ops HTTP server exposes them on
/metrics via Handler().

# Exported Metrics

Deployments:
  - tenantd_deployments_total{type,status}: attempts by terminal status
  - tenantd_deployment_duration_seconds{type}: end-to-end duration
  - tenantd_manifest_applies_total{kind,outcome}: per-manifest apply calls
    (outcome is created, updated, recreated, or error)

Port allocator:
  - tenantd_ports_allocated: currently held NodePort-range ports
  - tenantd_port_allocation_failures_total: exhaustion and conflicts

Tenants:
  - tenantd_tenants_deployed: tenants with an active deployment

# Usage

	metrics.DeploymentsTotal.WithLabelValues("deploy", "completed").Inc()
	metrics.DeploymentDuration.WithLabelValues("deploy").Observe(elapsed.Seconds())

Serving:

	mux.Handle("/metrics", metrics.Handler())
*/
package metrics
