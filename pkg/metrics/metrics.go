package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Deployment metrics
	DeploymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenantd_deployments_total",
			Help: "Total number of deployment attempts by type and terminal status",
		},
		[]string{"type", "status"},
	)

	DeploymentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tenantd_deployment_duration_seconds",
			Help:    "Deployment duration in seconds by type",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"type"},
	)

	ManifestAppliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenantd_manifest_applies_total",
			Help: "Total number of manifest apply calls by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// Port allocator metrics
	PortsAllocated = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tenantd_ports_allocated",
			Help: "Number of currently allocated NodePort-range ports",
		},
	)

	PortAllocationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenantd_port_allocation_failures_total",
			Help: "Total number of failed port allocation requests",
		},
	)

	// Tenant metrics
	TenantsDeployed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tenantd_tenants_deployed",
			Help: "Number of tenants with an active deployment",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(DeploymentsTotal)
	prometheus.MustRegister(DeploymentDuration)
	prometheus.MustRegister(ManifestAppliesTotal)
	prometheus.MustRegister(PortsAllocated)
	prometheus.MustRegister(PortAllocationFailures)
	prometheus.MustRegister(TenantsDeployed)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
