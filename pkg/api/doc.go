// Package api serves the read-only operations surface: liveness, Prometheus
// metrics, and tenant/deployment inspection.
//
// Everything that mutates state goes through the CLI; this server never
// writes. Responses are JSON, errors carry an "error" field, and unknown
// tenants or deployments map to 404.
//
// # Routes
//
//	GET /health                        liveness probe
//	GET /metrics                       Prometheus exposition
//	GET /v1/tenants                    all tenants
//	GET /v1/tenants/{id}               one tenant
//	GET /v1/tenants/{id}/deployments   deployment history, paged, newest first
//	GET /v1/deployments/{id}           one deployment record
package api
