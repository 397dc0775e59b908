// Package health probes deployed tenant services over their published
// NodePorts.
//
// The cluster's own readiness probes guard rollout inside the cluster;
// this package answers the operator-facing question of whether a service
// is reachable from outside, on the port the allocator assigned. Each
// service gets one HTTP GET against its catalog probe path, with a TCP
// dial as fallback evidence when the HTTP probe fails.
package health
