package health

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/tenantio/tenantd/pkg/catalog"
	"github.com/tenantio/tenantd/pkg/types"
)

// Result is the outcome of probing one deployed service
type Result struct {
	Service   types.ServiceType
	Port      int
	Healthy   bool
	Message   string
	CheckedAt time.Time
	Duration  time.Duration
}

// Prober checks deployed tenant services over their published NodePorts.
// An HTTP probe against the service's probe path is tried first; when that
// fails the prober falls back to a TCP dial so a listening-but-unhealthy
// service is distinguishable from an absent one.
type Prober struct {
	node    string
	catalog *catalog.ServiceCatalog
	client  *http.Client
	timeout time.Duration
}

// NewProber creates a prober that reaches NodePorts on the given node
// host or address.
func NewProber(node string, cat *catalog.ServiceCatalog) *Prober {
	timeout := 10 * time.Second
	return &Prober{
		node:    node,
		catalog: cat,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// WithTimeout sets the per-probe timeout
func (p *Prober) WithTimeout(timeout time.Duration) *Prober {
	p.timeout = timeout
	p.client.Timeout = timeout
	return p
}

// CheckTenant probes every deployed service of the tenant and returns one
// result per service. Services without an assigned port are skipped.
func (p *Prober) CheckTenant(ctx context.Context, tenant *types.Tenant) []Result {
	var results []Result
	for _, svc := range tenant.Services {
		if !svc.IsDeployed || svc.AssignedPort == 0 {
			continue
		}
		results = append(results, p.checkService(ctx, svc))
	}
	return results
}

func (p *Prober) checkService(ctx context.Context, svc *types.ServiceDescriptor) Result {
	start := time.Now()
	result := Result{
		Service:   svc.ServiceType,
		Port:      svc.AssignedPort,
		CheckedAt: start,
	}

	probePath := "/health"
	if tmpl, err := p.catalog.Template(svc.ServiceType); err == nil && tmpl.ProbePath != "" {
		probePath = tmpl.ProbePath
	}

	url := fmt.Sprintf("http://%s:%d%s", p.node, svc.AssignedPort, probePath)
	healthy, message := p.checkHTTP(ctx, url)
	if !healthy {
		// The HTTP probe failing does not mean nothing is listening
		if open, dialMsg := p.checkTCP(ctx, svc.AssignedPort); open {
			message = message + "; " + dialMsg
		} else {
			message = dialMsg
		}
	}

	result.Healthy = healthy
	result.Message = message
	result.Duration = time.Since(start)
	return result
}

func (p *Prober) checkHTTP(ctx context.Context, url string) (bool, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Sprintf("failed to create request: %v", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Sprintf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return true, fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return false, fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

func (p *Prober) checkTCP(ctx context.Context, port int) (bool, string) {
	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", p.node, port))
	if err != nil {
		return false, fmt.Sprintf("port closed: %v", err)
	}
	conn.Close()
	return true, "port open"
}
