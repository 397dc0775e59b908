package health

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantio/tenantd/pkg/catalog"
	"github.com/tenantio/tenantd/pkg/types"
)

// serveOn starts an HTTP server and returns its host and port
func serveOn(t *testing.T, handler http.Handler) (string, int) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	host, portStr, err := net.SplitHostPort(server.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func deployedTenant(port int) *types.Tenant {
	return &types.Tenant{
		ID:   "ten-1",
		Slug: "acme",
		Services: []*types.ServiceDescriptor{
			{
				ServiceType:  types.ServiceDashboard,
				IsEnabled:    true,
				IsDeployed:   true,
				AssignedPort: port,
			},
			{
				ServiceType: types.ServiceMail,
				IsEnabled:   true,
				// Not deployed, must be skipped
			},
		},
	}
}

func TestCheckTenantHealthy(t *testing.T) {
	host, port := serveOn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	prober := NewProber(host, catalog.Default())
	results := prober.CheckTenant(context.Background(), deployedTenant(port))

	require.Len(t, results, 1)
	assert.Equal(t, types.ServiceDashboard, results[0].Service)
	assert.Equal(t, port, results[0].Port)
	assert.True(t, results[0].Healthy)
	assert.Contains(t, results[0].Message, "HTTP 200")
}

func TestCheckTenantUnhealthyStatus(t *testing.T) {
	host, port := serveOn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	prober := NewProber(host, catalog.Default())
	results := prober.CheckTenant(context.Background(), deployedTenant(port))

	require.Len(t, results, 1)
	assert.False(t, results[0].Healthy)
	assert.Contains(t, results[0].Message, "HTTP 503")
	// Something is listening, so the TCP fallback reports the port open
	assert.Contains(t, results[0].Message, "port open")
}

func TestCheckTenantNothingListening(t *testing.T) {
	// Grab a free port and close it again
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	prober := NewProber("127.0.0.1", catalog.Default()).WithTimeout(500 * time.Millisecond)
	results := prober.CheckTenant(context.Background(), deployedTenant(port))

	require.Len(t, results, 1)
	assert.False(t, results[0].Healthy)
	assert.Contains(t, results[0].Message, "port closed")
}
