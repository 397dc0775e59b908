package cluster

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tenantio/tenantd/pkg/manifest"
)

// Client is the cluster API surface the orchestrator consumes. Only the
// verbs needed to deploy, update, and tear down the fixed tenant workload
// shape are modeled.
type Client interface {
	// Create submits a new object. Returns a conflict StatusError when
	// the object already exists.
	Create(ctx context.Context, doc manifest.Doc) error

	// Update patches an existing object to the desired state
	Update(ctx context.Context, doc manifest.Doc) error

	// Get fetches the live object body, or a not-found StatusError
	Get(ctx context.Context, kind, namespace, name string) ([]byte, error)

	// Delete removes an object. Returns a not-found StatusError when it
	// is already gone.
	Delete(ctx context.Context, kind, namespace, name string) error

	// DeleteNamespace removes a namespace and everything in it
	DeleteNamespace(ctx context.Context, name string) error
}

// Config holds the explicit connection settings for an HTTP client. The
// client is constructed once at process start and injected; there is no
// implicit kubeconfig discovery or cached global.
type Config struct {
	BaseURL            string
	BearerToken        string
	CACertFile         string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// HTTPClient talks to the cluster's REST API
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a cluster client from explicit configuration
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("cluster base URL is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	tlsCfg := &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}
	if cfg.CACertFile != "" {
		pem, err := os.ReadFile(cfg.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.CACertFile)
		}
		tlsCfg.RootCAs = pool
	}

	return &HTTPClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.BearerToken,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: tlsCfg,
			},
		},
	}, nil
}

// resource describes how a kind maps onto REST paths
type resource struct {
	apiPrefix  string
	plural     string
	namespaced bool
}

var resources = map[string]resource{
	"Namespace":             {apiPrefix: "/api/v1", plural: "namespaces", namespaced: false},
	"Secret":                {apiPrefix: "/api/v1", plural: "secrets", namespaced: true},
	"ConfigMap":             {apiPrefix: "/api/v1", plural: "configmaps", namespaced: true},
	"PersistentVolumeClaim": {apiPrefix: "/api/v1", plural: "persistentvolumeclaims", namespaced: true},
	"Service":               {apiPrefix: "/api/v1", plural: "services", namespaced: true},
	"Deployment":            {apiPrefix: "/apis/apps/v1", plural: "deployments", namespaced: true},
}

func (c *HTTPClient) collectionPath(kind, namespace string) (string, error) {
	res, ok := resources[kind]
	if !ok {
		return "", fmt.Errorf("unsupported kind: %s", kind)
	}
	if !res.namespaced {
		return c.baseURL + res.apiPrefix + "/" + res.plural, nil
	}
	if namespace == "" {
		return "", fmt.Errorf("namespace required for kind %s", kind)
	}
	return c.baseURL + res.apiPrefix + "/namespaces/" + namespace + "/" + res.plural, nil
}

func (c *HTTPClient) resourcePath(kind, namespace, name string) (string, error) {
	base, err := c.collectionPath(kind, namespace)
	if err != nil {
		return "", err
	}
	return base + "/" + name, nil
}

func (c *HTTPClient) Create(ctx context.Context, doc manifest.Doc) error {
	url, err := c.collectionPath(doc.Kind, doc.Namespace)
	if err != nil {
		return err
	}
	body, err := doc.JSON()
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, url, body, "application/json", nil)
}

// Update applies the full desired state as a merge patch. Merge patches do
// not require the live resourceVersion, which keeps the apply path free of
// read-modify-write races.
func (c *HTTPClient) Update(ctx context.Context, doc manifest.Doc) error {
	url, err := c.resourcePath(doc.Kind, doc.Namespace, doc.Name)
	if err != nil {
		return err
	}
	body, err := doc.JSON()
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, url, body, "application/merge-patch+json", nil)
}

func (c *HTTPClient) Get(ctx context.Context, kind, namespace, name string) ([]byte, error) {
	url, err := c.resourcePath(kind, namespace, name)
	if err != nil {
		return nil, err
	}
	var out []byte
	if err := c.do(ctx, http.MethodGet, url, nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Delete(ctx context.Context, kind, namespace, name string) error {
	url, err := c.resourcePath(kind, namespace, name)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, url, nil, "", nil)
}

func (c *HTTPClient) DeleteNamespace(ctx context.Context, name string) error {
	return c.Delete(ctx, "Namespace", "", name)
}

func (c *HTTPClient) do(ctx context.Context, method, url string, body []byte, contentType string, out *[]byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("cluster API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read cluster API response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Code:   resp.StatusCode,
			Method: method,
			URL:    url,
			Body:   string(respBody),
		}
	}

	if out != nil {
		*out = respBody
	}
	return nil
}
