/*
Package manifest renders Kubernetes manifests for tenant stacks.

The generator is a pure transformation of (tenant configuration, port
assignments) into an ordered set of named manifest documents. It performs
no I/O and makes no cluster calls; the only non-deterministic output is
the secret values, generated fresh on every render.

# Document Set

For a tenant with N enabled services the generator produces 4 + 2N
documents, in apply order:

	namespace      tenant-{slug}           cluster-scoped boundary
	secrets        {slug}-secrets          random JWT/session secrets
	configmap      {slug}-config           branding and stack config
	pvc            {slug}-storage          sized from the storage quota
	per service:
	  deployment   {slug}-{service}        image, replicas, resources, probes
	  service      {slug}-{service}        NodePort binding

Resource names derive only from the tenant slug and service type, so
re-rendering for the same tenant always yields the same names. That
determinism is what makes the orchestrator's create-then-update apply
idempotent.

# Combined Stream and Rollback

RenderCombined joins the documents into a single YAML stream for audit
storage. Parse decodes a stored stream back into documents through
yaml.Decoder, keyed "{kind}-{name}", preserving order; rollback re-applies
exactly what was stored without fragile text splitting.

# Port Cross-References

Every service container receives the NodePorts of all services in its
stack as environment variables (DASHBOARD_NODE_PORT, STORAGE_NODE_PORT,
and so on), sorted by service type so renders stay deterministic.

# Usage

	gen := manifest.NewGenerator(catalog.Default())

	docs, err := gen.RenderAll(tenant, portMap)
	combined, err := gen.RenderCombined(tenant, portMap)

	// Rollback path
	restored, err := manifest.Parse(record.GeneratedManifest)
*/
package manifest
