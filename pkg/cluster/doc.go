/*
Package cluster provides the Kubernetes API client used by the
orchestrator.

This is deliberately not a general-purpose Kubernetes client: it models
exactly the verbs and the six kinds (Namespace, Secret, ConfigMap,
PersistentVolumeClaim, Deployment, Service) needed to deploy, update, and
tear down the fixed tenant workload shape.

# Design

The client is an explicit value constructed once from Config and passed by
dependency injection into the orchestrator. There is no implicit
in-cluster/kubeconfig discovery and no cached module-level client; tests
substitute the Client interface with a fake.

Requests are plain REST calls against the API server:

	POST   {prefix}/namespaces/{ns}/{plural}          create
	PATCH  {prefix}/namespaces/{ns}/{plural}/{name}   update (merge patch)
	GET    {prefix}/namespaces/{ns}/{plural}/{name}   read
	DELETE {prefix}/namespaces/{ns}/{plural}/{name}   delete

Updates are full-body merge patches, which need no resourceVersion and so
keep the apply path free of read-modify-write races. Service NodePort
changes cannot be patched at all; the orchestrator handles that case with
delete-then-recreate.

# Error Mapping

Non-2xx responses become *StatusError carrying the code and raw body.
Two classes get helpers because the orchestrator branches on them:

  - IsConflict (409): create found the object; switch to update
  - IsNotFound (404): delete target already gone; treated as success

Everything else is fatal for the enclosing deployment attempt.

# Usage

	client, err := cluster.NewHTTPClient(cluster.Config{
		BaseURL:     "https://10.0.0.1:6443",
		BearerToken: token,
		CACertFile:  "/etc/tenantd/ca.crt",
	})

	err = client.Create(ctx, doc)
	if cluster.IsConflict(err) {
		err = client.Update(ctx, doc)
	}
*/
package cluster
