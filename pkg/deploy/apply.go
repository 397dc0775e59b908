package deploy

import (
	"context"
	"fmt"

	"github.com/tenantio/tenantd/pkg/cluster"
	"github.com/tenantio/tenantd/pkg/log"
	"github.com/tenantio/tenantd/pkg/manifest"
	"github.com/tenantio/tenantd/pkg/metrics"
	"github.com/tenantio/tenantd/pkg/types"
)

// applyDocs applies every document in order, stopping at the first
// failure. Each document is created first; a conflict means the object
// already exists and is updated in place, except for a Service whose
// NodePort changed, which must be deleted and recreated because the
// cluster rejects NodePort mutations.
func (d *Deployer) applyDocs(ctx context.Context, record *types.DeploymentRecord, docs []manifest.Doc) error {
	logger := log.WithDeployment(record.ID)
	for _, doc := range docs {
		outcome, err := d.applyDoc(ctx, doc)
		if err != nil {
			metrics.ManifestAppliesTotal.WithLabelValues(doc.Kind, "error").Inc()
			return fmt.Errorf("failed to apply %s %s: %w", doc.Kind, doc.Name, err)
		}
		metrics.ManifestAppliesTotal.WithLabelValues(doc.Kind, outcome).Inc()
		logger.Debug().
			Str("kind", doc.Kind).
			Str("name", doc.Name).
			Str("outcome", outcome).
			Msg("manifest applied")
		d.progress(record, fmt.Sprintf("%s %s/%s %s", doc.Kind, doc.Namespace, doc.Name, outcome),
			map[string]string{"kind": doc.Kind, "name": doc.Name})
	}
	return nil
}

// applyDoc performs one create-or-update and reports the outcome taken:
// "created", "updated", or "recreated".
func (d *Deployer) applyDoc(ctx context.Context, doc manifest.Doc) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, d.applyTimeout)
	err := d.cluster.Create(callCtx, doc)
	cancel()
	if err == nil {
		return "created", nil
	}
	if !cluster.IsConflict(err) {
		return "", err
	}

	if doc.Kind == "Service" {
		drifted, driftErr := d.nodePortDrifted(ctx, doc)
		if driftErr != nil {
			return "", driftErr
		}
		if drifted {
			if err := d.recreate(ctx, doc); err != nil {
				return "", err
			}
			return "recreated", nil
		}
	}

	callCtx, cancel = context.WithTimeout(ctx, d.applyTimeout)
	err = d.cluster.Update(callCtx, doc)
	cancel()
	if err != nil {
		return "", err
	}
	return "updated", nil
}

// nodePortDrifted reports whether the live Service publishes a different
// NodePort than the document wants.
func (d *Deployer) nodePortDrifted(ctx context.Context, doc manifest.Doc) (bool, error) {
	desired := manifest.NodePortOf(doc)
	if desired == 0 {
		return false, nil
	}
	callCtx, cancel := context.WithTimeout(ctx, d.applyTimeout)
	body, err := d.cluster.Get(callCtx, doc.Kind, doc.Namespace, doc.Name)
	cancel()
	if err != nil {
		return false, err
	}
	live, err := manifest.ParseObject(body)
	if err != nil {
		return false, fmt.Errorf("failed to read live %s %s: %w", doc.Kind, doc.Name, err)
	}
	return manifest.NodePortOf(live) != desired, nil
}

func (d *Deployer) recreate(ctx context.Context, doc manifest.Doc) error {
	callCtx, cancel := context.WithTimeout(ctx, d.applyTimeout)
	err := d.cluster.Delete(callCtx, doc.Kind, doc.Namespace, doc.Name)
	cancel()
	if err != nil && !cluster.IsNotFound(err) {
		return err
	}
	callCtx, cancel = context.WithTimeout(ctx, d.applyTimeout)
	defer cancel()
	return d.cluster.Create(callCtx, doc)
}
