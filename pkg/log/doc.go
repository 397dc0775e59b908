/*
Package log provides structured logging for tenantd built on zerolog.

The package wraps zerolog with a small global logger, level configuration,
and child-logger helpers carrying the fields that matter in this domain:
component, tenant_id, deployment_id, and namespace.

# Usage

Initialize once at process start:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
	})

Component-scoped logging:

	logger := log.WithComponent("deployer")
	logger.Info().Str("tenant_id", tenantID).Msg("deployment starting")

Deployment-scoped logging:

	dlog := log.WithDeployment(record.ID)
	dlog.Error().Err(err).Msg("manifest apply failed")

Console output (the default) is human-readable with RFC3339 timestamps;
JSON output is intended for log shippers in server mode.

# Conventions

  - One Init call per process, before any logging
  - Packages take no logger dependency; they derive child loggers here
  - Errors are attached with .Err(err), never formatted into the message
*/
package log
