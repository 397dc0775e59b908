/*
Package events provides deployment lifecycle event distribution.

The broker fans out events to any number of subscribers over buffered
channels. Publishing is fire-and-forget: a deployment is never blocked or
failed by a slow or absent consumer, and events to a full subscriber
buffer are dropped rather than queued.

# Event Types

  - deployment.started / deployment.progress
  - deployment.completed / deployment.failed
  - rollback.started
  - tenant.removed
  - ports.released

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	go func() {
		for event := range sub {
			fmt.Printf("[%s] %s\n", event.Type, event.Message)
		}
	}()

	broker.Publish(&events.Event{
		Type:         events.EventDeploymentStarted,
		TenantID:     tenant.ID,
		DeploymentID: record.ID,
	})
*/
package events
