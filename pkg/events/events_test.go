package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribers(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)
	require.Equal(t, 1, broker.SubscriberCount())

	broker.Publish(&Event{
		Type:         EventDeploymentStarted,
		TenantID:     "ten-1",
		DeploymentID: "dep-abc123",
		Message:      "deployment starting",
	})

	select {
	case event := <-sub:
		assert.Equal(t, EventDeploymentStarted, event.Type)
		assert.Equal(t, "ten-1", event.TenantID)
		assert.Equal(t, "dep-abc123", event.DeploymentID)
		assert.False(t, event.Timestamp.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("event never delivered")
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	// Never drained; the broker must drop instead of blocking
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			broker.Publish(&Event{Type: EventDeploymentProgress, Message: "tick"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	broker.Unsubscribe(sub)
	assert.Equal(t, 0, broker.SubscriberCount())
}
