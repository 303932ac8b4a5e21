package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub1 := broker.Subscribe()
	sub2 := broker.Subscribe()
	defer broker.Unsubscribe(sub1)
	defer broker.Unsubscribe(sub2)
	assert.Equal(t, 2, broker.SubscriberCount())

	broker.Publish(New(EventScenarioCreated, "scenario 'base' created", map[string]string{
		"scenario_id": "1",
	}))

	for _, sub := range []Subscriber{sub1, sub2} {
		select {
		case event := <-sub:
			assert.Equal(t, EventScenarioCreated, event.Type)
			assert.NotEmpty(t, event.ID)
			assert.False(t, event.Timestamp.IsZero())
			assert.Equal(t, "1", event.Metadata["scenario_id"])
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	broker.Unsubscribe(sub)
	assert.Equal(t, 0, broker.SubscriberCount())

	_, open := <-sub
	assert.False(t, open)
}

func TestFullSubscriberDoesNotBlockPublish(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	// Overfill the subscriber buffer; publishing must not stall.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			broker.Publish(New(EventDatasetCreated, "dataset stored", nil))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	require.NotPanics(t, func() { <-sub })
}
