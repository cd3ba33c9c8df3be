package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

func TestBrokerFansOutToAllSubscribers(t *testing.T) {
	b := NewBroker()
	first := b.Subscribe()
	second := b.Subscribe()

	b.Progress(entities.DeploymentProgress{CurrentStep: "enableApis", StepProgress: 50})

	for _, ch := range []chan Event{first, second} {
		event := <-ch
		require.Equal(t, EventProgress, event.Type)
		assert.Equal(t, "enableApis", event.Progress.CurrentStep)
	}
}

func TestBrokerDropsWhenSubscriberIsFull(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		b.Log("message")
	}

	// Publishing never blocked; the buffer holds at most its capacity.
	assert.Len(t, ch, subscriberBuffer)
}

func TestBrokerUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	b.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)

	// Double unsubscribe must not panic on a closed channel.
	b.Unsubscribe(ch)
}

func TestEventPayloadMatchesType(t *testing.T) {
	progress := Event{Type: EventProgress, Progress: &entities.DeploymentProgress{Message: "m"}}
	assert.Equal(t, progress.Progress, progress.Payload())

	errEvent := Event{Type: EventError, Error: &entities.DeploymentError{Step: "setupFirestore"}}
	assert.Equal(t, errEvent.Error, errEvent.Payload())

	complete := Event{Type: EventComplete, Result: &entities.DeploymentResult{Success: true}}
	assert.Equal(t, complete.Result, complete.Payload())

	logEvent := Event{Type: EventLog, Log: "hello"}
	assert.Equal(t, "hello", logEvent.Payload())
}
