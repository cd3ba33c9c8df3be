package events

import (
	"sync"

	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

type EventType string

const (
	EventProgress EventType = "progress"
	EventLog      EventType = "log"
	EventError    EventType = "error"
	EventComplete EventType = "complete"
)

// Event is one message on the deployment event stream. Exactly one payload
// field is set, matching Type.
type Event struct {
	Type     EventType                    `json:"type"`
	Progress *entities.DeploymentProgress `json:"progress,omitempty"`
	Log      string                       `json:"log,omitempty"`
	Error    *entities.DeploymentError    `json:"error,omitempty"`
	Result   *entities.DeploymentResult   `json:"result,omitempty"`
}

// Payload returns the field matching the event type, for wire serialization.
func (e Event) Payload() interface{} {
	switch e.Type {
	case EventProgress:
		return e.Progress
	case EventError:
		return e.Error
	case EventComplete:
		return e.Result
	default:
		return e.Log
	}
}

const subscriberBuffer = 64

// Broker fans deployment events out to any number of subscribers. Delivery is
// fire-and-forget: a subscriber whose buffer is full misses the event, so
// consumers must treat progress as level-triggered status, not edge-triggered
// notifications.
type Broker struct {
	mu      sync.RWMutex
	clients map[chan Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		clients: make(map[chan Event]struct{}),
	}
}

func (b *Broker) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[ch] = struct{}{}
	return ch
}

func (b *Broker) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[ch]; ok {
		delete(b.clients, ch)
		close(ch)
	}
}

func (b *Broker) publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.clients {
		select {
		case client <- event:
		default:
			// Slow subscriber, drop rather than block the pipeline.
		}
	}
}

func (b *Broker) Progress(progress entities.DeploymentProgress) {
	b.publish(Event{Type: EventProgress, Progress: &progress})
}

func (b *Broker) Log(message string) {
	b.publish(Event{Type: EventLog, Log: message})
}

func (b *Broker) Error(step, message string) {
	b.publish(Event{Type: EventError, Error: &entities.DeploymentError{Step: step, Message: message}})
}

func (b *Broker) Complete(result entities.DeploymentResult) {
	b.publish(Event{Type: EventComplete, Result: &result})
}
