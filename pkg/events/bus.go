package events

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	gookitevent "github.com/gookit/event"

	"github.com/gridhop/gogrid/pkg/logger"
)

// Topics for node provisioning progress. GoGrid allocates node identifiers
// asynchronously, so a blocking create emits several events before it
// resolves.
const (
	TopicProvisionSubmitted = "provision.submitted"
	TopicProvisionPolling   = "provision.polling"
	TopicProvisionResolved  = "provision.resolved"
	TopicProvisionTimedOut  = "provision.timed_out"
)

// ProvisionEvent is the payload published on every provisioning topic.
type ProvisionEvent struct {
	ID        string // correlation id, stable across one create workflow
	NodeName  string
	PublicIP  string
	NodeID    string // set once the provider assigns an identifier
	Attempt   int    // poll attempt counter, 0 on submission
	Timestamp time.Time
}

// NewCorrelationID returns a fresh id to tie one create workflow's events
// together.
func NewCorrelationID() string {
	return uuid.NewString()
}

// Bus publishes provisioning progress over gookit/event. A nil *Bus is a
// valid no-op publisher, so callers that don't care about progress can pass
// nil.
type Bus struct {
	manager *gookitevent.Manager
	logger  *logger.Logger
}

// NewBus creates a provisioning event bus.
func NewBus(log *logger.Logger) *Bus {
	if log == nil {
		log = logger.NewDevelopment("events")
	}
	return &Bus{
		manager: gookitevent.NewManager("gogrid"),
		logger:  log,
	}
}

// Publish fires a provisioning event. Handler errors are logged, not
// returned: progress reporting must never fail the provisioning call.
func (b *Bus) Publish(topic string, ev ProvisionEvent) {
	if b == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	err, _ := b.manager.Fire(topic, gookitevent.M{"payload": ev})
	if err != nil {
		b.logger.Warn("event handler failed",
			slog.String("topic", topic),
			slog.String("correlation_id", ev.ID),
			slog.String("error", err.Error()))
	}
}

// Subscribe registers a handler for one topic and returns an unsubscribe
// function.
func (b *Bus) Subscribe(topic string, fn func(ProvisionEvent)) (func(), error) {
	if b == nil {
		return nil, fmt.Errorf("nil event bus")
	}

	listener := gookitevent.ListenerFunc(func(e gookitevent.Event) error {
		payload, ok := e.Get("payload").(ProvisionEvent)
		if !ok {
			return fmt.Errorf("unexpected payload type on %s", e.Name())
		}
		fn(payload)
		return nil
	})

	b.manager.On(topic, listener, gookitevent.Normal)

	return func() {
		b.manager.RemoveListener(topic, listener)
	}, nil
}

// Close shuts the bus down; pending async handlers are drained.
func (b *Bus) Close() error {
	if b == nil {
		return nil
	}
	return b.manager.CloseWait()
}
