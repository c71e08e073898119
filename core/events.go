package core

import (
	"context"
	"time"
)

// Event names
const (
	EventScheduleCreated = "schedule.created"
	EventScheduleUpdated = "schedule.updated"
	EventScheduleDeleted = "schedule.deleted"
)

// ScheduleEvents lists every event that changes the schedule data set.
var ScheduleEvents = []string{EventScheduleCreated, EventScheduleUpdated, EventScheduleDeleted}

type (
	Event struct {
		Name       string      `json:"name"`
		OccurredAt time.Time   `json:"occurred_at"`
		Payload    interface{} `json:"payload,omitempty"`
	}

	EventHandler func(ctx context.Context, evt Event)

	// EventBus is injected into every component that publishes or reacts to changes.
	EventBus interface {
		// Subscribe registers handler for name; calling the returned func removes it.
		Subscribe(name string, handler EventHandler) (unsubscribe func())
		Publish(ctx context.Context, evt Event)
	}
)

// SubscribeAll subscribes handler to each of names and returns a single unsubscribe func.
func SubscribeAll(bus EventBus, names []string, handler EventHandler) func() {
	unsubs := make([]func(), 0, len(names))
	for _, name := range names {
		unsubs = append(unsubs, bus.Subscribe(name, handler))
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
