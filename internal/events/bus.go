// Package events carries light, sysfs and log events between the dispatcher
// and its observers (SSE, NATS bridge, metrics).
package events

import (
	"github.com/kelindar/event"
)

// Bus is an in-process typed event dispatcher.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Publish delivers ev to the subscribers of its concrete type.
// Unknown event types are ignored.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case LightStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case SysfsWriteFailedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers handler, a func taking one of the event types, and
// returns its unsubscribe function. Other handler types get a no-op.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(LightStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SysfsWriteFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

// SubscribeToChannel feeds events of type T into ch for select-loop
// consumers. Events are dropped while ch is full so a slow SSE client
// never blocks SetLight.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
