package eventbus

import (
	"context"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/schema"
)

// EventType identifies the event payload.
type EventType string

const (
	// EventOutput carries terminal output chunks for a pane.
	EventOutput EventType = "output"
	// EventExit signals that a pane's shell exited.
	EventExit EventType = "exit"
	// EventRoute announces which backend an agent request was routed to.
	EventRoute EventType = "route"
	// EventAgentChunk carries agent response chunks.
	EventAgentChunk EventType = "agent"
	// EventPane carries pane lifecycle updates.
	EventPane EventType = "pane"
)

// Event represents a UI-facing event emitted by the core service.
type Event struct {
	Type   EventType
	Output schema.OutputEvent
	Exit   schema.ExitEvent
	Route  schema.RouteEvent
	Agent  schema.AgentChunkEvent
	Pane   schema.PaneEvent
}

// Bus fans events out to per-pane subscribers. It implements core.EventSink.
type Bus struct {
	mu    sync.Mutex
	subs  map[schema.PaneID]map[chan Event]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[schema.PaneID]map[chan Event]struct{}),
		log:   logger,
		depth: 256,
	}
}

// Subscribe registers a subscriber for the pane and returns a channel plus a
// cancel function. An empty pane id subscribes to events from every pane.
func (b *Bus) Subscribe(paneID schema.PaneID) (<-chan Event, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan Event, b.depth)
	b.mu.Lock()
	paneSubs := b.subs[paneID]
	if paneSubs == nil {
		paneSubs = make(map[chan Event]struct{})
		b.subs[paneID] = paneSubs
	}
	paneSubs[ch] = struct{}{}
	count := len(paneSubs)
	b.mu.Unlock()
	if b.log != nil {
		b.log.With("pane", paneID).Debug("eventbus subscribe", "subs", count)
	}
	return ch, func() {
		b.mu.Lock()
		if subs := b.subs[paneID]; subs != nil {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(b.subs, paneID)
			}
		}
		b.mu.Unlock()
		close(ch)
		if b.log != nil {
			b.log.With("pane", paneID).Debug("eventbus unsubscribe")
		}
	}
}

// OnOutput publishes a terminal output event.
func (b *Bus) OnOutput(event schema.OutputEvent) {
	b.publish(event.PaneID, Event{Type: EventOutput, Output: event})
}

// OnExit publishes a shell exit event.
func (b *Bus) OnExit(event schema.ExitEvent) {
	b.publish(event.PaneID, Event{Type: EventExit, Exit: event})
}

// OnRoute publishes a routing announcement.
func (b *Bus) OnRoute(event schema.RouteEvent) {
	b.publish(event.PaneID, Event{Type: EventRoute, Route: event})
}

// OnAgentChunk publishes an agent response chunk.
func (b *Bus) OnAgentChunk(event schema.AgentChunkEvent) {
	b.publish(event.PaneID, Event{Type: EventAgentChunk, Agent: event})
}

// OnPaneEvent publishes a pane lifecycle event.
func (b *Bus) OnPaneEvent(event schema.PaneEvent) {
	b.publish(event.Pane.ID, Event{Type: EventPane, Pane: event})
}

func (b *Bus) publish(paneID schema.PaneID, event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	subs := make([]chan Event, 0, len(b.subs[paneID])+len(b.subs[""]))
	for sub := range b.subs[paneID] {
		subs = append(subs, sub)
	}
	if paneID != "" {
		for sub := range b.subs[""] {
			subs = append(subs, sub)
		}
	}
	b.mu.Unlock()
	if len(subs) == 0 {
		return
	}
	dropped := 0
	for _, sub := range subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 && b.log != nil {
		b.log.With("pane", paneID).Trace("eventbus dropped", "count", dropped)
	}
}
