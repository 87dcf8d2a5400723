package core

import "pkt.systems/termdeck/schema"

// EventSink receives pane and agent events from the core service.
type EventSink interface {
	OnOutput(event schema.OutputEvent)
	OnExit(event schema.ExitEvent)
	OnRoute(event schema.RouteEvent)
	OnAgentChunk(event schema.AgentChunkEvent)
	OnPaneEvent(event schema.PaneEvent)
}
