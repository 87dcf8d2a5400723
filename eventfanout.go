package termdeck

import (
	"pkt.systems/termdeck/core"
	"pkt.systems/termdeck/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnOutput(event schema.OutputEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnOutput(event)
	}
}

func (f eventFanout) OnExit(event schema.ExitEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnExit(event)
	}
}

func (f eventFanout) OnRoute(event schema.RouteEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnRoute(event)
	}
}

func (f eventFanout) OnAgentChunk(event schema.AgentChunkEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnAgentChunk(event)
	}
}

func (f eventFanout) OnPaneEvent(event schema.PaneEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnPaneEvent(event)
	}
}
