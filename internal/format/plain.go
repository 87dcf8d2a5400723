package format

import (
	"fmt"
	"strings"

	"pkt.systems/termdeck/internal/eventbus"
	"pkt.systems/termdeck/schema"
)

// PlainRenderer formats deck events as plain text.
type PlainRenderer struct{}

// NewPlainRenderer returns a default plain-text renderer.
func NewPlainRenderer() *PlainRenderer {
	return &PlainRenderer{}
}

// FormatEvent converts a deck event into user-facing text. Shell output
// passes through verbatim so terminal control sequences survive; every
// other event type is framed with the pane id. An empty string means the
// event produces no visible output.
func (p *PlainRenderer) FormatEvent(event eventbus.Event) string {
	switch event.Type {
	case eventbus.EventOutput:
		return event.Output.Chunk
	case eventbus.EventExit:
		return fmt.Sprintf("\n[%s] shell exited\n", event.Exit.PaneID)
	case eventbus.EventRoute:
		return fmt.Sprintf("[%s] routing to %s (%s)\n", event.Route.PaneID, event.Route.Route, event.Route.Model)
	case eventbus.EventAgentChunk:
		return p.formatAgentChunk(event.Agent)
	case eventbus.EventPane:
		// Status changes ride along with exit events; repeating them is noise.
		if event.Pane.Type == schema.PaneEventStatus {
			return ""
		}
		return fmt.Sprintf("[%s] pane %s\n", event.Pane.Pane.ID, event.Pane.Type)
	default:
		return ""
	}
}

func (p *PlainRenderer) formatAgentChunk(chunk schema.AgentChunkEvent) string {
	if chunk.Err != "" {
		return fmt.Sprintf("[%s] agent failed: %s\n", chunk.PaneID, chunk.Err)
	}
	if chunk.Chunk == "" {
		return ""
	}
	label := ""
	switch chunk.Stream {
	case schema.StreamThought:
		label = "thought: "
	case schema.StreamAction:
		label = "action: "
	}
	var b strings.Builder
	for _, line := range strings.Split(chunk.Chunk, "\n") {
		fmt.Fprintf(&b, "[%s] %s%s\n", chunk.PaneID, label, line)
	}
	return b.String()
}
