package format

import (
	"strings"
	"testing"

	"pkt.systems/termdeck/internal/eventbus"
	"pkt.systems/termdeck/schema"
)

func TestFormatOutputPassesThroughVerbatim(t *testing.T) {
	r := NewPlainRenderer()
	out := r.FormatEvent(eventbus.Event{
		Type:   eventbus.EventOutput,
		Output: schema.OutputEvent{PaneID: "pane-1", Chunk: "hello\x1b[0m"},
	})
	if out != "hello\x1b[0m" {
		t.Fatalf("output = %q", out)
	}
}

func TestFormatExit(t *testing.T) {
	r := NewPlainRenderer()
	out := r.FormatEvent(eventbus.Event{
		Type: eventbus.EventExit,
		Exit: schema.ExitEvent{PaneID: "pane-1"},
	})
	if !strings.Contains(out, "[pane-1] shell exited") {
		t.Fatalf("output = %q", out)
	}
}

func TestFormatRoute(t *testing.T) {
	r := NewPlainRenderer()
	out := r.FormatEvent(eventbus.Event{
		Type:  eventbus.EventRoute,
		Route: schema.RouteEvent{PaneID: "pane-1", Route: schema.RouteLocal, Model: "llama3.2"},
	})
	if out != "[pane-1] routing to local (llama3.2)\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestFormatAgentChunkStreams(t *testing.T) {
	r := NewPlainRenderer()

	out := r.FormatEvent(eventbus.Event{
		Type:  eventbus.EventAgentChunk,
		Agent: schema.AgentChunkEvent{PaneID: "pane-1", Chunk: "check first", Stream: schema.StreamThought},
	})
	if out != "[pane-1] thought: check first\n" {
		t.Fatalf("thought = %q", out)
	}

	out = r.FormatEvent(eventbus.Event{
		Type:  eventbus.EventAgentChunk,
		Agent: schema.AgentChunkEvent{PaneID: "pane-1", Chunk: "ls -la", Stream: schema.StreamAction, Done: true},
	})
	if out != "[pane-1] action: ls -la\n" {
		t.Fatalf("action = %q", out)
	}
}

func TestFormatAgentChunkMultiline(t *testing.T) {
	r := NewPlainRenderer()
	out := r.FormatEvent(eventbus.Event{
		Type:  eventbus.EventAgentChunk,
		Agent: schema.AgentChunkEvent{PaneID: "pane-1", Chunk: "one\ntwo", Stream: schema.StreamAction},
	})
	if out != "[pane-1] action: one\n[pane-1] action: two\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestFormatAgentChunkError(t *testing.T) {
	r := NewPlainRenderer()
	out := r.FormatEvent(eventbus.Event{
		Type:  eventbus.EventAgentChunk,
		Agent: schema.AgentChunkEvent{PaneID: "pane-1", Err: "backend unavailable", Done: true},
	})
	if out != "[pane-1] agent failed: backend unavailable\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestFormatPaneEvents(t *testing.T) {
	r := NewPlainRenderer()
	pane := schema.PaneSnapshot{ID: "pane-1"}

	out := r.FormatEvent(eventbus.Event{
		Type: eventbus.EventPane,
		Pane: schema.PaneEvent{Type: schema.PaneEventClosed, Pane: pane},
	})
	if out != "[pane-1] pane closed\n" {
		t.Fatalf("closed = %q", out)
	}

	out = r.FormatEvent(eventbus.Event{
		Type: eventbus.EventPane,
		Pane: schema.PaneEvent{Type: schema.PaneEventStatus, Pane: pane},
	})
	if out != "" {
		t.Fatalf("status = %q", out)
	}
}
