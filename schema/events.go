package schema

// OutputEvent carries raw shell process output for a pane.
type OutputEvent struct {
	PaneID PaneID
	Chunk  string
}

// ExitEvent signals that a pane's shell process exited. Consumers must treat
// it as terminal for the current session; a restart produces a fresh stream.
type ExitEvent struct {
	PaneID PaneID
}

// RouteEvent announces the route and model selected for an agent request.
// It is emitted before any network call, and again with the corrected route
// when a cloud request falls back to the local backend.
type RouteEvent struct {
	PaneID    PaneID
	Route     AgentRoute
	Model     ModelID
	ModelName string
}

// AgentChunkEvent carries one segment of an agent response. Done marks the
// terminal chunk for a request; no further chunks follow it. Err is set on a
// terminal chunk when the request failed, in which case Chunk is empty.
type AgentChunkEvent struct {
	PaneID PaneID
	Chunk  string
	Stream StreamTag
	Done   bool
	Err    string
}

// PaneEventType describes pane lifecycle changes.
type PaneEventType string

const (
	// PaneEventCreated indicates a pane was created.
	PaneEventCreated PaneEventType = "created"
	// PaneEventClosed indicates a pane was closed.
	PaneEventClosed PaneEventType = "closed"
	// PaneEventRestarted indicates a pane's shell session was restarted.
	PaneEventRestarted PaneEventType = "restarted"
	// PaneEventStatus indicates a pane status change.
	PaneEventStatus PaneEventType = "status"
)

// PaneEvent represents a change to a pane.
type PaneEvent struct {
	Type PaneEventType
	Pane PaneSnapshot
}

// PaneSnapshot is a transport-friendly view of a pane.
type PaneSnapshot struct {
	ID         PaneID
	Shell      string
	WorkingDir string
	Status     PaneStatus
}
