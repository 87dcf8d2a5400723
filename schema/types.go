package schema

// PaneID identifies a terminal pane.
type PaneID string

// ModelID identifies a text-generation model.
type ModelID string

// AgentRoute selects the backend for an agent request.
type AgentRoute string

const (
	// RouteLocal targets the loopback generation backend.
	RouteLocal AgentRoute = "local"
	// RouteCloud targets the configured cloud backend.
	RouteCloud AgentRoute = "cloud"
)

// ExecutionMode is the process-wide command execution policy.
type ExecutionMode string

const (
	// ModeSandboxed restricts the working directory and filters destructive commands.
	ModeSandboxed ExecutionMode = "sandboxed"
	// ModeSystemWide runs commands unfiltered from the user home directory.
	ModeSystemWide ExecutionMode = "system-wide"
	// ModeDualStream behaves like system-wide and splits agent responses
	// into thought and action segments.
	ModeDualStream ExecutionMode = "dual-stream"
)

// StreamTag labels an agent chunk segment.
type StreamTag string

const (
	// StreamThought tags the reasoning segment of a dual-stream response.
	StreamThought StreamTag = "thought"
	// StreamAction tags the actionable segment of an agent response.
	StreamAction StreamTag = "action"
)

// ThoughtMarker prefixes the reasoning segment in a dual-stream response.
const ThoughtMarker = "[THOUGHT]"

// ActionDelimiter separates the reasoning and action segments.
const ActionDelimiter = "[ACTION]"

// InterruptByte is written through to the shell process verbatim so a
// running foreground command can be cancelled.
const InterruptByte = 0x03

// PaneStatus describes the liveness of a pane's shell session.
type PaneStatus string

const (
	// PaneStatusLive indicates the shell process is running.
	PaneStatusLive PaneStatus = "live"
	// PaneStatusExited indicates the shell process has exited.
	PaneStatusExited PaneStatus = "exited"
)
