package schema

// CreatePaneRequest opens a pane and spawns its shell session.
type CreatePaneRequest struct {
	// PaneID is optional; a fresh id is generated when empty.
	PaneID PaneID
}

// CreatePaneResponse reports the created pane.
type CreatePaneResponse struct {
	Pane PaneSnapshot
}

// ClosePaneRequest destroys a pane and its session.
type ClosePaneRequest struct {
	PaneID PaneID
}

// ClosePaneResponse reports the close outcome.
type ClosePaneResponse struct {
	Closed bool
}

// RestartPaneRequest restarts a pane's shell session.
type RestartPaneRequest struct {
	PaneID PaneID
}

// RestartPaneResponse reports the restarted pane.
type RestartPaneResponse struct {
	Pane PaneSnapshot
}

// ResizePaneRequest forwards terminal dimensions to the pane's session.
type ResizePaneRequest struct {
	PaneID PaneID
	Cols   int
	Rows   int
}

// SubmitLineRequest submits one input line for a pane. Slash-routed lines go
// to the agent router; everything else is filtered and written to the shell.
type SubmitLineRequest struct {
	PaneID PaneID
	Line   string
}

// SubmitLineResponse reports how the line was dispatched.
type SubmitLineResponse struct {
	// Routed is set when the line started an agent request.
	Routed bool
	Route  AgentRoute
	// Rejected is set when the policy filter blocked a shell line.
	Rejected bool
	Reason   string
}

// SubmitRawRequest writes bytes verbatim to the pane's session.
type SubmitRawRequest struct {
	PaneID PaneID
	Data   []byte
}

// CancelAgentRequest cancels a pane's in-flight agent request, if any.
type CancelAgentRequest struct {
	PaneID PaneID
}

// ListPanesRequest lists open panes.
type ListPanesRequest struct{}

// ListPanesResponse carries pane snapshots in creation order.
type ListPanesResponse struct {
	Panes []PaneSnapshot
}

// GetBufferRequest fetches a pane's scrollback view.
type GetBufferRequest struct {
	PaneID PaneID
	Limit  int
}

// GetBufferResponse carries the visible scrollback window.
type GetBufferResponse struct {
	Lines        []string
	TotalLines   int
	ScrollOffset int
	AtBottom     bool
}

// ScrollBufferRequest adjusts a pane's scroll offset.
type ScrollBufferRequest struct {
	PaneID PaneID
	Delta  int
	Limit  int
}

// GetHistoryRequest fetches a pane's submitted line history.
type GetHistoryRequest struct {
	PaneID PaneID
}

// GetHistoryResponse carries history entries, oldest first.
type GetHistoryResponse struct {
	Entries []string
}
