package core

import (
	"context"

	"pkt.systems/termdeck/schema"
)

// pane tracks the state of a single terminal pane.
type pane struct {
	ID      schema.PaneID
	session *session
	buffer  *buffer
	history *historyBuffer
}

// session is one live shell process bound to a pane. The registry compares
// session identity, not pane identity, when handling exit notifications so a
// late exit from a replaced process cannot clobber its successor.
type session struct {
	handle     SessionHandle
	shell      string
	workingDir string
	cancel     context.CancelFunc
}

// Snapshot returns a transport-friendly view of the pane.
func (p *pane) Snapshot() schema.PaneSnapshot {
	snap := schema.PaneSnapshot{
		ID:     p.ID,
		Status: schema.PaneStatusExited,
	}
	if p.session != nil {
		snap.Status = schema.PaneStatusLive
		snap.Shell = p.session.shell
		snap.WorkingDir = p.session.workingDir
	}
	return snap
}
