package logx

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/schema"
)

type contextKey int

const paneKey contextKey = iota

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithPane annotates the logger with the pane id if present.
func WithPane(ctx context.Context, paneID schema.PaneID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if paneID != "" {
		if current, ok := ctx.Value(paneKey).(schema.PaneID); ok && current == paneID {
			return log
		}
		log = log.With("pane", paneID)
	}
	return log
}

// ContextWithPane stores the pane marker on the context for log de-duplication.
func ContextWithPane(ctx context.Context, paneID schema.PaneID) context.Context {
	if ctx == nil || paneID == "" {
		return ctx
	}
	return context.WithValue(ctx, paneKey, paneID)
}

// ContextWithPaneLogger attaches the logger and pane marker to the context.
func ContextWithPaneLogger(ctx context.Context, log pslog.Logger, paneID schema.PaneID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithPane(ctx, paneID)
}
