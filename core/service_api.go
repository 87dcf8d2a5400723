package core

import (
	"context"

	"pkt.systems/termdeck/schema"
)

// Service is the pane orchestrator: the only entry point the UI host and
// settings layers talk to.
type Service interface {
	CreatePane(ctx context.Context, req schema.CreatePaneRequest) (schema.CreatePaneResponse, error)
	ClosePane(ctx context.Context, req schema.ClosePaneRequest) (schema.ClosePaneResponse, error)
	RestartPane(ctx context.Context, req schema.RestartPaneRequest) (schema.RestartPaneResponse, error)
	ResizePane(ctx context.Context, req schema.ResizePaneRequest) error
	SubmitLine(ctx context.Context, req schema.SubmitLineRequest) (schema.SubmitLineResponse, error)
	SubmitRaw(ctx context.Context, req schema.SubmitRawRequest) error
	CancelAgent(ctx context.Context, req schema.CancelAgentRequest) error
	ListPanes(ctx context.Context, req schema.ListPanesRequest) (schema.ListPanesResponse, error)
	GetBuffer(ctx context.Context, req schema.GetBufferRequest) (schema.GetBufferResponse, error)
	ScrollBuffer(ctx context.Context, req schema.ScrollBufferRequest) (schema.GetBufferResponse, error)
	GetHistory(ctx context.Context, req schema.GetHistoryRequest) (schema.GetHistoryResponse, error)
}
