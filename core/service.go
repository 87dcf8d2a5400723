package core

import (
	"context"
	"errors"
	"strings"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/internal/logx"
	"pkt.systems/termdeck/schema"
)

// service implements the pane orchestrator.
type service struct {
	cfg      schema.ServiceConfig
	sessions SessionRunner
	settings SettingsSource
	sink     EventSink
	logger   pslog.Logger
	router   *router

	mu    sync.Mutex
	panes map[schema.PaneID]*pane
	order []schema.PaneID
}

// NewService constructs the core service implementation.
func NewService(cfg schema.ServiceConfig, deps ServiceDeps) (Service, error) {
	normalized, err := schema.NormalizeServiceConfig(cfg)
	if err != nil {
		return nil, err
	}
	cfg = normalized
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	settings := deps.Settings
	if settings == nil {
		settings = staticSettings{}
	}
	svc := &service{
		cfg:      cfg,
		sessions: deps.Sessions,
		settings: settings,
		sink:     deps.EventSink,
		logger:   logger,
		panes:    make(map[schema.PaneID]*pane),
	}
	svc.router = newRouter(deps.Local, deps.Cloud, settings, deps.EventSink, logger)
	return svc, nil
}

// staticSettings supplies sandboxed defaults when no settings store is wired.
type staticSettings struct{}

func (staticSettings) Get() schema.Settings {
	return schema.Settings{
		ExecutionMode: schema.ModeSandboxed,
		LocalModel:    "llama3.2",
		CloudModel:    "gpt-4o-mini",
	}
}

func (s *service) CreatePane(ctx context.Context, req schema.CreatePaneRequest) (schema.CreatePaneResponse, error) {
	if ctx == nil {
		return schema.CreatePaneResponse{}, errors.New("missing context")
	}
	paneID := req.PaneID
	if paneID == "" {
		paneID = newPaneID()
	}
	if err := schema.ValidatePaneID(paneID); err != nil {
		return schema.CreatePaneResponse{}, err
	}
	log := logx.WithPane(ctx, paneID)

	s.mu.Lock()
	p := s.panes[paneID]
	if p != nil && p.session != nil {
		snap := p.Snapshot()
		s.mu.Unlock()
		log.Debug("service pane create noop", "reason", "session live")
		return schema.CreatePaneResponse{Pane: snap}, nil
	}
	created := p == nil
	if created {
		p = &pane{
			ID:      paneID,
			buffer:  newBufferWithMaxLines(s.cfg.ScrollbackMaxLines),
			history: newHistory(s.cfg.HistoryMaxEntries),
		}
		s.panes[paneID] = p
		s.order = append(s.order, paneID)
	}
	s.mu.Unlock()

	log.Info("service pane create start")
	if err := s.spawnSession(ctx, p); err != nil {
		return schema.CreatePaneResponse{}, err
	}
	s.mu.Lock()
	snap := p.Snapshot()
	s.mu.Unlock()
	if created {
		s.emitPaneEvent(schema.PaneEvent{Type: schema.PaneEventCreated, Pane: snap})
	}
	return schema.CreatePaneResponse{Pane: snap}, nil
}

func (s *service) ClosePane(ctx context.Context, req schema.ClosePaneRequest) (schema.ClosePaneResponse, error) {
	if err := schema.ValidatePaneID(req.PaneID); err != nil {
		return schema.ClosePaneResponse{}, err
	}
	log := logx.WithPane(ctx, req.PaneID)

	s.mu.Lock()
	p := s.panes[req.PaneID]
	if p == nil {
		s.mu.Unlock()
		log.Debug("service pane close noop", "reason", "not found")
		return schema.ClosePaneResponse{}, nil
	}
	delete(s.panes, req.PaneID)
	s.order = removePaneID(s.order, req.PaneID)
	sess := p.session
	p.session = nil
	snap := p.Snapshot()
	s.mu.Unlock()

	s.router.cancel(req.PaneID)
	if sess != nil {
		s.terminateSession(log, sess)
	}
	s.emitPaneEvent(schema.PaneEvent{Type: schema.PaneEventClosed, Pane: snap})
	log.Info("service pane close ok")
	return schema.ClosePaneResponse{Closed: true}, nil
}

func (s *service) RestartPane(ctx context.Context, req schema.RestartPaneRequest) (schema.RestartPaneResponse, error) {
	if err := schema.ValidatePaneID(req.PaneID); err != nil {
		return schema.RestartPaneResponse{}, err
	}
	log := logx.WithPane(ctx, req.PaneID)

	s.mu.Lock()
	p := s.panes[req.PaneID]
	if p == nil {
		s.mu.Unlock()
		log.Warn("service pane restart rejected", "err", schema.ErrPaneNotFound)
		return schema.RestartPaneResponse{}, schema.ErrPaneNotFound
	}
	sess := p.session
	p.session = nil
	s.mu.Unlock()

	if sess != nil {
		s.terminateSession(log, sess)
	}
	log.Info("service pane restart start")
	if err := s.spawnSession(ctx, p); err != nil {
		return schema.RestartPaneResponse{}, err
	}
	s.mu.Lock()
	snap := p.Snapshot()
	s.mu.Unlock()
	s.emitPaneEvent(schema.PaneEvent{Type: schema.PaneEventRestarted, Pane: snap})
	return schema.RestartPaneResponse{Pane: snap}, nil
}

func (s *service) ResizePane(ctx context.Context, req schema.ResizePaneRequest) error {
	if err := schema.ValidatePaneID(req.PaneID); err != nil {
		return err
	}
	s.mu.Lock()
	var sess *session
	if p := s.panes[req.PaneID]; p != nil {
		sess = p.session
	}
	s.mu.Unlock()
	if sess == nil {
		return nil
	}
	if err := sess.handle.Resize(req.Cols, req.Rows); err != nil {
		logx.WithPane(ctx, req.PaneID).Warn("session resize failed", "err", err, "cols", req.Cols, "rows", req.Rows)
	}
	return nil
}

func (s *service) SubmitLine(ctx context.Context, req schema.SubmitLineRequest) (schema.SubmitLineResponse, error) {
	if ctx == nil {
		return schema.SubmitLineResponse{}, errors.New("missing context")
	}
	if err := schema.ValidatePaneID(req.PaneID); err != nil {
		return schema.SubmitLineResponse{}, err
	}
	log := logx.WithPane(ctx, req.PaneID)

	s.mu.Lock()
	p := s.panes[req.PaneID]
	s.mu.Unlock()
	if p == nil {
		log.Warn("service submit rejected", "err", schema.ErrPaneNotFound)
		return schema.SubmitLineResponse{}, schema.ErrPaneNotFound
	}

	if route, prompt, ok := routeFromLine(req.Line); ok {
		if strings.TrimSpace(prompt) == "" {
			log.Warn("service submit rejected", "err", schema.ErrEmptyPrompt)
			return schema.SubmitLineResponse{}, schema.ErrEmptyPrompt
		}
		s.appendHistory(p, req.Line)
		if err := s.router.run(ctx, req.PaneID, route, prompt); err != nil {
			log.Warn("service agent route failed", "err", err)
			return schema.SubmitLineResponse{}, err
		}
		return schema.SubmitLineResponse{Routed: true, Route: route}, nil
	}

	s.appendHistory(p, req.Line)
	rejected, reason := s.writeLine(log, p, req.Line)
	if rejected {
		return schema.SubmitLineResponse{Rejected: true, Reason: reason}, nil
	}
	return schema.SubmitLineResponse{}, nil
}

func (s *service) SubmitRaw(ctx context.Context, req schema.SubmitRawRequest) error {
	if err := schema.ValidatePaneID(req.PaneID); err != nil {
		return err
	}
	s.mu.Lock()
	var sess *session
	if p := s.panes[req.PaneID]; p != nil {
		sess = p.session
	}
	s.mu.Unlock()
	if sess == nil || len(req.Data) == 0 {
		return nil
	}
	if _, err := sess.handle.Write(req.Data); err != nil {
		logx.WithPane(ctx, req.PaneID).Warn("session raw write failed", "err", err)
	}
	return nil
}

func (s *service) CancelAgent(ctx context.Context, req schema.CancelAgentRequest) error {
	if err := schema.ValidatePaneID(req.PaneID); err != nil {
		return err
	}
	_ = ctx
	s.router.cancel(req.PaneID)
	return nil
}

func (s *service) ListPanes(ctx context.Context, req schema.ListPanesRequest) (schema.ListPanesResponse, error) {
	_ = ctx
	_ = req
	s.mu.Lock()
	defer s.mu.Unlock()
	panes := make([]schema.PaneSnapshot, 0, len(s.order))
	for _, id := range s.order {
		if p := s.panes[id]; p != nil {
			panes = append(panes, p.Snapshot())
		}
	}
	return schema.ListPanesResponse{Panes: panes}, nil
}

func (s *service) GetBuffer(ctx context.Context, req schema.GetBufferRequest) (schema.GetBufferResponse, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.panes[req.PaneID]
	if p == nil {
		return schema.GetBufferResponse{}, schema.ErrPaneNotFound
	}
	view := p.buffer.Snapshot(req.Limit)
	return bufferResponse(view), nil
}

func (s *service) ScrollBuffer(ctx context.Context, req schema.ScrollBufferRequest) (schema.GetBufferResponse, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.panes[req.PaneID]
	if p == nil {
		return schema.GetBufferResponse{}, schema.ErrPaneNotFound
	}
	p.buffer.Scroll(req.Delta, req.Limit)
	view := p.buffer.Snapshot(req.Limit)
	return bufferResponse(view), nil
}

func (s *service) GetHistory(ctx context.Context, req schema.GetHistoryRequest) (schema.GetHistoryResponse, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.panes[req.PaneID]
	if p == nil {
		return schema.GetHistoryResponse{}, schema.ErrPaneNotFound
	}
	return schema.GetHistoryResponse{Entries: p.history.Entries()}, nil
}

func (s *service) appendHistory(p *pane, line string) {
	s.mu.Lock()
	p.history.Append(line)
	s.mu.Unlock()
}

func bufferResponse(view bufferView) schema.GetBufferResponse {
	return schema.GetBufferResponse{
		Lines:        view.Lines,
		TotalLines:   view.TotalLines,
		ScrollOffset: view.ScrollOffset,
		AtBottom:     view.AtBottom,
	}
}

// routeFromLine recognizes agent-routed slash lines. Everything else is a
// shell line, including unknown slash commands, which the host intercepts
// before they reach the orchestrator.
func routeFromLine(line string) (schema.AgentRoute, string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "/") {
		return "", "", false
	}
	name, remainder, _ := strings.Cut(trimmed[1:], " ")
	route, err := schema.NormalizeRoute(name)
	if err != nil {
		return "", "", false
	}
	return route, strings.TrimSpace(remainder), true
}

func removePaneID(order []schema.PaneID, paneID schema.PaneID) []schema.PaneID {
	out := order[:0]
	for _, id := range order {
		if id != paneID {
			out = append(out, id)
		}
	}
	return out
}

func (s *service) emitPaneEvent(event schema.PaneEvent) {
	if s.sink == nil {
		return
	}
	s.sink.OnPaneEvent(event)
}

func (s *service) emitOutput(event schema.OutputEvent) {
	if s.sink == nil {
		return
	}
	s.sink.OnOutput(event)
}

func (s *service) emitExit(event schema.ExitEvent) {
	if s.sink == nil {
		return
	}
	s.sink.OnExit(event)
}
