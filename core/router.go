package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/schema"
)

// router orchestrates agent requests end-to-end: backend selection, cloud to
// local fallback, dual-stream response splitting, and the at-most-one
// in-flight request per pane invariant.
type router struct {
	local    BackendClient
	cloud    BackendClient
	settings SettingsSource
	sink     EventSink
	logger   pslog.Logger

	mu       sync.Mutex
	inflight map[schema.PaneID]*agentRun
}

// agentRun is one in-flight agent request.
type agentRun struct {
	cancel context.CancelFunc
	route  schema.AgentRoute
	prompt string
}

func newRouter(local, cloud BackendClient, settings SettingsSource, sink EventSink, logger pslog.Logger) *router {
	return &router{
		local:    local,
		cloud:    cloud,
		settings: settings,
		sink:     sink,
		logger:   logger,
		inflight: make(map[schema.PaneID]*agentRun),
	}
}

// run starts an agent request for the pane. Any prior in-flight request for
// the same pane is cancelled before the new one is registered; cancel and
// register happen in one critical section so two requests are never both in
// flight for one pane. Results are reported only via the event sink.
func (r *router) run(ctx context.Context, paneID schema.PaneID, route schema.AgentRoute, prompt string) error {
	if r.local == nil {
		return schema.ErrRouterUnavailable
	}
	if route == schema.RouteCloud && r.cloud == nil {
		return schema.ErrRouterUnavailable
	}
	settings := r.settings.Get()
	log := pslog.Ctx(ctx).With("pane", paneID, "route", route)

	runCtx, cancel := context.WithCancel(pslog.ContextWithLogger(context.Background(), log))
	run := &agentRun{cancel: cancel, route: route, prompt: prompt}

	r.mu.Lock()
	if prior := r.inflight[paneID]; prior != nil {
		prior.cancel()
		log.Info("router superseding in-flight request", "prior_route", prior.route)
	}
	r.inflight[paneID] = run
	r.mu.Unlock()

	log.Info("router request start", "model", settings.ModelFor(route), "prompt_len", len(prompt))
	go r.execute(runCtx, run, paneID, route, prompt, settings)
	return nil
}

// cancel aborts the pane's in-flight request, if any.
func (r *router) cancel(paneID schema.PaneID) {
	r.mu.Lock()
	run := r.inflight[paneID]
	if run != nil {
		delete(r.inflight, paneID)
	}
	r.mu.Unlock()
	if run == nil {
		return
	}
	run.cancel()
	r.logger.With("pane", paneID).Info("router request cancelled", "route", run.route)
}

func (r *router) execute(ctx context.Context, run *agentRun, paneID schema.PaneID, route schema.AgentRoute, prompt string, settings schema.Settings) {
	log := pslog.Ctx(ctx)
	defer r.finish(paneID, run)

	model := settings.ModelFor(route)
	if !r.emitRoute(run, schema.RouteEvent{PaneID: paneID, Route: route, Model: model, ModelName: string(model)}) {
		return
	}

	effective := route
	var text string
	var err error
	switch route {
	case schema.RouteCloud:
		text, err = r.cloud.Complete(ctx, CompleteRequest{
			Model:      settings.CloudModel,
			Prompt:     prompt,
			Endpoint:   settings.CloudEndpoint,
			Credential: settings.CloudCredential,
		})
		if err != nil && !cancelled(ctx, err) {
			log.Warn("router cloud failed", "err", err)
			notice := fmt.Sprintf("cloud backend unavailable (%v); falling back to local", err)
			if !r.emitChunk(run, schema.AgentChunkEvent{PaneID: paneID, Chunk: notice}) {
				return
			}
			effective = schema.RouteLocal
			localModel := settings.ModelFor(effective)
			if !r.emitRoute(run, schema.RouteEvent{PaneID: paneID, Route: effective, Model: localModel, ModelName: string(localModel)}) {
				return
			}
			text, err = r.local.Complete(ctx, CompleteRequest{Model: localModel, Prompt: prompt})
		}
	default:
		text, err = r.local.Complete(ctx, CompleteRequest{Model: model, Prompt: prompt})
	}

	if cancelled(ctx, err) {
		// Terminal for this request only. Nothing is emitted past the
		// cancellation point; a successor request owns the pane channel.
		log.Info("router request cancelled mid-flight", "effective_route", effective)
		return
	}
	if err != nil {
		log.Warn("router request failed", "effective_route", effective, "err", err)
		r.emitChunk(run, schema.AgentChunkEvent{PaneID: paneID, Done: true, Err: err.Error()})
		return
	}

	log.Info("router request ok", "effective_route", effective, "response_len", len(text))
	r.emitResponse(run, paneID, effective, text, settings)
}

// emitResponse shapes the backend text into labeled chunks. In dual-stream
// mode a response carrying the action delimiter is split into a thought
// segment and an action segment; otherwise a single route-labeled action
// chunk closes the request.
func (r *router) emitResponse(run *agentRun, paneID schema.PaneID, effective schema.AgentRoute, text string, settings schema.Settings) {
	model := settings.ModelFor(effective)
	if settings.ExecutionMode == schema.ModeDualStream && strings.Contains(text, schema.ActionDelimiter) {
		before, after, _ := strings.Cut(text, schema.ActionDelimiter)
		thought := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(before), schema.ThoughtMarker))
		if !r.emitChunk(run, schema.AgentChunkEvent{PaneID: paneID, Chunk: thought, Stream: schema.StreamThought}) {
			return
		}
		r.emitChunk(run, schema.AgentChunkEvent{PaneID: paneID, Chunk: strings.TrimSpace(after), Stream: schema.StreamAction, Done: true})
		return
	}
	labeled := fmt.Sprintf("[%s:%s] %s", effective, model, text)
	r.emitChunk(run, schema.AgentChunkEvent{PaneID: paneID, Chunk: labeled, Stream: schema.StreamAction, Done: true})
}

// emitRoute and emitChunk drop events for requests that are no longer
// current, so a superseded request cannot write to its successor's stream.
func (r *router) emitRoute(run *agentRun, event schema.RouteEvent) bool {
	if !r.isCurrent(event.PaneID, run) {
		return false
	}
	if r.sink != nil {
		r.sink.OnRoute(event)
	}
	return true
}

func (r *router) emitChunk(run *agentRun, event schema.AgentChunkEvent) bool {
	if !r.isCurrent(event.PaneID, run) {
		return false
	}
	if r.sink != nil {
		r.sink.OnAgentChunk(event)
	}
	return true
}

func (r *router) isCurrent(paneID schema.PaneID, run *agentRun) bool {
	r.mu.Lock()
	current := r.inflight[paneID] == run
	r.mu.Unlock()
	return current
}

func (r *router) finish(paneID schema.PaneID, run *agentRun) {
	r.mu.Lock()
	if r.inflight[paneID] == run {
		delete(r.inflight, paneID)
	}
	r.mu.Unlock()
	run.cancel()
}

func cancelled(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled)
}
