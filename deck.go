// Package termdeck composes the pane orchestrator with its session runner,
// generation backends, settings store, and event bus.
package termdeck

import (
	"context"
	"errors"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/core"
	"pkt.systems/termdeck/internal/backend"
	"pkt.systems/termdeck/internal/eventbus"
	"pkt.systems/termdeck/internal/settings"
	"pkt.systems/termdeck/internal/shell"
	"pkt.systems/termdeck/schema"
)

// Config configures a Deck.
type Config struct {
	Service schema.ServiceConfig
	// StateDir holds the settings store and credential key material.
	StateDir string
	// LocalEndpoint overrides the loopback generation endpoint.
	LocalEndpoint string
	// CloudEndpoint overrides the hosted chat completion endpoint.
	CloudEndpoint string
	// Defaults seed the settings store on first run.
	Defaults schema.Settings
}

// Deps captures optional dependency overrides; zero values select the
// default implementations.
type Deps struct {
	Sessions  core.SessionRunner
	Local     core.BackendClient
	Cloud     core.BackendClient
	EventSink core.EventSink
	Logger    pslog.Logger
}

// Deck is the composed terminal deck.
type Deck struct {
	service  core.Service
	settings *settings.Store
	bus      *eventbus.Bus
	logger   pslog.Logger
}

// New builds a Deck from config and optional dependency overrides.
func New(cfg Config, deps Deps) (*Deck, error) {
	if cfg.StateDir == "" {
		return nil, errors.New("state directory is required")
	}
	normalized, err := schema.NormalizeServiceConfig(cfg.Service)
	if err != nil {
		return nil, err
	}
	cfg.Service = normalized

	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}

	store, err := settings.NewStore(settings.Options{
		Dir:      cfg.StateDir,
		Defaults: cfg.Defaults,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	sessions := deps.Sessions
	if sessions == nil {
		sessions = shell.NewRunner(shell.Config{
			Candidates: cfg.Service.ShellCandidates,
			Default:    cfg.Service.DefaultShell,
		})
	}
	local := deps.Local
	if local == nil {
		local = backend.NewLocal(cfg.LocalEndpoint)
	}
	cloud := deps.Cloud
	if cloud == nil {
		cloud = backend.NewCloud(cfg.CloudEndpoint)
	}

	bus := eventbus.New(logger)
	var sink core.EventSink = bus
	if deps.EventSink != nil {
		sink = eventFanout{sinks: []core.EventSink{bus, deps.EventSink}}
	}

	service, err := core.NewService(cfg.Service, core.ServiceDeps{
		Sessions:  sessions,
		Local:     local,
		Cloud:     cloud,
		Settings:  store,
		EventSink: sink,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	return &Deck{
		service:  service,
		settings: store,
		bus:      bus,
		logger:   logger,
	}, nil
}

// Service exposes the pane orchestrator.
func (d *Deck) Service() core.Service {
	return d.service
}

// Settings exposes the mutable settings store.
func (d *Deck) Settings() *settings.Store {
	return d.settings
}

// Subscribe registers an event subscriber. An empty pane id receives events
// from every pane.
func (d *Deck) Subscribe(paneID schema.PaneID) (<-chan eventbus.Event, func()) {
	return d.bus.Subscribe(paneID)
}

// Close tears down all open panes.
func (d *Deck) Close(ctx context.Context) error {
	resp, err := d.service.ListPanes(ctx, schema.ListPanesRequest{})
	if err != nil {
		return err
	}
	var firstErr error
	for _, pane := range resp.Panes {
		if _, err := d.service.ClosePane(ctx, schema.ClosePaneRequest{PaneID: pane.ID}); err != nil {
			d.logger.Warn("deck pane close failed", "pane", pane.ID, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
