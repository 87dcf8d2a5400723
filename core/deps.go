package core

import "pkt.systems/pslog"

// ServiceDeps captures dependencies for the core service.
type ServiceDeps struct {
	Sessions  SessionRunner
	Local     BackendClient
	Cloud     BackendClient
	Settings  SettingsSource
	EventSink EventSink
	Logger    pslog.Logger
}
