package schema

// Settings is the mutable process-wide configuration read by the core at
// session-creation and command-submission time.
type Settings struct {
	ExecutionMode   ExecutionMode
	LocalModel      ModelID
	CloudModel      ModelID
	CloudEndpoint   string
	CloudCredential string
}

// SettingsPatch is a partial settings update; nil fields are left unchanged.
type SettingsPatch struct {
	ExecutionMode   *ExecutionMode
	LocalModel      *ModelID
	CloudModel      *ModelID
	CloudEndpoint   *string
	CloudCredential *string
}

// ModelFor returns the configured model for the given route.
func (s Settings) ModelFor(route AgentRoute) ModelID {
	if route == RouteCloud {
		return s.CloudModel
	}
	return s.LocalModel
}
