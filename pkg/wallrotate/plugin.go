package wallrotate

import "context"

// Plugin extends a Rotator. Plugins are initialized on Start in
// registration order and shut down on Stop in reverse order.
type Plugin interface {
	Name() string
	Initialize(ctx context.Context, cfg PluginConfig) error
	Shutdown(ctx context.Context) error
}

// PluginConfig is handed to plugins on Initialize.
type PluginConfig struct {
	WorkDir    string
	StateFile  string
	ConfigFile string
	SinkName   string
	Logger     Logger
}

// OutcomeObserver is implemented by plugins that want every attempt outcome.
type OutcomeObserver interface {
	OnOutcome(event OutcomeEvent)
}

// TriggerObserver is implemented by plugins that want every trigger.
type TriggerObserver interface {
	OnTrigger(event TriggerEvent)
}
