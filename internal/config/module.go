package config

import "go.uber.org/fx"

// Sections exposes each config section to the fx graph so constructors can
// depend on just the part they use.
type Sections struct {
	fx.Out

	Server    ServerConfig
	Provider  ProviderConfig
	Token     TokenConfig
	CORS      CORSConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

func Split(cfg Config) Sections {
	return Sections{
		Server:    cfg.Server,
		Provider:  cfg.Provider,
		Token:     cfg.Token,
		CORS:      cfg.CORS,
		Log:       cfg.Log,
		Telemetry: cfg.Telemetry,
	}
}

// Module provides Config and its sections.
var Module = fx.Module("config",
	fx.Provide(Load, Split),
)
