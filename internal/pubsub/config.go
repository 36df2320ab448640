package pubsub

// TracingSource is the part of the application configuration that tracing
// reads. config.Provider satisfies it.
type TracingSource interface {
	GetTracingEnabled() bool
	GetTracingServiceName() string
	GetTracingZipkinURL() string
	GetVersion() string
}

// TracingConfigFrom overlays the non-empty settings of src on
// DefaultTracingConfig.
func TracingConfigFrom(src TracingSource) TracingConfig {
	cfg := DefaultTracingConfig()
	cfg.Enabled = src.GetTracingEnabled()
	if name := src.GetTracingServiceName(); name != "" {
		cfg.ServiceName = name
	}
	if u := src.GetTracingZipkinURL(); u != "" {
		cfg.ZipkinURL = u
	}
	if v := src.GetVersion(); v != "" {
		cfg.Version = v
	}
	return cfg
}
