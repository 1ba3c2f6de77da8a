package config

// Config is the umbrella object returned by Initialize and threaded
// through cmd/server and cmd/director — registries, defaults, and
// resolved system settings in one place (teacher's pkg/config.Config shape).
type Config struct {
	configDir string

	Defaults  *Defaults
	Server    *ServerConfig
	Workspace *WorkspaceConfig
	Retention *RetentionConfig

	LLMProviderRegistry   *LLMProviderRegistry
	MediaProviderRegistry *MediaProviderRegistry
}

// ConfigDir returns the directory Initialize loaded storyforge.yaml from.
func (c *Config) ConfigDir() string { return c.configDir }

// Stats summarizes the loaded configuration for startup logging.
type Stats struct {
	LLMProviders   int
	MediaProviders int
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() Stats {
	return Stats{
		LLMProviders:   c.LLMProviderRegistry.Len(),
		MediaProviders: c.MediaProviderRegistry.Len(),
	}
}

// GetLLMProvider retrieves an LLM provider configuration by name.
func (c *Config) GetLLMProvider(name string) (*LLMProviderConfig, error) {
	return c.LLMProviderRegistry.Get(name)
}

// GetMediaProvider retrieves a media provider configuration by name.
func (c *Config) GetMediaProvider(name string) (*MediaProviderConfig, error) {
	return c.MediaProviderRegistry.Get(name)
}
