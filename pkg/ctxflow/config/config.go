// Package config defines the ctxflow CLI configuration and its YAML
// loader.
package config

// Config holds all CLI configuration.
type Config struct {
	// Proxy configures the OpenAI-compatible gateway used for live runs.
	Proxy ProxyConfig `yaml:"proxy"`

	// Defaults are the fallback model/provider for new contexts.
	Defaults DefaultsConfig `yaml:"defaults"`

	// Store configures context persistence.
	Store StoreConfig `yaml:"store"`

	// Output configures where run artifacts land.
	Output OutputConfig `yaml:"output"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// ProxyConfig points at the LiteLLM-style gateway.
type ProxyConfig struct {
	// BaseURL is the gateway base URL (e.g. "http://localhost:4000").
	BaseURL string `yaml:"base_url"`
}

// DefaultsConfig holds fallback routing values.
type DefaultsConfig struct {
	// Model is the model used when a run picks none (e.g. "gpt-4o-mini").
	Model string `yaml:"model"`

	// Provider is the provider used when routing resolves none.
	Provider string `yaml:"provider"`
}

// StoreConfig configures the context store.
type StoreConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path"`
}

// OutputConfig configures run artifacts.
type OutputConfig struct {
	// DashboardDir receives generated Markdown dashboards.
	DashboardDir string `yaml:"dashboard_dir"`

	// LogDir receives per-run JSON log records.
	LogDir string `yaml:"log_dir"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error".
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Proxy:    ProxyConfig{BaseURL: "http://localhost:4000"},
		Defaults: DefaultsConfig{Model: "gpt-4o-mini", Provider: "openai"},
		Store:    StoreConfig{Path: ".ctxflow/contexts.db"},
		Output: OutputConfig{
			DashboardDir: ".ctxflow/copilot",
			LogDir:       ".ctxflow/logs",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
