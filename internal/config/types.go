package config

import "time"

// Config represents the complete livebridge configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	Host    HostConfig    `yaml:"host"`
	API     APIConfig     `yaml:"api,omitempty"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// BridgeConfig holds the command bridge tunables.
type BridgeConfig struct {
	// Listen is the TCP address clients connect to.
	Listen string `yaml:"listen"`

	// ReadTimeout is the idle receive window per socket read. Expiry is not an error.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// CommandTimeout bounds how long a handler waits for its result.
	// Must be strictly less than ReadTimeout.
	CommandTimeout time.Duration `yaml:"command_timeout"`

	WriteTimeout time.Duration `yaml:"write_timeout"`

	MaxCommandsPerTick int `yaml:"max_commands_per_tick"`
	MaxFrameBytes      int `yaml:"max_frame_bytes"`

	// QueueCapacity of 0 leaves the command queue unbounded.
	QueueCapacity int `yaml:"queue_capacity"`

	// SkipAbandoned drops queued commands whose waiter already timed out
	// instead of running them.
	SkipAbandoned bool `yaml:"skip_abandoned"`

	// TickBudget stops a tick early once exceeded (0 disables).
	TickBudget time.Duration `yaml:"tick_budget,omitempty"`
}

// HostConfig configures the simulated host that drives the dispatch tick.
type HostConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
}

// APIConfig defines HTTP ops API settings.
type APIConfig struct {
	Enabled bool          `yaml:"enabled"`
	Listen  string        `yaml:"listen"`
	Auth    APIAuthConfig `yaml:"auth"`
}

// APIAuthConfig defines API authentication settings.
type APIAuthConfig struct {
	// APIKey is an optional bearer token. Empty disables auth.
	APIKey string `yaml:"api_key"`
}

// Defaults returns a Config with the values the bridge ships with.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "livebridge",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Bridge: BridgeConfig{
			Listen:             "127.0.0.1:9004",
			ReadTimeout:        30 * time.Second,
			CommandTimeout:     25 * time.Second,
			WriteTimeout:       10 * time.Second,
			MaxCommandsPerTick: 5,
			MaxFrameBytes:      1 << 20,
			QueueCapacity:      0,
			SkipAbandoned:      false,
		},
		Host: HostConfig{
			TickInterval: 100 * time.Millisecond,
		},
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9005",
		},
	}
}
