package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up when Load is given a directory.
const DefaultFileName = "livebridge.yaml"

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads, interpolates, defaults, verifies and validates a config file.
// A directory argument resolves to DefaultFileName inside it.
func Load(configPath string) (*Config, error) {
	absPath, err := ResolvePath(configPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}

	if err := verifyConfigHash(absPath); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse builds a validated Config from raw YAML.
func Parse(data []byte) (*Config, error) {
	interpolated := interpolateEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyConfigDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ResolvePath returns the absolute config file path for a file or directory argument.
func ResolvePath(configPath string) (string, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	if info.IsDir() {
		absPath = filepath.Join(absPath, DefaultFileName)
		if _, err := os.Stat(absPath); err != nil {
			return "", fmt.Errorf("directory provided but %s not found: %s", DefaultFileName, absPath)
		}
	}
	return absPath, nil
}

// DiscoverConfig finds a config file by checking standard locations.
// Priority order: $LIVEBRIDGE_CONFIG, ~/.config/livebridge, /etc/livebridge, ./livebridge.yaml.
// An empty path with nil error means "run on defaults".
func DiscoverConfig() (string, error) {
	if p := os.Getenv("LIVEBRIDGE_CONFIG"); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("LIVEBRIDGE_CONFIG points at missing path %s", p)
		}
		return p, nil
	}

	candidates := []string{}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, ".config", "livebridge", DefaultFileName))
	}
	candidates = append(candidates,
		filepath.Join("/etc/livebridge", DefaultFileName),
		DefaultFileName,
	)

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", nil
}

// applyConfigDefaults merges default values into config where not explicitly set.
func applyConfigDefaults(cfg *Config) {
	defaults := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = defaults.Service.LogFormat
	}

	b, d := &cfg.Bridge, defaults.Bridge
	if b.Listen == "" {
		b.Listen = d.Listen
	}
	if b.ReadTimeout == 0 {
		b.ReadTimeout = d.ReadTimeout
	}
	if b.CommandTimeout == 0 {
		b.CommandTimeout = d.CommandTimeout
	}
	if b.WriteTimeout == 0 {
		b.WriteTimeout = d.WriteTimeout
	}
	if b.MaxCommandsPerTick == 0 {
		b.MaxCommandsPerTick = d.MaxCommandsPerTick
	}
	if b.MaxFrameBytes == 0 {
		b.MaxFrameBytes = d.MaxFrameBytes
	}

	if cfg.Host.TickInterval == 0 {
		cfg.Host.TickInterval = defaults.Host.TickInterval
	}

	if cfg.API.Listen == "" {
		cfg.API.Listen = defaults.API.Listen
	}
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}
	if cfg.Service.LogFormat != "json" && cfg.Service.LogFormat != "text" {
		return fmt.Errorf("service.log_format must be json or text (got %q)", cfg.Service.LogFormat)
	}

	b := cfg.Bridge
	if err := validateListen("bridge.listen", b.Listen); err != nil {
		return err
	}
	if b.ReadTimeout <= 0 {
		return fmt.Errorf("bridge.read_timeout must be positive")
	}
	if b.CommandTimeout <= 0 {
		return fmt.Errorf("bridge.command_timeout must be positive")
	}
	// A handler must answer before the client's idle window can lapse.
	if b.CommandTimeout >= b.ReadTimeout {
		return fmt.Errorf("bridge.command_timeout (%s) must be less than bridge.read_timeout (%s)", b.CommandTimeout, b.ReadTimeout)
	}
	if b.WriteTimeout <= 0 {
		return fmt.Errorf("bridge.write_timeout must be positive")
	}
	if b.MaxCommandsPerTick <= 0 {
		return fmt.Errorf("bridge.max_commands_per_tick must be positive")
	}
	if b.MaxFrameBytes <= 0 {
		return fmt.Errorf("bridge.max_frame_bytes must be positive")
	}
	if b.QueueCapacity < 0 {
		return fmt.Errorf("bridge.queue_capacity must be >= 0")
	}
	if b.TickBudget < 0 {
		return fmt.Errorf("bridge.tick_budget must be >= 0")
	}

	if cfg.Host.TickInterval <= 0 {
		return fmt.Errorf("host.tick_interval must be positive")
	}

	if cfg.API.Enabled {
		if err := validateListen("api.listen", cfg.API.Listen); err != nil {
			return err
		}
		if envVarPattern.MatchString(cfg.API.Auth.APIKey) {
			matches := envVarPattern.FindStringSubmatch(cfg.API.Auth.APIKey)
			return fmt.Errorf("api.auth.api_key: environment variable ${%s} is not set", matches[1])
		}
	}

	return nil
}

func validateListen(field, addr string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s %q is not host:port: %w", field, addr, err)
	}
	return nil
}
