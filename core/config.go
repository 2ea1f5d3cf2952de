package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AgentConfig describes one logical agent. Model, Temperature and MaxTokens
// are handed through to whatever provider a concrete agent uses and are
// never interpreted by the runtime.
//
// Build values with DefaultAgentConfig or NewAgentConfig so that Tools is a
// slice owned by that value alone.
type AgentConfig struct {
	Name        string   `json:"name" yaml:"name" env:"TASKAGENT_AGENT_NAME"`
	Model       string   `json:"model" yaml:"model" env:"TASKAGENT_AGENT_MODEL" default:"gpt-4"`
	Temperature float64  `json:"temperature" yaml:"temperature" env:"TASKAGENT_AGENT_TEMPERATURE" default:"0.1"`
	MaxTokens   int      `json:"max_tokens" yaml:"max_tokens" env:"TASKAGENT_AGENT_MAX_TOKENS" default:"2000"`
	Tools       []string `json:"tools" yaml:"tools" env:"TASKAGENT_AGENT_TOOLS"`
	Domain      string   `json:"domain" yaml:"domain" env:"TASKAGENT_AGENT_DOMAIN" default:"general"`
}

// AgentOption mutates an AgentConfig during NewAgentConfig.
type AgentOption func(*AgentConfig) error

// DefaultAgentConfig returns the defaults for an agent called name.
// Every call allocates a new, empty Tools slice.
func DefaultAgentConfig(name string) AgentConfig {
	return AgentConfig{
		Name:        name,
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Tools:       make([]string, 0),
		Domain:      DefaultDomain,
	}
}

// NewAgentConfig applies opts over DefaultAgentConfig(name) and validates
// the result.
func NewAgentConfig(name string, opts ...AgentOption) (AgentConfig, error) {
	cfg := DefaultAgentConfig(name)
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return AgentConfig{}, fmt.Errorf("failed to apply agent option: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return AgentConfig{}, err
	}
	return cfg, nil
}

// WithModel sets the model identifier.
func WithModel(model string) AgentOption {
	return func(c *AgentConfig) error {
		c.Model = model
		return nil
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) AgentOption {
	return func(c *AgentConfig) error {
		if t < MinTemperature || t > MaxTemperature {
			return &FrameworkError{
				Op:      "WithTemperature",
				Kind:    "config",
				Message: fmt.Sprintf("invalid temperature: %g", t),
				Err:     ErrInvalidConfiguration,
			}
		}
		c.Temperature = t
		return nil
	}
}

// WithMaxTokens sets the token ceiling.
func WithMaxTokens(n int) AgentOption {
	return func(c *AgentConfig) error {
		if n <= 0 {
			return &FrameworkError{
				Op:      "WithMaxTokens",
				Kind:    "config",
				Message: fmt.Sprintf("invalid max tokens: %d", n),
				Err:     ErrInvalidConfiguration,
			}
		}
		c.MaxTokens = n
		return nil
	}
}

// WithTools sets the ordered tool list. The names are copied.
func WithTools(names ...string) AgentOption {
	return func(c *AgentConfig) error {
		c.Tools = append(make([]string, 0, len(names)), names...)
		return nil
	}
}

// WithDomain sets the free-form domain classification.
func WithDomain(domain string) AgentOption {
	return func(c *AgentConfig) error {
		c.Domain = domain
		return nil
	}
}

// Validate checks the agent configuration.
func (c AgentConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &FrameworkError{
			Op:      "AgentConfig.Validate",
			Kind:    "config",
			Message: "agent name is required",
			Err:     ErrMissingConfiguration,
		}
	}
	if c.MaxTokens <= 0 {
		return &FrameworkError{
			Op:      "AgentConfig.Validate",
			Kind:    "config",
			ID:      c.Name,
			Message: fmt.Sprintf("invalid max tokens: %d", c.MaxTokens),
			Err:     ErrInvalidConfiguration,
		}
	}
	if c.Temperature < MinTemperature || c.Temperature > MaxTemperature {
		return &FrameworkError{
			Op:      "AgentConfig.Validate",
			Kind:    "config",
			ID:      c.Name,
			Message: fmt.Sprintf("invalid temperature: %g", c.Temperature),
			Err:     ErrInvalidConfiguration,
		}
	}
	return nil
}

// WithDefaults fills zero-valued Model, MaxTokens and Domain from the
// defaults, so a struct literal naming only Name and Tools is usable.
// Temperature is left alone because zero is a valid setting.
func (c AgentConfig) WithDefaults() AgentConfig {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Domain == "" {
		c.Domain = DefaultDomain
	}
	return c
}

// Clone returns a copy that shares no mutable state with c.
// A nil Tools slice comes back as an empty one.
func (c AgentConfig) Clone() AgentConfig {
	out := c
	out.Tools = append(make([]string, 0, len(c.Tools)), c.Tools...)
	return out
}

// LoggerName is the logger identity used for this agent.
func (c AgentConfig) LoggerName() string {
	return AgentLoggerPrefix + c.Name
}

// Config holds the process-level configuration for a task agent.
// It supports three-layer configuration priority:
//  1. Default values (lowest priority)
//  2. Environment variables (medium priority)
//  3. Functional options (highest priority)
//
// Example usage:
//
//	cfg, err := NewConfig(
//	    WithAgentName("research"),
//	    WithConfigFile("agent.yaml"),
//	    WithLogLevel("debug"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
type Config struct {
	Agent       AgentConfig       `json:"agent" yaml:"agent"`
	Logging     LoggingConfig     `json:"logging" yaml:"logging"`
	Telemetry   TelemetryConfig   `json:"telemetry" yaml:"telemetry"`
	Development DevelopmentConfig `json:"development" yaml:"development"`
}

// LoggingConfig contains logging configuration.
// Supports structured (JSON) and human-readable (text) formats.
type LoggingConfig struct {
	Level      string `json:"level" yaml:"level" env:"TASKAGENT_LOG_LEVEL" default:"info"`
	Format     string `json:"format" yaml:"format" env:"TASKAGENT_LOG_FORMAT" default:"text"`
	Output     string `json:"output" yaml:"output" env:"TASKAGENT_LOG_OUTPUT" default:"stdout"`
	TimeFormat string `json:"time_format" yaml:"time_format" env:"TASKAGENT_LOG_TIME_FORMAT"`
}

// TelemetryConfig contains tracing and metrics configuration.
// Telemetry is only initialized when Enabled=true.
type TelemetryConfig struct {
	Enabled      bool    `json:"enabled" yaml:"enabled" env:"TASKAGENT_TELEMETRY_ENABLED" default:"false"`
	Exporter     string  `json:"exporter" yaml:"exporter" env:"TASKAGENT_TELEMETRY_EXPORTER" default:"stdout"`
	Endpoint     string  `json:"endpoint" yaml:"endpoint" env:"TASKAGENT_TELEMETRY_ENDPOINT,OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string  `json:"service_name" yaml:"service_name" env:"TASKAGENT_TELEMETRY_SERVICE_NAME,OTEL_SERVICE_NAME"`
	SamplingRate float64 `json:"sampling_rate" yaml:"sampling_rate" env:"TASKAGENT_TELEMETRY_SAMPLING_RATE" default:"1.0"`
	Insecure     bool    `json:"insecure" yaml:"insecure" env:"TASKAGENT_TELEMETRY_INSECURE" default:"true"`
}

// DevelopmentConfig contains settings for local development and testing.
type DevelopmentConfig struct {
	Enabled      bool `json:"enabled" yaml:"enabled" env:"TASKAGENT_DEV_MODE" default:"false"`
	DebugLogging bool `json:"debug_logging" yaml:"debug_logging" env:"TASKAGENT_DEBUG" default:"false"`
}

// Option is a functional option for Config.
type Option func(*Config) error

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		Agent: DefaultAgentConfig(""),
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stdout",
			TimeFormat: DefaultLogTimeFormat,
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			Exporter:     "stdout",
			SamplingRate: 1.0,
			Insecure:     true,
		},
	}
}

// LoadFromEnv overlays TASKAGENT_* environment variables. Values that fail
// to parse are ignored.
func (c *Config) LoadFromEnv() error {
	// Agent settings
	if v := os.Getenv(EnvAgentName); v != "" {
		c.Agent.Name = v
	}
	if v := os.Getenv(EnvAgentModel); v != "" {
		c.Agent.Model = v
	}
	if v := os.Getenv(EnvAgentTemperature); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Agent.Temperature = f
		}
	}
	if v := os.Getenv(EnvAgentMaxTokens); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Agent.MaxTokens = n
		}
	}
	if v := os.Getenv(EnvAgentTools); v != "" {
		c.Agent.Tools = parseStringList(v)
	}
	if v := os.Getenv(EnvAgentDomain); v != "" {
		c.Agent.Domain = v
	}

	// Logging settings
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvLogOutput); v != "" {
		c.Logging.Output = v
	}
	if v := os.Getenv(EnvLogTimeFormat); v != "" {
		c.Logging.TimeFormat = v
	}

	// Telemetry settings
	if v := os.Getenv(EnvTelemetryEnabled); v != "" {
		c.Telemetry.Enabled = parseBool(v)
	}
	if v := os.Getenv(EnvTelemetryExporter); v != "" {
		c.Telemetry.Exporter = v
	}
	if v := firstEnv(EnvTelemetryEndpoint, EnvOTELEndpoint); v != "" {
		c.Telemetry.Endpoint = v
	}
	if v := firstEnv(EnvTelemetryServiceName, EnvOTELServiceName); v != "" {
		c.Telemetry.ServiceName = v
	}
	if v := os.Getenv(EnvTelemetrySamplingRate); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Telemetry.SamplingRate = f
		}
	}
	if v := os.Getenv(EnvTelemetryInsecure); v != "" {
		c.Telemetry.Insecure = parseBool(v)
	}

	// Development settings
	if v := os.Getenv(EnvDevMode); v != "" {
		c.Development.Enabled = parseBool(v)
	}
	if v := os.Getenv(EnvDebug); v != "" {
		c.Development.DebugLogging = parseBool(v)
	}

	return nil
}

// LoadFromFile loads configuration from a JSON or YAML file.
// Only keys present in the file replace current values.
//
// Example YAML:
//
//	agent:
//	  name: research
//	  tools: [search, summarize]
//	logging:
//	  level: debug
func (c *Config) LoadFromFile(path string) error {
	cleanPath := filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config file extension %s: %w", ext, ErrInvalidConfiguration)
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 -- operator-supplied config path
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}

	switch ext {
	case ".json":
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %v: %w", err, ErrInvalidConfiguration)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %v: %w", err, ErrInvalidConfiguration)
		}
	}

	if c.Agent.Tools == nil {
		c.Agent.Tools = make([]string, 0)
	}
	return nil
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.Agent.Validate(); err != nil {
		return err
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return &FrameworkError{
			Op:      "Config.Validate",
			Kind:    "config",
			Message: fmt.Sprintf("invalid log format: %s", c.Logging.Format),
			Err:     ErrInvalidConfiguration,
		}
	}

	if _, ok := parseLogLevel(c.Logging.Level); !ok {
		return &FrameworkError{
			Op:      "Config.Validate",
			Kind:    "config",
			Message: fmt.Sprintf("invalid log level: %s", c.Logging.Level),
			Err:     ErrInvalidConfiguration,
		}
	}

	if c.Telemetry.Enabled {
		switch c.Telemetry.Exporter {
		case "otlp", "otlphttp", "stdout", "none":
		default:
			return &FrameworkError{
				Op:      "Config.Validate",
				Kind:    "config",
				Message: fmt.Sprintf("unknown telemetry exporter: %s", c.Telemetry.Exporter),
				Err:     ErrInvalidConfiguration,
			}
		}
		if c.Telemetry.SamplingRate < 0 || c.Telemetry.SamplingRate > 1 {
			return &FrameworkError{
				Op:      "Config.Validate",
				Kind:    "config",
				Message: fmt.Sprintf("invalid sampling rate: %g", c.Telemetry.SamplingRate),
				Err:     ErrInvalidConfiguration,
			}
		}
	}

	return nil
}

// Helper functions

// parseStringList splits a comma-separated string into a slice of strings.
// Whitespace is trimmed from each element, and empty strings are filtered out.
// Example: "a, b, c" -> ["a", "b", "c"]
func parseStringList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parseBool converts a string to a boolean value.
// Accepts: "true", "1", "yes", "on" (case-insensitive) as true.
// Everything else is false.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// Functional Options

// WithAgentName sets the agent name.
func WithAgentName(name string) Option {
	return func(c *Config) error {
		c.Agent.Name = name
		return nil
	}
}

// WithAgentOptions applies AgentOptions to the embedded agent configuration.
func WithAgentOptions(opts ...AgentOption) Option {
	return func(c *Config) error {
		for _, opt := range opts {
			if err := opt(&c.Agent); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithLogLevel sets the minimum log level (debug, info, warn, error).
func WithLogLevel(level string) Option {
	return func(c *Config) error {
		if _, ok := parseLogLevel(level); !ok {
			return &FrameworkError{
				Op:      "WithLogLevel",
				Kind:    "config",
				Message: fmt.Sprintf("invalid log level: %s", level),
				Err:     ErrInvalidConfiguration,
			}
		}
		c.Logging.Level = level
		return nil
	}
}

// WithLogFormat sets the log format ("text" or "json").
func WithLogFormat(format string) Option {
	return func(c *Config) error {
		c.Logging.Format = format
		return nil
	}
}

// WithLogOutput sets the log target: stdout, stderr or a file path.
func WithLogOutput(output string) Option {
	return func(c *Config) error {
		c.Logging.Output = output
		return nil
	}
}

// WithTelemetry enables telemetry with the given exporter and endpoint.
func WithTelemetry(exporter, endpoint string) Option {
	return func(c *Config) error {
		c.Telemetry.Enabled = true
		c.Telemetry.Exporter = exporter
		c.Telemetry.Endpoint = endpoint
		return nil
	}
}

// WithConfigFile loads configuration from a file.
// Supports JSON and YAML formats.
func WithConfigFile(path string) Option {
	return func(c *Config) error {
		return c.LoadFromFile(path)
	}
}

// WithDevelopmentMode switches to debug-level text logs.
func WithDevelopmentMode(enabled bool) Option {
	return func(c *Config) error {
		c.Development.Enabled = enabled
		if enabled {
			c.Development.DebugLogging = true
			c.Logging.Format = "text"
			c.Logging.Level = "debug"
		}
		return nil
	}
}

// NewConfig creates a new configuration with the provided options.
// Configuration is applied in the following order:
//  1. Default values from DefaultConfig()
//  2. Environment variables via LoadFromEnv()
//  3. Functional options (highest priority)
//  4. Validation via Validate()
func NewConfig(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// logTimeFormat falls back to the default layout when none is configured.
func (l LoggingConfig) logTimeFormat() string {
	if l.TimeFormat == "" {
		return DefaultLogTimeFormat
	}
	return l.TimeFormat
}
