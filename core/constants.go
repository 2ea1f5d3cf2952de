package core

// Environment Variables
const (
	// Agent
	EnvAgentName        = "TASKAGENT_AGENT_NAME"
	EnvAgentModel       = "TASKAGENT_AGENT_MODEL"
	EnvAgentTemperature = "TASKAGENT_AGENT_TEMPERATURE"
	EnvAgentMaxTokens   = "TASKAGENT_AGENT_MAX_TOKENS"
	EnvAgentTools       = "TASKAGENT_AGENT_TOOLS" // comma-separated
	EnvAgentDomain      = "TASKAGENT_AGENT_DOMAIN"

	// Logging
	EnvLogLevel      = "TASKAGENT_LOG_LEVEL"
	EnvLogFormat     = "TASKAGENT_LOG_FORMAT"
	EnvLogOutput     = "TASKAGENT_LOG_OUTPUT"
	EnvLogTimeFormat = "TASKAGENT_LOG_TIME_FORMAT"

	// Telemetry
	EnvTelemetryEnabled      = "TASKAGENT_TELEMETRY_ENABLED"
	EnvTelemetryExporter     = "TASKAGENT_TELEMETRY_EXPORTER"
	EnvTelemetryEndpoint     = "TASKAGENT_TELEMETRY_ENDPOINT"
	EnvTelemetryServiceName  = "TASKAGENT_TELEMETRY_SERVICE_NAME"
	EnvTelemetrySamplingRate = "TASKAGENT_TELEMETRY_SAMPLING_RATE"
	EnvTelemetryInsecure     = "TASKAGENT_TELEMETRY_INSECURE"
	EnvOTELEndpoint          = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTELServiceName       = "OTEL_SERVICE_NAME"

	// Development
	EnvDevMode = "TASKAGENT_DEV_MODE"
	EnvDebug   = "TASKAGENT_DEBUG"
)

// Agent defaults
const (
	DefaultModel       = "gpt-4"
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 2000
	DefaultDomain      = "general"

	MinTemperature = 0.0
	MaxTemperature = 2.0
)

// Logging defaults
const (
	// AgentLoggerPrefix namespaces every agent logger: "agent.<name>".
	AgentLoggerPrefix = "agent."

	// DefaultLogTimeFormat is the timestamp layout for log lines.
	DefaultLogTimeFormat = "2006-01-02 15:04:05.000"

	// DefaultServiceName is used when no service name is configured.
	DefaultServiceName = "taskagent"
)

// Task execution
const (
	// TaskIDKey is the task key Execute reads the task ID from.
	TaskIDKey = "task_id"

	// ProcessTaskContext is the context string attached to failures
	// translated by Execute.
	ProcessTaskContext = "process_task"

	// MetricTaskDuration records task wall time in seconds.
	MetricTaskDuration = "taskagent.task.duration"
)
