package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AgentRuntime carries what every concrete agent shares: its configuration,
// a logger named "agent.<name>", and the tools created at construction.
// Concrete agents embed *AgentRuntime and implement TaskProcessor.
//
// The tool map is filled once in NewAgentRuntime and only read afterwards.
// Nothing else in the runtime is synchronized; callers sharing one runtime
// across goroutines must coordinate themselves.
type AgentRuntime struct {
	id     string
	config AgentConfig
	logger Logger
	tools  map[string]Tool

	requiredFields []string
	telemetry      Telemetry
}

type runtimeOptions struct {
	loggers        LoggerProvider
	factory        ToolFactory
	telemetry      Telemetry
	requiredFields []string
	id             string
}

// RuntimeOption customizes NewAgentRuntime.
type RuntimeOption func(*runtimeOptions)

// WithLoggerProvider sets where the runtime obtains its logger. Defaults to
// DefaultLoggerProvider().
func WithLoggerProvider(p LoggerProvider) RuntimeOption {
	return func(o *runtimeOptions) {
		o.loggers = p
	}
}

// WithToolFactory sets the factory used to create the configured tools.
// Defaults to UnimplementedToolFactory.
func WithToolFactory(f ToolFactory) RuntimeOption {
	return func(o *runtimeOptions) {
		o.factory = f
	}
}

// WithRuntimeTelemetry attaches a Telemetry implementation. Defaults to
// NoOpTelemetry.
func WithRuntimeTelemetry(t Telemetry) RuntimeOption {
	return func(o *runtimeOptions) {
		o.telemetry = t
	}
}

// WithRequiredFields declares the task keys ValidateInput checks, in order.
func WithRequiredFields(fields ...string) RuntimeOption {
	return func(o *runtimeOptions) {
		o.requiredFields = append(make([]string, 0, len(fields)), fields...)
	}
}

// WithRuntimeID overrides the generated runtime ID.
func WithRuntimeID(id string) RuntimeOption {
	return func(o *runtimeOptions) {
		o.id = id
	}
}

// NewAgentRuntime fills unset fields of cfg from the defaults, validates it,
// obtains the agent logger and creates every configured tool. A tool that
// fails to build is logged and skipped.
func NewAgentRuntime(ctx context.Context, cfg AgentConfig, opts ...RuntimeOption) (*AgentRuntime, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent configuration: %w", err)
	}

	o := runtimeOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.loggers == nil {
		o.loggers = DefaultLoggerProvider()
	}
	if o.factory == nil {
		o.factory = UnimplementedToolFactory{}
	}
	if o.telemetry == nil {
		o.telemetry = &NoOpTelemetry{}
	}

	cfg = cfg.Clone()

	logger := o.loggers.Logger(cfg.LoggerName())
	if logger == nil {
		return nil, &FrameworkError{
			Op:      "NewAgentRuntime",
			Kind:    "logging",
			ID:      cfg.Name,
			Message: fmt.Sprintf("no logger available for %s", cfg.LoggerName()),
			Err:     ErrMissingConfiguration,
		}
	}

	id := o.id
	if id == "" {
		id = fmt.Sprintf("%s-%s", cfg.Name, uuid.New().String()[:8])
	}

	r := &AgentRuntime{
		id:             id,
		config:         cfg,
		logger:         logger,
		requiredFields: o.requiredFields,
		telemetry:      o.telemetry,
	}
	r.tools = r.initializeTools(ctx, o.factory)

	return r, nil
}

// initializeTools creates each configured tool in order. Failures, panics
// included, are logged and skipped. Duplicate names keep the last
// successfully created instance.
func (r *AgentRuntime) initializeTools(ctx context.Context, factory ToolFactory) map[string]Tool {
	tools := make(map[string]Tool, len(r.config.Tools))
	for _, name := range r.config.Tools {
		tool, err := createTool(ctx, factory, name)
		if err != nil {
			r.logger.Error("Failed to initialize tool", map[string]interface{}{
				"tool":  name,
				"error": err.Error(),
			})
			continue
		}
		tools[name] = tool
		r.logger.Info("Initialized tool", map[string]interface{}{
			"tool": name,
		})
	}
	return tools
}

// createTool calls the factory for one tool. Every failure, panics
// included, comes back wrapping ErrToolCreation.
func createTool(ctx context.Context, factory ToolFactory, name string) (tool Tool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			tool = nil
			err = &PanicError{Value: rec}
		}
		if err != nil {
			err = &FrameworkError{
				Op:   "ToolFactory.CreateTool",
				Kind: "tool",
				ID:   name,
				Err:  fmt.Errorf("%w: %w", ErrToolCreation, err),
			}
		}
	}()
	return factory.CreateTool(ctx, name)
}

// ID returns the runtime identifier, "<name>-<8 hex chars>" unless set
// with WithRuntimeID.
func (r *AgentRuntime) ID() string {
	return r.id
}

// Name returns the agent name.
func (r *AgentRuntime) Name() string {
	return r.config.Name
}

// Config returns a copy of the agent configuration.
func (r *AgentRuntime) Config() AgentConfig {
	return r.config.Clone()
}

// Logger returns the agent logger.
func (r *AgentRuntime) Logger() Logger {
	return r.logger
}

// Telemetry returns the attached telemetry, NoOpTelemetry by default.
func (r *AgentRuntime) Telemetry() Telemetry {
	return r.telemetry
}

// Tools returns a copy of the tool map.
func (r *AgentRuntime) Tools() map[string]Tool {
	out := make(map[string]Tool, len(r.tools))
	for k, v := range r.tools {
		out[k] = v
	}
	return out
}

// Tool looks up one tool by name.
func (r *AgentRuntime) Tool(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// RequiredFields returns the fields declared with WithRequiredFields.
func (r *AgentRuntime) RequiredFields() []string {
	return append([]string(nil), r.requiredFields...)
}

// ValidateInput reports whether every required field is present in input.
// It stops at the first missing field, logging it. Values are not
// inspected.
func (r *AgentRuntime) ValidateInput(input map[string]interface{}) bool {
	return r.validateFields(r.requiredFields, input)
}

// ValidateTask is ValidateInput with the required fields taken from p when
// it implements RequiredFieldsProvider, else from the runtime.
func (r *AgentRuntime) ValidateTask(p TaskProcessor, task Task) bool {
	fields := r.requiredFields
	if rf, ok := p.(RequiredFieldsProvider); ok {
		fields = rf.RequiredFields()
	}
	return r.validateFields(fields, task)
}

func (r *AgentRuntime) validateFields(fields []string, input map[string]interface{}) bool {
	for _, field := range fields {
		if _, ok := input[field]; !ok {
			r.logger.Error("Missing required field", map[string]interface{}{
				"field": field,
			})
			return false
		}
	}
	return true
}

// HandleError turns err into a failed TaskResult and logs it. where names
// the failing step; it is embedded in the message and also returned as the
// result's Context. A nil err is reported as ErrUnknown.
func (r *AgentRuntime) HandleError(err error, where string) TaskResult {
	if err == nil {
		err = ErrUnknown
	}

	msg := fmt.Sprintf("Error in %s: %s", where, safeErrorString(err))
	if r.logger != nil {
		r.logger.Error(msg, nil)
	}

	return TaskResult{
		Success:   false,
		Error:     msg,
		ErrorType: safeErrorType(err),
		Context:   where,
	}
}

// safeErrorType is ErrorTypeOf guarded the same way as safeErrorString.
func safeErrorType(err error) (s string) {
	defer func() {
		if rec := recover(); rec != nil {
			s = fmt.Sprintf("%T", err)
		}
	}()
	return ErrorTypeOf(err)
}

// safeErrorString calls err.Error(), recovering from implementations that
// panic.
func safeErrorString(err error) (s string) {
	defer func() {
		if rec := recover(); rec != nil {
			s = fmt.Sprintf("%T (Error() panicked: %v)", err, rec)
		}
	}()
	return err.Error()
}

// LogPerformance logs "Task <id> - SUCCESS|FAILED - Duration: <s>s" at
// info level and records the duration metric. It never panics.
func (r *AgentRuntime) LogPerformance(taskID string, duration time.Duration, success bool) {
	defer func() {
		_ = recover()
	}()

	status := "FAILED"
	if success {
		status = "SUCCESS"
	}

	if r.telemetry != nil {
		r.telemetry.RecordMetric(MetricTaskDuration, duration.Seconds(), map[string]string{
			"agent":  r.config.Name,
			"status": status,
		})
	}

	if r.logger == nil {
		return
	}
	r.logger.Info(fmt.Sprintf("Task %s - %s - Duration: %.2fs", taskID, status, duration.Seconds()), nil)
}

// Execute runs p against task and always returns a TaskResult. Errors and
// panics from p go through HandleError with the "process_task" context;
// the outcome is reported with LogPerformance. The task ID comes from
// task["task_id"] or is generated.
func (r *AgentRuntime) Execute(ctx context.Context, p TaskProcessor, task Task) TaskResult {
	taskID, ok := task.taskID()
	if !ok {
		taskID = uuid.New().String()
	}

	ctx, span := r.telemetry.StartSpan(ctx, "agent.process_task")
	defer span.End()
	span.SetAttribute("agent.name", r.config.Name)
	span.SetAttribute("task.id", taskID)

	start := time.Now()
	result, err := r.runProcessor(ctx, p, task)
	if err != nil {
		span.RecordError(err)
		result = r.HandleError(err, ProcessTaskContext)
	}
	span.SetAttribute("task.success", result.Success)

	r.LogPerformance(taskID, time.Since(start), result.Success)
	return result
}

func (r *AgentRuntime) runProcessor(ctx context.Context, p TaskProcessor, task Task) (result TaskResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = TaskResult{}
			err = &PanicError{Value: rec}
		}
	}()
	if p == nil {
		return TaskResult{}, &FrameworkError{
			Op:      "AgentRuntime.Execute",
			Kind:    "NotImplemented",
			ID:      r.config.Name,
			Message: "no task processor supplied",
			Err:     ErrNotImplemented,
		}
	}
	return p.ProcessTask(ctx, task)
}
