package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel orders log severities.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// parseLogLevel converts a level name; the second result is false for
// names it does not know.
func parseLogLevel(s string) (LogLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, true
	case "info", "":
		return LogLevelInfo, true
	case "warn", "warning":
		return LogLevelWarn, true
	case "error":
		return LogLevelError, true
	default:
		return LogLevelInfo, false
	}
}

// ProductionLogger writes leveled log lines for one component.
//
// Text lines look like
//
//	2025-01-01 12:00:00.000 - agent.demo - INFO - Initialized tool tool=search
//
// JSON entries carry timestamp, level, service, component and message plus
// the caller's fields. Children created by WithComponent share the parent's
// writer and lock, so lines from different components never interleave
// mid-line.
type ProductionLogger struct {
	level       LogLevel
	serviceName string
	component   string
	format      string
	timeFormat  string
	output      io.Writer
	mu          *sync.Mutex
}

// NewProductionLogger builds a logger from configuration. The default
// component is "framework/core". It fails only when the output target
// cannot be opened; the returned closer releases a file target.
func NewProductionLogger(cfg LoggingConfig, dev DevelopmentConfig, serviceName string) (*ProductionLogger, func() error, error) {
	w, closer, err := OpenLogOutput(cfg.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("open log output: %w", err)
	}

	level, _ := parseLogLevel(cfg.Level)
	if dev.Enabled || dev.DebugLogging {
		level = LogLevelDebug
	}

	format := strings.ToLower(cfg.Format)
	if format != "json" {
		format = "text"
	}

	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	return &ProductionLogger{
		level:       level,
		serviceName: serviceName,
		component:   "framework/core",
		format:      format,
		timeFormat:  cfg.logTimeFormat(),
		output:      w,
		mu:          &sync.Mutex{},
	}, closer, nil
}

// OpenLogOutput resolves a log target: "stdout", "stderr" (also the empty
// string) or a file path opened for appending.
func OpenLogOutput(target string) (io.Writer, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(target) {
	case "stdout":
		return os.Stdout, noop, nil
	case "stderr", "":
		return os.Stderr, noop, nil
	default:
		f, err := os.OpenFile(target, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	}
}

// Info logs informational messages
func (l *ProductionLogger) Info(msg string, fields map[string]interface{}) {
	l.log(LogLevelInfo, msg, fields)
}

// Warn logs warning messages
func (l *ProductionLogger) Warn(msg string, fields map[string]interface{}) {
	l.log(LogLevelWarn, msg, fields)
}

// Error logs error messages
func (l *ProductionLogger) Error(msg string, fields map[string]interface{}) {
	l.log(LogLevelError, msg, fields)
}

// Debug logs debug messages
func (l *ProductionLogger) Debug(msg string, fields map[string]interface{}) {
	l.log(LogLevelDebug, msg, fields)
}

// WithComponent returns a logger for another component that keeps this
// logger's level, format, service name and output.
func (l *ProductionLogger) WithComponent(component string) Logger {
	l.lock()
	defer l.unlock()

	return &ProductionLogger{
		level:       l.level,
		serviceName: l.serviceName,
		component:   component,
		format:      l.format,
		timeFormat:  l.timeFormat,
		output:      l.output,
		mu:          l.mu,
	}
}

// Component returns the component this logger writes as.
func (l *ProductionLogger) Component() string {
	return l.component
}

// SetLevel changes the minimum level.
func (l *ProductionLogger) SetLevel(level LogLevel) {
	l.lock()
	defer l.unlock()
	l.level = level
}

// SetOutput changes the output writer (useful for testing)
func (l *ProductionLogger) SetOutput(w io.Writer) {
	l.lock()
	defer l.unlock()
	l.output = w
}

func (l *ProductionLogger) lock() {
	if l.mu != nil {
		l.mu.Lock()
	}
}

func (l *ProductionLogger) unlock() {
	if l.mu != nil {
		l.mu.Unlock()
	}
}

func (l *ProductionLogger) log(level LogLevel, msg string, fields map[string]interface{}) {
	l.lock()
	defer l.unlock()

	if level < l.level || l.output == nil {
		return
	}

	layout := l.timeFormat
	if layout == "" {
		layout = DefaultLogTimeFormat
	}
	timestamp := time.Now().Format(layout)

	if l.format == "json" {
		l.logJSON(timestamp, level, msg, fields)
		return
	}
	l.logText(timestamp, level, msg, fields)
}

func (l *ProductionLogger) logJSON(timestamp string, level LogLevel, msg string, fields map[string]interface{}) {
	entry := map[string]interface{}{
		"timestamp": timestamp,
		"level":     level.String(),
		"service":   l.serviceName,
		"component": l.component,
		"message":   msg,
	}

	for k, v := range fields {
		// core fields win
		if _, reserved := entry[k]; reserved {
			continue
		}
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		entry[k] = v
	}

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.output, `{"timestamp":%q,"level":%q,"component":%q,"message":%q}`+"\n",
			timestamp, level.String(), l.component, msg)
		return
	}
	fmt.Fprintln(l.output, string(data))
}

func (l *ProductionLogger) logText(timestamp string, level LogLevel, msg string, fields map[string]interface{}) {
	name := l.component
	if name == "" {
		name = l.serviceName
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s - %s - %s", timestamp, name, level.String(), msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := fields[k]
			if s, ok := v.(string); ok && strings.ContainsAny(s, " \t\"") {
				fmt.Fprintf(&b, " %s=%q", k, s)
				continue
			}
			fmt.Fprintf(&b, " %s=%v", k, v)
		}
	}

	b.WriteByte('\n')
	_, _ = io.WriteString(l.output, b.String())
}

// createComponentLogger derives a component logger when base supports it
// and returns base unchanged otherwise.
func createComponentLogger(base Logger, component string) Logger {
	if cal, ok := base.(ComponentAwareLogger); ok {
		return cal.WithComponent(component)
	}
	return base
}

// LoggerRegistry is a LoggerProvider that caches one logger per name.
// Loggers are derived from a base logger with createComponentLogger.
type LoggerRegistry struct {
	mu      sync.Mutex
	base    Logger
	loggers map[string]Logger
}

// NewLoggerRegistry creates a registry deriving loggers from base. A nil
// base yields NoOpLogger children.
func NewLoggerRegistry(base Logger) *LoggerRegistry {
	if base == nil {
		base = &NoOpLogger{}
	}
	return &LoggerRegistry{
		base:    base,
		loggers: make(map[string]Logger),
	}
}

// NewLoggerRegistryFromConfig builds a ProductionLogger from cfg and wraps
// it in a registry. The closer releases the output file, if any.
func NewLoggerRegistryFromConfig(cfg LoggingConfig, dev DevelopmentConfig, serviceName string) (*LoggerRegistry, func() error, error) {
	base, closer, err := NewProductionLogger(cfg, dev, serviceName)
	if err != nil {
		return nil, nil, err
	}
	return NewLoggerRegistry(base), closer, nil
}

// Logger returns the logger for name, creating it on first use.
func (r *LoggerRegistry) Logger(name string) Logger {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.loggers[name]; ok {
		return l
	}
	l := createComponentLogger(r.base, name)
	r.loggers[name] = l
	return l
}

// Names lists the logger names handed out so far, sorted.
func (r *LoggerRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.loggers))
	for n := range r.loggers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var (
	defaultProvider     *LoggerRegistry
	defaultProviderOnce sync.Once
)

// DefaultLoggerProvider returns the process-wide registry used when a
// runtime is built without WithLoggerProvider. It writes text lines at
// INFO to stdout.
func DefaultLoggerProvider() LoggerProvider {
	defaultProviderOnce.Do(func() {
		base := &ProductionLogger{
			level:       LogLevelInfo,
			serviceName: DefaultServiceName,
			component:   "framework/core",
			format:      "text",
			timeFormat:  DefaultLogTimeFormat,
			output:      os.Stdout,
			mu:          &sync.Mutex{},
		}
		defaultProvider = NewLoggerRegistry(base)
	})
	return defaultProvider
}
