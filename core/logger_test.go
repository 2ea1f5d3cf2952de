package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, level, format string) (*ProductionLogger, *bytes.Buffer) {
	t.Helper()
	logger, closer, err := NewProductionLogger(
		LoggingConfig{Level: level, Format: format, Output: "stdout"},
		DevelopmentConfig{},
		"test-service",
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer() })

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	return logger, &buf
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "INFO", LogLevelInfo.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "LEVEL(9)", LogLevel(9).String())
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", LogLevelDebug, true},
		{"INFO", LogLevelInfo, true},
		{"", LogLevelInfo, true},
		{"warning", LogLevelWarn, true},
		{" error ", LogLevelError, true},
		{"trace", LogLevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseLogLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestProductionLoggerTextFormat(t *testing.T) {
	logger, buf := newTestLogger(t, "info", "text")
	child := logger.WithComponent("agent.demo")

	child.Info("Initialized tool", map[string]interface{}{
		"tool":   "search",
		"reason": "has spaces",
		"count":  2,
	})

	line := strings.TrimSuffix(buf.String(), "\n")
	parts := strings.SplitN(line, " - ", 4)
	require.Len(t, parts, 4, "line: %q", line)

	assert.Len(t, parts[0], len("2006-01-02 15:04:05.000"))
	assert.Equal(t, "agent.demo", parts[1])
	assert.Equal(t, "INFO", parts[2])
	assert.Equal(t, `Initialized tool count=2 reason="has spaces" tool=search`, parts[3])
}

func TestProductionLoggerLevelFiltering(t *testing.T) {
	logger, buf := newTestLogger(t, "warn", "text")

	logger.Debug("debug", nil)
	logger.Info("info", nil)
	assert.Empty(t, buf.String())

	logger.Warn("warn", nil)
	logger.Error("error", nil)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], " - WARN - warn")
	assert.Contains(t, lines[1], " - ERROR - error")

	buf.Reset()
	logger.SetLevel(LogLevelDebug)
	logger.Debug("now visible", nil)
	assert.Contains(t, buf.String(), "DEBUG - now visible")
}

func TestProductionLoggerJSONFormat(t *testing.T) {
	logger, buf := newTestLogger(t, "debug", "json")

	logger.WithComponent("agent.json").Error("boom", map[string]interface{}{
		"error":   errors.New("disk full"),
		"message": "must not override",
		"attempt": 3,
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "test-service", entry["service"])
	assert.Equal(t, "agent.json", entry["component"])
	assert.Equal(t, "boom", entry["message"])
	assert.Equal(t, "disk full", entry["error"])
	assert.Equal(t, float64(3), entry["attempt"])
	assert.NotEmpty(t, entry["timestamp"])
}

func TestDevelopmentModeForcesDebug(t *testing.T) {
	logger, _, err := NewProductionLogger(
		LoggingConfig{Level: "error", Format: "text", Output: "stdout"},
		DevelopmentConfig{Enabled: true},
		"",
	)
	require.NoError(t, err)

	assert.Equal(t, LogLevelDebug, logger.level)
	assert.Equal(t, DefaultServiceName, logger.serviceName)
	assert.Equal(t, "framework/core", logger.Component())
}

// TestWithComponentPreservesConfiguration verifies that WithComponent keeps
// the parent's settings and shares its output
func TestWithComponentPreservesConfiguration(t *testing.T) {
	parent, buf := newTestLogger(t, "info", "json")

	child, ok := parent.WithComponent("agent.child").(*ProductionLogger)
	require.True(t, ok)

	assert.NotSame(t, parent, child)
	assert.Equal(t, parent.level, child.level)
	assert.Equal(t, parent.format, child.format)
	assert.Equal(t, parent.serviceName, child.serviceName)
	assert.Equal(t, "agent.child", child.Component())
	assert.Equal(t, "framework/core", parent.Component())

	child.Info("from child", nil)
	assert.Contains(t, buf.String(), `"component":"agent.child"`)
}

func TestProductionLoggerConcurrentWrites(t *testing.T) {
	logger, buf := newTestLogger(t, "info", "text")
	a := logger.WithComponent("a")
	b := logger.WithComponent("b")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); a.Info("line", nil) }()
		go func() { defer wg.Done(); b.Info("line", nil) }()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 100)
	for _, l := range lines {
		assert.True(t, strings.HasSuffix(l, " - INFO - line"), l)
	}
}

func TestOpenLogOutput(t *testing.T) {
	w, closer, err := OpenLogOutput("stdout")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, w)
	assert.NoError(t, closer())

	w, _, err = OpenLogOutput("")
	require.NoError(t, err)
	assert.Equal(t, os.Stderr, w)

	path := filepath.Join(t.TempDir(), "agent.log")
	w, closer, err = OpenLogOutput(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.NoError(t, closer())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))

	_, _, err = OpenLogOutput(filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	assert.Error(t, err)
}

func TestLoggerRegistry(t *testing.T) {
	base, buf := newTestLogger(t, "info", "text")
	registry := NewLoggerRegistry(base)

	alpha := registry.Logger("agent.alpha")
	again := registry.Logger("agent.alpha")
	beta := registry.Logger("agent.beta")

	assert.Same(t, alpha, again, "lookup by name returns the cached logger")
	assert.NotSame(t, alpha, beta)
	assert.Equal(t, []string{"agent.alpha", "agent.beta"}, registry.Names())

	alpha.Info("hi", nil)
	assert.Contains(t, buf.String(), " - agent.alpha - INFO - hi")
}

func TestLoggerRegistryWithPlainLogger(t *testing.T) {
	plain := &NoOpLogger{}
	registry := NewLoggerRegistry(plain)
	assert.Same(t, plain, registry.Logger("anything"))

	assert.IsType(t, &NoOpLogger{}, NewLoggerRegistry(nil).Logger("x"))
}

func TestNewLoggerRegistryFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	registry, closer, err := NewLoggerRegistryFromConfig(
		LoggingConfig{Level: "info", Format: "text", Output: path},
		DevelopmentConfig{},
		"svc",
	)
	require.NoError(t, err)

	registry.Logger("agent.file").Info("written", nil)
	require.NoError(t, closer())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), " - agent.file - INFO - written")
}

func TestDefaultLoggerProviderIsShared(t *testing.T) {
	assert.Same(t, DefaultLoggerProvider(), DefaultLoggerProvider())
}
