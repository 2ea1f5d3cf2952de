package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/itsneelabh/taskagent/core"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--env-file="}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestRunCommand(t *testing.T) {
	out, err := execute(t, "", "--name", "demo", "run", "--task", `{"input": "hello", "task_id": "t1"}`)
	require.NoError(t, err)

	var result core.TaskResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "hello", result.Data["output"])
}

func TestRunCommandWithConfigFile(t *testing.T) {
	cfgPath := writeTemp(t, "agent.yaml", `
agent:
  name: shouter
  tools: [shout]
logging:
  level: error
`)
	taskPath := writeTemp(t, "task.json", `{"input": "quiet please"}`)

	out, err := execute(t, "", "--config", cfgPath, "run", "--task-file", taskPath)
	require.NoError(t, err)

	var result core.TaskResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "QUIET PLEASE", result.Data["output"])
	assert.Equal(t, []interface{}{"shout"}, result.Data["tools"])
}

func TestRunCommandTaskFromStdin(t *testing.T) {
	out, err := execute(t, `{"input": "piped"}`, "--name", "demo", "run", "--task-file", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"output": "piped"`)
}

func TestRunCommandFailedTask(t *testing.T) {
	out, err := execute(t, "", "--name", "demo", "run", "--task", `{"query": "no input"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error in process_task")

	var result core.TaskResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.False(t, result.Success)
	assert.Equal(t, "input", result.ErrorType)
	assert.Equal(t, "process_task", result.Context)
}

func TestRunCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no task", []string{"--name", "demo", "run"}, "a task is required"},
		{"both task sources", []string{"--name", "demo", "run", "--task", "{}", "--task-file", "x.json"}, "not both"},
		{"bad json", []string{"--name", "demo", "run", "--task", "{"}, "parse task JSON"},
		{"missing name", []string{"run", "--task", `{"input": "x"}`}, "agent name is required"},
		{"bad log level", []string{"--name", "demo", "--log-level", "loud", "run", "--task", "{}"}, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(core.EnvAgentName, "")
			_, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "", "--name", "demo", "--log-format", "json", "validate")
	require.NoError(t, err)

	var cfg core.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "demo", cfg.Agent.Name)
	assert.Equal(t, core.DefaultModel, cfg.Agent.Model)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output)
}

func TestValidateCommandLoadsEnvFile(t *testing.T) {
	t.Cleanup(func() { _ = os.Unsetenv(core.EnvAgentDomain) })
	envPath := writeTemp(t, ".env", "TASKAGENT_AGENT_DOMAIN=from-dotenv\n")

	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--env-file", envPath, "--name", "demo", "validate"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "domain: from-dotenv")
}

func TestValidateCommandRejectsBadConfig(t *testing.T) {
	cfgPath := writeTemp(t, "agent.yaml", "agent:\n  name: demo\n  max_tokens: -1\n")

	_, err := execute(t, "", "--config", cfgPath, "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "taskagent "+core.Version)
	assert.Contains(t, out, core.APIVersion)
}

func TestReadTask(t *testing.T) {
	task, err := readTask(`{"input": "x"}`, "", nil)
	require.NoError(t, err)
	assert.Equal(t, core.Task{"input": "x"}, task)

	task, err = readTask("null", "", nil)
	require.NoError(t, err)
	assert.NotNil(t, task)
	assert.Empty(t, task)

	_, err = readTask("", filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)

	_, err = readTask(`["not", "an", "object"]`, "", nil)
	assert.Error(t, err)
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "", "schema")
	require.NoError(t, err)

	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Equal(t, "taskagent configuration", schema["title"])

	props, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok)
	for _, key := range []string{"agent", "logging", "telemetry", "development"} {
		assert.Contains(t, props, key)
	}

	agent := props["agent"].(map[string]interface{})
	agentProps := agent["properties"].(map[string]interface{})
	assert.Contains(t, agentProps, "max_tokens")
	assert.Contains(t, agentProps, "tools")
}
