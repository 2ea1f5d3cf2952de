package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/itsneelabh/taskagent/core"
	"github.com/itsneelabh/taskagent/telemetry"
)

// EchoAgent is the agent bundled with the CLI. It echoes the task input
// through its tools, which makes it handy for smoke-testing configuration,
// logging and telemetry.
type EchoAgent struct {
	*core.AgentRuntime
}

// echoTool upper-cases or repeats text.
type echoTool struct {
	upper bool
}

func (t *echoTool) Apply(s string) string {
	if t.upper {
		return strings.ToUpper(s)
	}
	return s
}

// clockTool reports the current time.
type clockTool struct {
	now func() time.Time
}

// builtinTools is the factory for the tools the CLI knows about.
func builtinTools() *core.ToolRegistry {
	return core.NewToolRegistry().
		Register("echo", func(context.Context) (core.Tool, error) {
			return &echoTool{}, nil
		}).
		Register("shout", func(context.Context) (core.Tool, error) {
			return &echoTool{upper: true}, nil
		}).
		Register("clock", func(context.Context) (core.Tool, error) {
			return &clockTool{now: time.Now}, nil
		})
}

// NewEchoAgent builds an EchoAgent. "input" is the one required task field.
func NewEchoAgent(ctx context.Context, cfg core.AgentConfig, opts ...core.RuntimeOption) (*EchoAgent, error) {
	opts = append([]core.RuntimeOption{
		core.WithToolFactory(builtinTools()),
		core.WithRequiredFields("input"),
	}, opts...)

	rt, err := core.NewAgentRuntime(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &EchoAgent{AgentRuntime: rt}, nil
}

// ProcessTask runs the input through every configured text tool in order
// and adds the time when a clock tool is present.
func (a *EchoAgent) ProcessTask(ctx context.Context, task core.Task) (core.TaskResult, error) {
	if !a.ValidateInput(task) {
		return core.TaskResult{}, &core.FrameworkError{
			Op:   "EchoAgent.ProcessTask",
			Kind: "input",
			ID:   a.Name(),
			Err:  core.ErrMissingField,
		}
	}

	text := fmt.Sprint(task["input"])
	applied := make([]string, 0, len(a.Config().Tools))
	data := map[string]interface{}{}

	for _, name := range a.Config().Tools {
		tool, ok := a.Tool(name)
		if !ok {
			continue
		}
		switch t := tool.(type) {
		case *echoTool:
			text = t.Apply(text)
			applied = append(applied, name)
		case *clockTool:
			data["time"] = t.now().UTC().Format(time.RFC3339)
			applied = append(applied, name)
		}
	}

	data["output"] = text
	data["tools"] = applied

	fields := telemetry.GetTraceContext(ctx).Fields()
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["tools"] = len(applied)
	a.Logger().Debug("Echo task processed", fields)

	return core.NewSuccessResult(data), nil
}
