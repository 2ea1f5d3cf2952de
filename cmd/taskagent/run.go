package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/itsneelabh/taskagent/core"
	"github.com/itsneelabh/taskagent/telemetry"
)

func runCmd(flags *rootFlags) *cobra.Command {
	var (
		taskJSON string
		taskFile string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one task with the echo agent and print the result as JSON",
		Example: `  taskagent run -c agent.yaml --task '{"input": "hello"}'
  taskagent run --name demo --task-file task.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := readTask(taskJSON, taskFile, cmd.InOrStdin())
			if err != nil {
				return err
			}

			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			result, err := runTask(cmd.Context(), cfg, task)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			if !result.Success {
				return errors.New(result.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&taskJSON, "task", "t", "", "task as a JSON object")
	cmd.Flags().StringVarP(&taskFile, "task-file", "f", "", "file holding the task JSON ('-' for stdin)")
	return cmd
}

// runTask wires logging and telemetry from cfg, builds the echo agent and
// executes task.
func runTask(ctx context.Context, cfg *core.Config, task core.Task) (core.TaskResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	loggers, closeLog, err := core.NewLoggerRegistryFromConfig(cfg.Logging, cfg.Development, cfg.Agent.Name)
	if err != nil {
		return core.TaskResult{}, err
	}
	defer func() { _ = closeLog() }()

	provider, telemetryOpt, err := telemetry.EnableTelemetry(ctx, cfg.Telemetry,
		loggers.Logger("framework/telemetry"),
		telemetry.WithServiceVersion(core.Version),
		telemetry.WithGlobal(),
	)
	if err != nil {
		return core.TaskResult{}, err
	}
	if provider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = provider.Shutdown(shutdownCtx)
		}()
	}

	agent, err := NewEchoAgent(ctx, cfg.Agent,
		core.WithLoggerProvider(loggers),
		telemetryOpt,
	)
	if err != nil {
		return core.TaskResult{}, err
	}

	return agent.Execute(ctx, agent, task), nil
}

func readTask(taskJSON, taskFile string, stdin io.Reader) (core.Task, error) {
	var data []byte
	switch {
	case taskJSON != "" && taskFile != "":
		return nil, errors.New("use either --task or --task-file, not both")
	case taskJSON != "":
		data = []byte(taskJSON)
	case taskFile == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read task from stdin: %w", err)
		}
		data = b
	case taskFile != "":
		b, err := os.ReadFile(taskFile)
		if err != nil {
			return nil, fmt.Errorf("read task file: %w", err)
		}
		data = b
	default:
		return nil, errors.New("a task is required (--task or --task-file)")
	}

	var task core.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("parse task JSON: %w", err)
	}
	if task == nil {
		task = core.Task{}
	}
	return task, nil
}
