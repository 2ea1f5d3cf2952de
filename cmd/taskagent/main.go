package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/itsneelabh/taskagent/core"
)

type rootFlags struct {
	configPath string
	envFile    string
	agentName  string
	logLevel   string
	logFormat  string
	logOutput  string
	devMode    bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "taskagent",
		Short:         "Run and inspect task-processing agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "config file (.yaml, .yml or .json)")
	pf.StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	pf.StringVar(&flags.agentName, "name", "", "agent name (overrides config)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "log format: text or json")
	pf.StringVar(&flags.logOutput, "log-output", "stderr", "log destination: stdout, stderr or a file path")
	pf.BoolVar(&flags.devMode, "dev", false, "development mode (debug text logs)")

	cmd.AddCommand(runCmd(flags))
	cmd.AddCommand(validateCmd(flags))
	cmd.AddCommand(schemaCmd())
	cmd.AddCommand(versionCmd())
	return cmd
}

// loadConfig resolves configuration: dotenv, environment, config file,
// then command-line flags. Logs go to stderr unless --log-output says
// otherwise; stdout carries command output.
func loadConfig(flags *rootFlags) (*core.Config, error) {
	if flags.envFile != "" {
		if _, err := os.Stat(flags.envFile); err == nil {
			if err := godotenv.Load(flags.envFile); err != nil {
				return nil, fmt.Errorf("load env file %s: %w", flags.envFile, err)
			}
		}
	}

	var opts []core.Option
	if flags.configPath != "" {
		opts = append(opts, core.WithConfigFile(flags.configPath))
	}
	if flags.agentName != "" {
		opts = append(opts, core.WithAgentName(flags.agentName))
	}
	if flags.devMode {
		opts = append(opts, core.WithDevelopmentMode(true))
	}
	if flags.logLevel != "" {
		opts = append(opts, core.WithLogLevel(flags.logLevel))
	}
	if flags.logFormat != "" {
		opts = append(opts, core.WithLogFormat(flags.logFormat))
	}
	if flags.logOutput != "" {
		opts = append(opts, core.WithLogOutput(flags.logOutput))
	}

	return core.NewConfig(opts...)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taskagent %s (api %s, commit %s, built %s)\n",
				core.Version, core.APIVersion, core.GitCommit, core.BuildDate)
		},
	}
}
