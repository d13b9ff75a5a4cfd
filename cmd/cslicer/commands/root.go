// Package commands provides the CLI commands for the cslicer tool.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mekkanik/cslicer/internal/config"
	"github.com/mekkanik/cslicer/internal/log"
	"github.com/mekkanik/cslicer/pkg/cache"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "cslicer",
	Short: "cslicer - Program slicing and inlining for C sources",
	Long: `cslicer analyzes C programs through their control flow and dependence
graphs and rewrites them from the results.

Commands:
  slice       Backward or forward slice from a line and variable
  inline      Expand a function call in place
  cfg         Show the control flow graph of a function
  deps        Show data and control dependences of a function
  calls       Show the call graph of a file
  check       Report unreachable code and unresolved calls
  verify      Run descriptor-driven cases against expected output
  init        Create a project configuration interactively

Use "cslicer [command] --help" for more information about a command.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	cfgFile     string
	appConfig   *config.Config
	resultCache *cache.ResultCache
	cacheDirty  bool
)

// Execute runs the root command and persists the result cache when a
// command changed it.
func Execute() error {
	err := RootCmd.Execute()
	if appConfig != nil && cacheDirty {
		if path := appConfig.CacheFilePath(); path != "" {
			if saveErr := cache.PersistToFile(resultCache, path); saveErr != nil {
				log.Default().Warn("persisting result cache failed", "error", saveErr)
			}
		}
	}
	return err
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfgFile != "" {
		appConfig, err = config.LoadFromFile(cfgFile)
	} else {
		appConfig, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		appConfig.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		appConfig.LogLevel = "debug"
	}
	if cmd.Flags().Changed("json-logs") {
		appConfig.LogJSON, _ = cmd.Flags().GetBool("json-logs")
	}

	logger := log.Default()
	logger.SetLevel(log.ParseLevel(appConfig.LogLevel))
	logger.SetJSONOutput(appConfig.LogJSON)

	resultCache = cache.New(cache.Options{
		MaxEntries: appConfig.CacheMaxEntries,
		MaxBytes:   appConfig.CacheMaxBytes,
	})
	if path := appConfig.CacheFilePath(); path != "" {
		if err := cache.LoadFromFile(resultCache, path); err != nil {
			log.Default().Warn("loading result cache failed", "error", err)
		}
	}
	return nil
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a config file (overrides discovery)")
	RootCmd.PersistentFlags().String("log-level", "", "Minimum log level: debug, info, warn, error")
	RootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON lines")
	RootCmd.PersistentFlags().Bool("verbose", false, "Log at debug level")
}
