package commands

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/mekkanik/cslicer/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize cslicer configuration interactively",
	Long: `Guides you through setting up cslicer configuration step by step.
Creates a project config file (./.cslicer/config.yaml).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.DefaultConfig()

	logLevel := cfg.LogLevel
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log level").
				Description("Minimum severity written to stderr").
				Options(
					huh.NewOption("debug", "debug"),
					huh.NewOption("info", "info"),
					huh.NewOption("warn", "warn"),
					huh.NewOption("error", "error"),
				).
				Value(&logLevel),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.LogLevel = logLevel

	prefix := cfg.TempPrefix
	strict := cfg.StrictAliasTypes
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Prefix for temporaries introduced while inlining").
				Placeholder("inl").
				Value(&prefix),
			huh.NewConfirm().
				Title("Narrow pointer aliasing by pointee type?").
				Description("When on, a write through a pointer only conflicts with address-taken variables of the matching type").
				Value(&strict),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	if prefix != "" {
		cfg.TempPrefix = prefix
	}
	cfg.StrictAliasTypes = strict

	cacheDir := ""
	maxEntries := strconv.Itoa(cfg.CacheMaxEntries)
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Cache directory").
				Description("Where analysis results persist between runs; leave empty to disable").
				Placeholder(".cslicer/cache").
				Value(&cacheDir),
			huh.NewInput().
				Title("Maximum cached results").
				Placeholder("1024").
				Value(&maxEntries).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					n, err := strconv.Atoi(s)
					if err != nil || n < 0 {
						return fmt.Errorf("must be a non-negative number")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.CacheDir = cacheDir
	if n, err := strconv.Atoi(maxEntries); err == nil {
		cfg.CacheMaxEntries = n
	}

	if err := cfg.SaveProject(); err != nil {
		return fmt.Errorf("saving configuration: %w", err)
	}
	fmt.Println("Configuration written to .cslicer/config.yaml")
	return nil
}

func init() {
	RootCmd.AddCommand(initCmd)
}
