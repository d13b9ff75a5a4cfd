package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version information, overridable at build time via -ldflags.
var (
	Version   = "dev"
	BuildTime = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cslicer %s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
		if BuildTime != "" {
			fmt.Printf("built %s\n", BuildTime)
		}
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
