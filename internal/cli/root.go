package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "cotask",
	Short: "cotask - cooperative multitasking for closed control loops",
	Long: `cotask runs control routines as cooperative tasks under priority and
periodic timing constraints, without preemption.

The run command drives a simulated two-wheel robot: encoder sampling, wheel
speed control, a button interrupt, telemetry draining and background load,
then prints the task profile table and execution traces.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cotask %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newRunCmd())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
