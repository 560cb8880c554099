// a2d reads panel photos, extracts their values and publishes them as a workbook.
//
// Usage:
//
//	a2d serve                        poll for new photos and serve the status API
//	a2d run --out data.xlsx [--publish]
//	a2d capture                      camera host loop
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	profiles string
	sources  string
	logLevel string
}

var rootCmd = &cobra.Command{
	Use:   "a2d",
	Short: "Turn photos of plant control panels into spreadsheets",
	Long: "a2d finds the display in each configured photo, straightens it, asks a\n" +
		"vision model for its key/value pairs and writes one sheet per photo.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.profiles, "profiles", "", "Display profile file (overrides PROFILES_PATH)")
	pf.StringVar(&rootFlags.sources, "sources", "", "Sources file (overrides SOURCES_PATH)")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(captureCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
