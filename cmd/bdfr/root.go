package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version information, injected at build time
	version   = "2.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	logFile    string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bdfr",
	Short: "Download and archive content from Reddit",
	Long: `Bulk Downloader for Reddit is a command-line tool for downloading the
resources linked by submissions and for archiving whole threads.

Features:
  - Subreddit, user and direct-link sources with every Reddit sort order
  - Content-hash deduplication with optional hard linking
  - Thread archives as JSON, XML or YAML
  - Automatic rate-limit backoff with a retry budget per item
  - Secure credential storage using the system keychain

For more information and examples, visit: https://github.com/Alessandro201/bulk-downloader-for-reddit`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .bdfr.yaml or ~/.config/bdfr/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also append logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "shorthand for --log-level debug")

	// Version template
	rootCmd.SetVersionTemplate(`Bulk Downloader for Reddit {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// fatal reports a startup failure on stderr and exits. Failures after
// startup go through the logger and never abort the run.
func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
