package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage Bulk Downloader for Reddit configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (BDFR_*)
  - Configuration file
  - Default values (lowest priority)

Credentials never live in the configuration file; use 'bdfr auth login'
for those.`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.bdfr.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources:
  - Command line flags
  - Environment variables
  - Configuration file
  - Default values`,
	Run: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Naming scheme placeholders
  - Path accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

// exampleConfig documents every option with its default value
const exampleConfig = `# Bulk Downloader for Reddit configuration file
#
# Every value here can also be set with a BDFR_* environment variable or
# the matching command line flag. Flags win over environment variables,
# which win over this file.

# Reddit API access
reddit:
  # User agent sent with every API request
  user_agent: "go:bdfr:v2 (github.com/Alessandro201/bulk-downloader-for-reddit)"

  # API request budget; listing pages and thread fetches count against it
  requests_per_minute: 60

  # Where credentials live: keyring, encrypted or env
  # Use 'bdfr auth login' to store them
  credential_store: "keyring"

# Destination tree and naming
output:
  # Root directory for downloads and archives; the positional command
  # argument overrides this
  directory: "."

  # Directory naming scheme; may nest with "/"
  folder_scheme: "{SUBREDDIT}"

  # File naming scheme
  # Placeholders: {POSTID} {TITLE} {UPVOTES} {DATE} {REDDITOR} {SUBREDDIT}
  file_scheme: "{REDDITOR}_{TITLE}_{POSTID}"

# Admission rules applied before any download; zero disables a bound
filter:
  min_score: 0
  max_score: 0
  min_score_ratio: 0
  max_score_ratio: 0
  skip_subreddits: []
  ignore_users: []
  exclude_ids: []
  skip_extensions: []
  skip_domains: []

# Acquisition settings
download:
  # What to do with a resource whose content already exists:
  # skip or hardlink
  duplicate_mode: "skip"

  # Seconds allowed per resource download
  max_wait_time: 120

  # Hash files already in the output directory before downloading so
  # previously downloaded content is not fetched again
  search_existing: false

  # Workers hashing existing files when search_existing is on
  scan_workers: 15

  # Downloader modules to turn off, e.g. ["selfpost"]
  disable_modules: []

# Archive settings
archive:
  # Record format: json, xml or yaml
  format: "json"

  # Archive the whole submission a comment belongs to
  comment_context: false

  # Also archive the comments of each user source
  all_comments: false

# Rate-limit backoff
retry:
  # Retries per item after a rate limit; attempts = retries + 1
  max_retries: 2

  # The n-th retry waits base_delay * n^3 seconds
  base_delay: 30

  # Seconds slept before abandoning a feed that stopped advancing
  sequence_cooldown: 60

# Logging
logging:
  # debug, info, warn or error
  level: "info"

  # Also append logs to this file (empty = console only)
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) {
	// Determine config file path
	configPath := configFile
	if configPath == "" {
		configPath = ".bdfr.yaml"
	}

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(os.Stderr, "error: configuration file already exists: %s\n", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		fatal("failed to create configuration file: %v", err)
	}

	fmt.Println("Configuration file created:", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the configuration file to taste")
	fmt.Println("2. Run 'bdfr config validate' to check it")
	fmt.Println("3. Store credentials with 'bdfr auth login' (optional)")
	fmt.Println("4. Start downloading with 'bdfr download <directory> --subreddit <name>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		fatal("failed to load configuration: %v", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		fatal("failed to format configuration: %v", err)
	}

	fmt.Println("Current configuration:")
	fmt.Println()
	fmt.Print(string(data))

	// Show configuration sources
	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (BDFR_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (standard locations)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	// Without --config, look in the standard locations
	if configFile == "" {
		possiblePaths := []string{
			".bdfr.yaml",
			".bdfr.yml",
			filepath.Join(os.Getenv("HOME"), ".config", "bdfr", "config.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "bdfr", "config.yml"),
			filepath.Join(os.Getenv("HOME"), ".bdfr.yaml"),
			filepath.Join(os.Getenv("HOME"), ".bdfr.yml"),
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			fatal("no configuration file found; specify one with --config")
		}
	}

	fmt.Println("Validating configuration:", configFile)

	// Load runs the full validation pass
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		fatal("configuration validation failed: %v", err)
	}

	// Environment checks beyond value validation
	var problems []string
	if err := os.MkdirAll(cfg.Output.Directory, 0755); err != nil {
		problems = append(problems, fmt.Sprintf("cannot create output directory: %v", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if len(problems) > 0 {
		fmt.Fprintln(os.Stderr, "error: configuration has problems:")
		for _, problem := range problems {
			fmt.Fprintf(os.Stderr, "  - %s\n", problem)
		}
		os.Exit(1)
	}

	fmt.Println("Configuration is valid")

	// Show summary
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Output directory: %s\n", cfg.Output.Directory)
	fmt.Printf("  Naming scheme: %s/%s\n", cfg.Output.FolderScheme, cfg.Output.FileScheme)
	fmt.Printf("  Rate limit: %d requests/minute\n", cfg.Reddit.RequestsPerMinute)
	fmt.Printf("  Duplicate mode: %s\n", cfg.Download.DuplicateMode)
	fmt.Printf("  Archive format: %s\n", cfg.Archive.Format)
	fmt.Printf("  Max retries: %d\n", cfg.Retry.MaxRetries)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
