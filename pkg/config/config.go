package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duplicate handling modes
const (
	DuplicateSkip     = "skip"
	DuplicateHardlink = "hardlink"
)

// Archive output formats
const (
	FormatJSON = "json"
	FormatXML  = "xml"
	FormatYAML = "yaml"
)

// Config holds all configuration options for the downloader
type Config struct {
	// Reddit API access
	Reddit RedditConfig `yaml:"reddit" json:"reddit"`

	// Destination tree and naming schemes
	Output OutputConfig `yaml:"output" json:"output"`

	// Item and resource admission rules
	Filter FilterConfig `yaml:"filter" json:"filter"`

	// Acquisition settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Archive settings
	Archive ArchiveConfig `yaml:"archive" json:"archive"`

	// Rate-limit retry settings
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// RedditConfig holds Reddit API client configuration
type RedditConfig struct {
	UserAgent         string `yaml:"user_agent" json:"user_agent"`
	RequestsPerMinute int    `yaml:"requests_per_minute" json:"requests_per_minute"`
	CredentialStore   string `yaml:"credential_store" json:"credential_store"` // keyring, encrypted or env
}

// OutputConfig holds destination tree configuration
type OutputConfig struct {
	Directory    string `yaml:"directory" json:"directory"`
	FolderScheme string `yaml:"folder_scheme" json:"folder_scheme"`
	FileScheme   string `yaml:"file_scheme" json:"file_scheme"`
}

// FilterConfig holds the admission rules applied before any download.
// Zero values disable the numeric bounds.
type FilterConfig struct {
	MinScore       int      `yaml:"min_score" json:"min_score"`
	MaxScore       int      `yaml:"max_score" json:"max_score"`
	MinScoreRatio  float64  `yaml:"min_score_ratio" json:"min_score_ratio"`
	MaxScoreRatio  float64  `yaml:"max_score_ratio" json:"max_score_ratio"`
	SkipSubreddits []string `yaml:"skip_subreddits" json:"skip_subreddits"`
	IgnoreUsers    []string `yaml:"ignore_users" json:"ignore_users"`
	ExcludeIDs     []string `yaml:"exclude_ids" json:"exclude_ids"`
	SkipExtensions []string `yaml:"skip_extensions" json:"skip_extensions"`
	SkipDomains    []string `yaml:"skip_domains" json:"skip_domains"`
}

// DownloadConfig holds acquisition settings
type DownloadConfig struct {
	DuplicateMode  string   `yaml:"duplicate_mode" json:"duplicate_mode"` // skip or hardlink
	MaxWaitTime    int      `yaml:"max_wait_time" json:"max_wait_time"`   // seconds allowed per resource fetch
	SearchExisting bool     `yaml:"search_existing" json:"search_existing"`
	ScanWorkers    int      `yaml:"scan_workers" json:"scan_workers"`
	DisableModules []string `yaml:"disable_modules" json:"disable_modules"`
}

// ArchiveConfig holds archive settings
type ArchiveConfig struct {
	Format         string `yaml:"format" json:"format"` // json, xml or yaml
	CommentContext bool   `yaml:"comment_context" json:"comment_context"`
	AllComments    bool   `yaml:"all_comments" json:"all_comments"`
}

// RetryConfig holds the rate-limit backoff settings.
// MaxRetries counts retries, not attempts: 2 retries means at most 3
// attempts. The n-th retry waits BaseDelay * n^3 seconds.
type RetryConfig struct {
	MaxRetries       int `yaml:"max_retries" json:"max_retries"`
	BaseDelay        int `yaml:"base_delay" json:"base_delay"`               // seconds
	SequenceCooldown int `yaml:"sequence_cooldown" json:"sequence_cooldown"` // seconds slept before abandoning a sequence
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Reddit: RedditConfig{
			UserAgent:         "go:bdfr:v2 (github.com/Alessandro201/bulk-downloader-for-reddit)",
			RequestsPerMinute: 60,
			CredentialStore:   "keyring",
		},
		Output: OutputConfig{
			Directory:    ".",
			FolderScheme: "{SUBREDDIT}",
			FileScheme:   "{REDDITOR}_{TITLE}_{POSTID}",
		},
		Download: DownloadConfig{
			DuplicateMode:  DuplicateSkip,
			MaxWaitTime:    120,
			SearchExisting: false,
			ScanWorkers:    15,
		},
		Archive: ArchiveConfig{
			Format: FormatJSON,
		},
		Retry: RetryConfig{
			MaxRetries:       2,
			BaseDelay:        30,
			SequenceCooldown: 60,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if userAgent := os.Getenv("BDFR_USER_AGENT"); userAgent != "" {
		c.Reddit.UserAgent = userAgent
	}
	if rpm := os.Getenv("BDFR_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.Reddit.RequestsPerMinute = val
		}
	}
	if store := os.Getenv("BDFR_CREDENTIAL_STORE"); store != "" {
		c.Reddit.CredentialStore = store
	}
	if outputDir := os.Getenv("BDFR_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}
	if maxWait := os.Getenv("BDFR_MAX_WAIT_TIME"); maxWait != "" {
		var val int
		fmt.Sscanf(maxWait, "%d", &val)
		if val > 0 {
			c.Download.MaxWaitTime = val
		}
	}
	if logLevel := os.Getenv("BDFR_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("BDFR_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for a config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".bdfr.yaml",
		".bdfr.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "bdfr", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "bdfr", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".bdfr.yaml"),
		filepath.Join(os.Getenv("HOME"), ".bdfr.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// schemeKeys are the placeholders a file scheme may expand
var schemeKeys = []string{"{POSTID}", "{TITLE}", "{UPVOTES}", "{DATE}", "{REDDITOR}"}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Reddit.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}
	if c.Reddit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	switch c.Reddit.CredentialStore {
	case "keyring", "encrypted", "env", "":
	default:
		errs = append(errs, fmt.Errorf("unknown credential store: %s", c.Reddit.CredentialStore))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.FolderScheme == "" {
		errs = append(errs, errors.New("folder scheme is required"))
	}
	fileSchemeValid := false
	for _, key := range schemeKeys {
		if strings.Contains(c.Output.FileScheme, key) {
			fileSchemeValid = true
			break
		}
	}
	if !fileSchemeValid {
		errs = append(errs, errors.New("file scheme must contain at least one placeholder"))
	}

	if c.Download.DuplicateMode != DuplicateSkip && c.Download.DuplicateMode != DuplicateHardlink {
		errs = append(errs, fmt.Errorf("unknown duplicate mode: %s", c.Download.DuplicateMode))
	}
	if c.Download.MaxWaitTime <= 0 {
		errs = append(errs, errors.New("max wait time must be positive"))
	}
	if c.Download.ScanWorkers <= 0 {
		errs = append(errs, errors.New("scan workers must be positive"))
	}

	switch c.Archive.Format {
	case FormatJSON, FormatXML, FormatYAML:
	default:
		errs = append(errs, fmt.Errorf("unknown archive format: %s", c.Archive.Format))
	}

	if c.Retry.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Retry.BaseDelay <= 0 {
		errs = append(errs, errors.New("retry base delay must be positive"))
	}
	if c.Retry.SequenceCooldown < 0 {
		errs = append(errs, errors.New("sequence cooldown cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Keys are flag names; only flags the user actually set should be passed.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["user-agent"].(string); ok && v != "" {
		c.Reddit.UserAgent = v
	}
	if v, ok := flags["requests-per-minute"].(int); ok && v > 0 {
		c.Reddit.RequestsPerMinute = v
	}
	if v, ok := flags["credential-store"].(string); ok && v != "" {
		c.Reddit.CredentialStore = v
	}

	if v, ok := flags["directory"].(string); ok && v != "" {
		c.Output.Directory = v
	}
	if v, ok := flags["folder-scheme"].(string); ok && v != "" {
		c.Output.FolderScheme = v
	}
	if v, ok := flags["file-scheme"].(string); ok && v != "" {
		c.Output.FileScheme = v
	}

	if v, ok := flags["min-score"].(int); ok && v != 0 {
		c.Filter.MinScore = v
	}
	if v, ok := flags["max-score"].(int); ok && v != 0 {
		c.Filter.MaxScore = v
	}
	if v, ok := flags["min-score-ratio"].(float64); ok && v != 0 {
		c.Filter.MinScoreRatio = v
	}
	if v, ok := flags["max-score-ratio"].(float64); ok && v != 0 {
		c.Filter.MaxScoreRatio = v
	}
	if v, ok := flags["skip-subreddit"].([]string); ok && len(v) > 0 {
		c.Filter.SkipSubreddits = append(c.Filter.SkipSubreddits, v...)
	}
	if v, ok := flags["ignore-user"].([]string); ok && len(v) > 0 {
		c.Filter.IgnoreUsers = append(c.Filter.IgnoreUsers, v...)
	}
	if v, ok := flags["exclude-id"].([]string); ok && len(v) > 0 {
		c.Filter.ExcludeIDs = append(c.Filter.ExcludeIDs, v...)
	}
	if v, ok := flags["skip"].([]string); ok && len(v) > 0 {
		c.Filter.SkipExtensions = append(c.Filter.SkipExtensions, v...)
	}
	if v, ok := flags["skip-domain"].([]string); ok && len(v) > 0 {
		c.Filter.SkipDomains = append(c.Filter.SkipDomains, v...)
	}

	if v, ok := flags["no-dupes"].(bool); ok && v {
		c.Download.DuplicateMode = DuplicateSkip
	}
	if v, ok := flags["make-hard-links"].(bool); ok && v {
		c.Download.DuplicateMode = DuplicateHardlink
	}
	if v, ok := flags["max-wait-time"].(int); ok && v > 0 {
		c.Download.MaxWaitTime = v
	}
	if v, ok := flags["search-existing"].(bool); ok && v {
		c.Download.SearchExisting = true
	}
	if v, ok := flags["disable-module"].([]string); ok && len(v) > 0 {
		c.Download.DisableModules = append(c.Download.DisableModules, v...)
	}

	if v, ok := flags["format"].(string); ok && v != "" {
		c.Archive.Format = v
	}
	if v, ok := flags["comment-context"].(bool); ok && v {
		c.Archive.CommentContext = true
	}
	if v, ok := flags["all-comments"].(bool); ok && v {
		c.Archive.AllComments = true
	}

	if v, ok := flags["max-retries"].(int); ok && v >= 0 {
		c.Retry.MaxRetries = v
	}

	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
	if v, ok := flags["verbose"].(bool); ok && v {
		c.Logging.Level = "debug"
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".bdfr.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
