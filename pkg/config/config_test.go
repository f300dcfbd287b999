package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Reddit.RequestsPerMinute != 60 {
		t.Errorf("Expected default requests per minute to be 60, got %d", config.Reddit.RequestsPerMinute)
	}
	if config.Output.FolderScheme != "{SUBREDDIT}" {
		t.Errorf("Expected default folder scheme {SUBREDDIT}, got %s", config.Output.FolderScheme)
	}
	if config.Output.FileScheme != "{REDDITOR}_{TITLE}_{POSTID}" {
		t.Errorf("Expected default file scheme {REDDITOR}_{TITLE}_{POSTID}, got %s", config.Output.FileScheme)
	}
	if config.Download.DuplicateMode != DuplicateSkip {
		t.Errorf("Expected default duplicate mode skip, got %s", config.Download.DuplicateMode)
	}
	if config.Download.MaxWaitTime != 120 {
		t.Errorf("Expected default max wait time 120, got %d", config.Download.MaxWaitTime)
	}
	if config.Download.ScanWorkers != 15 {
		t.Errorf("Expected default scan workers 15, got %d", config.Download.ScanWorkers)
	}
	if config.Archive.Format != FormatJSON {
		t.Errorf("Expected default archive format json, got %s", config.Archive.Format)
	}
	if config.Retry.MaxRetries != 2 {
		t.Errorf("Expected default max retries 2, got %d", config.Retry.MaxRetries)
	}
	if config.Retry.BaseDelay != 30 {
		t.Errorf("Expected default base delay 30, got %d", config.Retry.BaseDelay)
	}
	if config.Retry.SequenceCooldown != 60 {
		t.Errorf("Expected default sequence cooldown 60, got %d", config.Retry.SequenceCooldown)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Default config failed validation: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BDFR_USER_AGENT", "test-agent")
	t.Setenv("BDFR_REQUESTS_PER_MINUTE", "30")
	t.Setenv("BDFR_OUTPUT_DIR", "/tmp/test-downloads")
	t.Setenv("BDFR_MAX_WAIT_TIME", "45")
	t.Setenv("BDFR_LOG_LEVEL", "debug")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Reddit.UserAgent != "test-agent" {
		t.Errorf("Expected user agent test-agent, got %s", config.Reddit.UserAgent)
	}
	if config.Reddit.RequestsPerMinute != 30 {
		t.Errorf("Expected requests per minute 30, got %d", config.Reddit.RequestsPerMinute)
	}
	if config.Output.Directory != "/tmp/test-downloads" {
		t.Errorf("Expected output directory /tmp/test-downloads, got %s", config.Output.Directory)
	}
	if config.Download.MaxWaitTime != 45 {
		t.Errorf("Expected max wait time 45, got %d", config.Download.MaxWaitTime)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
reddit:
  user_agent: file-agent
  requests_per_minute: 20
filter:
  min_score: 10
  skip_subreddits:
    - memes
    - funny
download:
  duplicate_mode: hardlink
  max_wait_time: 300
archive:
  format: yaml
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}

	if config.Reddit.UserAgent != "file-agent" {
		t.Errorf("Expected user agent file-agent, got %s", config.Reddit.UserAgent)
	}
	if config.Reddit.RequestsPerMinute != 20 {
		t.Errorf("Expected requests per minute 20, got %d", config.Reddit.RequestsPerMinute)
	}
	if config.Filter.MinScore != 10 {
		t.Errorf("Expected min score 10, got %d", config.Filter.MinScore)
	}
	if len(config.Filter.SkipSubreddits) != 2 {
		t.Errorf("Expected 2 skipped subreddits, got %v", config.Filter.SkipSubreddits)
	}
	if config.Download.DuplicateMode != DuplicateHardlink {
		t.Errorf("Expected duplicate mode hardlink, got %s", config.Download.DuplicateMode)
	}
	if config.Download.MaxWaitTime != 300 {
		t.Errorf("Expected max wait time 300, got %d", config.Download.MaxWaitTime)
	}
	if config.Archive.Format != FormatYAML {
		t.Errorf("Expected archive format yaml, got %s", config.Archive.Format)
	}

	// Untouched keys keep their defaults
	if config.Download.ScanWorkers != 15 {
		t.Errorf("Expected scan workers to keep default 15, got %d", config.Download.ScanWorkers)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	config := DefaultConfig()
	if err := config.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing explicit config file")
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"directory":       "/data/reddit",
		"min-score":       50,
		"max-score-ratio": 0.9,
		"skip":            []string{"mp4", "gif"},
		"make-hard-links": true,
		"format":          "xml",
		"max-retries":     5,
		"verbose":         true,
	})

	if config.Output.Directory != "/data/reddit" {
		t.Errorf("Expected directory /data/reddit, got %s", config.Output.Directory)
	}
	if config.Filter.MinScore != 50 {
		t.Errorf("Expected min score 50, got %d", config.Filter.MinScore)
	}
	if config.Filter.MaxScoreRatio != 0.9 {
		t.Errorf("Expected max score ratio 0.9, got %f", config.Filter.MaxScoreRatio)
	}
	if len(config.Filter.SkipExtensions) != 2 {
		t.Errorf("Expected 2 skip extensions, got %v", config.Filter.SkipExtensions)
	}
	if config.Download.DuplicateMode != DuplicateHardlink {
		t.Errorf("Expected duplicate mode hardlink, got %s", config.Download.DuplicateMode)
	}
	if config.Archive.Format != FormatXML {
		t.Errorf("Expected archive format xml, got %s", config.Archive.Format)
	}
	if config.Retry.MaxRetries != 5 {
		t.Errorf("Expected max retries 5, got %d", config.Retry.MaxRetries)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected verbose to set log level debug, got %s", config.Logging.Level)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad duplicate mode", func(c *Config) { c.Download.DuplicateMode = "overwrite" }, "duplicate mode"},
		{"bad format", func(c *Config) { c.Archive.Format = "toml" }, "archive format"},
		{"bad file scheme", func(c *Config) { c.Output.FileScheme = "static-name" }, "file scheme"},
		{"zero rpm", func(c *Config) { c.Reddit.RequestsPerMinute = 0 }, "requests per minute"},
		{"negative retries", func(c *Config) { c.Retry.MaxRetries = -1 }, "max retries"},
		{"zero base delay", func(c *Config) { c.Retry.BaseDelay = 0 }, "base delay"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "log level"},
		{"bad store", func(c *Config) { c.Reddit.CredentialStore = "vault" }, "credential store"},
		{"zero workers", func(c *Config) { c.Download.ScanWorkers = 0 }, "scan workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validation error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	config := DefaultConfig()
	config.Filter.MinScore = 42
	config.Archive.Format = FormatXML

	if err := config.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded := DefaultConfig()
	if err := reloaded.LoadFromFile(path); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if reloaded.Filter.MinScore != 42 {
		t.Errorf("Expected min score 42 after reload, got %d", reloaded.Filter.MinScore)
	}
	if reloaded.Archive.Format != FormatXML {
		t.Errorf("Expected format xml after reload, got %s", reloaded.Archive.Format)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
reddit:
  requests_per_minute: 10
logging:
  level: warn
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BDFR_REQUESTS_PER_MINUTE", "25")

	config, err := Load(path, map[string]interface{}{"log-level": "error"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Env beats file
	if config.Reddit.RequestsPerMinute != 25 {
		t.Errorf("Expected env to override file, got %d", config.Reddit.RequestsPerMinute)
	}
	// Flag beats env and file
	if config.Logging.Level != "error" {
		t.Errorf("Expected flag to override file, got %s", config.Logging.Level)
	}
}
