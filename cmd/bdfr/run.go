package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/auth"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/config"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/download"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/extractor"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/fetch"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/filter"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/index"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/logger"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/paths"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/reddit"
)

var (
	// Source selection flags shared by download, archive and clone
	subreddits  []string
	users       []string
	links       []string
	sortOrder   string
	timeFilter  string
	limit       int
	accountName string

	// Reddit API flags
	userAgent         string
	requestsPerMinute int
	credentialStore   string
	maxRetries        int

	// Admission rule flags
	minScore       int
	maxScore       int
	minScoreRatio  float64
	maxScoreRatio  float64
	skipSubreddits []string
	ignoreUsers    []string
	excludeIDs     []string

	// Naming scheme flags
	folderScheme string
	fileScheme   string

	// Acquisition flags
	skipExtensions []string
	skipDomains    []string
	noDupes        bool
	makeHardLinks  bool
	maxWaitTime    int
	searchExisting bool
	disableModules []string

	// Archive flags
	archiveFormat  string
	commentContext bool
	allComments    bool
)

// addSourceFlags registers the flags that select what to fetch and how
// to talk to the Reddit API.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&subreddits, "subreddit", nil, "fetch submissions from this subreddit (repeatable)")
	cmd.Flags().StringSliceVar(&users, "user", nil, "fetch submissions by this user (repeatable)")
	cmd.Flags().StringSliceVarP(&links, "link", "l", nil, "fetch a single submission by link or ID (repeatable)")
	cmd.Flags().StringVar(&sortOrder, "sort", "hot", "listing sort order (hot, new, rising, top, controversial)")
	cmd.Flags().StringVar(&timeFilter, "time", "all", "time window for the top and controversial sorts (hour, day, week, month, year, all)")
	cmd.Flags().IntVarP(&limit, "limit", "L", 0, "maximum submissions per source (0 means no limit)")
	cmd.Flags().StringVarP(&accountName, "account", "a", "", "use this stored account instead of the default")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "override the user agent sent to the Reddit API")
	cmd.Flags().IntVar(&requestsPerMinute, "requests-per-minute", 0, "Reddit API request budget (default 60)")
	cmd.Flags().StringVar(&credentialStore, "credential-store", "", "where credentials live: keyring, encrypted or env")
	cmd.Flags().IntVar(&maxRetries, "max-retries", -1, "rate-limit retries per item (default 2)")
}

// addFilterFlags registers the admission rules applied before any fetch
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&minScore, "min-score", 0, "skip submissions scored below this")
	cmd.Flags().IntVar(&maxScore, "max-score", 0, "skip submissions scored above this")
	cmd.Flags().Float64Var(&minScoreRatio, "min-score-ratio", 0, "skip submissions with an upvote ratio below this")
	cmd.Flags().Float64Var(&maxScoreRatio, "max-score-ratio", 0, "skip submissions with an upvote ratio above this")
	cmd.Flags().StringSliceVar(&skipSubreddits, "skip-subreddit", nil, "skip submissions from this subreddit (repeatable)")
	cmd.Flags().StringSliceVar(&ignoreUsers, "ignore-user", nil, "skip items written by this user (repeatable)")
	cmd.Flags().StringSliceVar(&excludeIDs, "exclude-id", nil, "skip this submission ID (repeatable)")
}

// addOutputFlags registers the destination naming scheme flags
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&folderScheme, "folder-scheme", "", "directory naming scheme (default {SUBREDDIT})")
	cmd.Flags().StringVar(&fileScheme, "file-scheme", "", "file naming scheme (default {REDDITOR}_{TITLE}_{POSTID})")
}

// addDownloadFlags registers the flags of the acquisition pipeline
func addDownloadFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&skipExtensions, "skip", nil, "skip resources with this file extension (repeatable)")
	cmd.Flags().StringSliceVar(&skipDomains, "skip-domain", nil, "skip resources hosted on this domain (repeatable)")
	cmd.Flags().BoolVar(&noDupes, "no-dupes", false, "skip resources whose content was already downloaded")
	cmd.Flags().BoolVar(&makeHardLinks, "make-hard-links", false, "hard link duplicate resources instead of skipping them")
	cmd.Flags().IntVar(&maxWaitTime, "max-wait-time", 0, "seconds allowed per resource download (default 120)")
	cmd.Flags().BoolVar(&searchExisting, "search-existing", false, "hash files already in the output directory before downloading")
	cmd.Flags().StringSliceVar(&disableModules, "disable-module", nil, "turn off this downloader module (repeatable)")
}

// addArchiveFlags registers the flags of the archive pipeline
func addArchiveFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&archiveFormat, "format", "f", "", "record format: json, xml or yaml (default json)")
	cmd.Flags().BoolVar(&commentContext, "comment-context", false, "archive the whole submission a comment belongs to")
	cmd.Flags().BoolVar(&allComments, "all-comments", false, "also archive the comments of each --user source")
}

// buildFlagMap collects the flags the user actually set, in the shape
// config.MergeCommandLineFlags expects. Flags left at their defaults
// stay out of the map so config file and environment values survive.
func buildFlagMap(directory string) map[string]interface{} {
	flags := map[string]interface{}{
		"directory": directory,
	}

	if userAgent != "" {
		flags["user-agent"] = userAgent
	}
	if requestsPerMinute > 0 {
		flags["requests-per-minute"] = requestsPerMinute
	}
	if credentialStore != "" {
		flags["credential-store"] = credentialStore
	}
	if folderScheme != "" {
		flags["folder-scheme"] = folderScheme
	}
	if fileScheme != "" {
		flags["file-scheme"] = fileScheme
	}
	if minScore != 0 {
		flags["min-score"] = minScore
	}
	if maxScore != 0 {
		flags["max-score"] = maxScore
	}
	if minScoreRatio != 0 {
		flags["min-score-ratio"] = minScoreRatio
	}
	if maxScoreRatio != 0 {
		flags["max-score-ratio"] = maxScoreRatio
	}
	if len(skipSubreddits) > 0 {
		flags["skip-subreddit"] = skipSubreddits
	}
	if len(ignoreUsers) > 0 {
		flags["ignore-user"] = ignoreUsers
	}
	if len(excludeIDs) > 0 {
		flags["exclude-id"] = excludeIDs
	}
	if len(skipExtensions) > 0 {
		flags["skip"] = skipExtensions
	}
	if len(skipDomains) > 0 {
		flags["skip-domain"] = skipDomains
	}
	if noDupes {
		flags["no-dupes"] = true
	}
	if makeHardLinks {
		flags["make-hard-links"] = true
	}
	if maxWaitTime > 0 {
		flags["max-wait-time"] = maxWaitTime
	}
	if searchExisting {
		flags["search-existing"] = true
	}
	if len(disableModules) > 0 {
		flags["disable-module"] = disableModules
	}
	if archiveFormat != "" {
		flags["format"] = archiveFormat
	}
	if commentContext {
		flags["comment-context"] = true
	}
	if allComments {
		flags["all-comments"] = true
	}
	if maxRetries >= 0 {
		flags["max-retries"] = maxRetries
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}
	if logFile != "" {
		flags["log-file"] = logFile
	}
	if verbose {
		flags["verbose"] = true
	}

	return flags
}

// setup loads configuration, initializes logging and makes sure the
// output root exists. Any failure here aborts the process.
func setup(directory string) *config.Config {
	cfg, err := config.Load(configFile, buildFlagMap(directory))
	if err != nil {
		fatal("failed to load configuration: %v", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		fatal("failed to initialize logging: %v", err)
	}

	if err := os.MkdirAll(cfg.Output.Directory, 0755); err != nil {
		fatal("failed to create output directory %s: %v", cfg.Output.Directory, err)
	}

	return cfg
}

// newRedditClient resolves credentials and builds the API client. No
// stored credentials is not fatal: the client falls back to read-only
// access, which cannot see quarantined or private content.
func newRedditClient(cfg *config.Config, log logger.Logger) *reddit.Client {
	client, err := reddit.NewClient(&cfg.Reddit, resolveCredentials(cfg), log)
	if err != nil {
		fatal("failed to create Reddit client: %v", err)
	}
	return client
}

// resolveCredentials picks the login for this run: the --account flag
// when given, otherwise whatever the credential manager holds.
func resolveCredentials(cfg *config.Config) *auth.Credentials {
	manager, err := auth.NewManager(cfg.Reddit.CredentialStore)
	if err != nil {
		fatal("failed to initialize credential manager: %v", err)
	}

	if accountName != "" {
		creds, err := manager.Retrieve(accountName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: account %q not found\n", accountName)
			fmt.Fprintln(os.Stderr, "\nUse 'bdfr auth list' to see stored accounts.")
			os.Exit(1)
		}
		return creds
	}

	creds, err := manager.RetrieveDefault()
	if err != nil {
		return nil
	}
	return creds
}

// buildSequences turns the source flags into feed sequences. User
// comment feeds are added only when the archive side asked for them.
func buildSequences(client *reddit.Client, includeComments bool) ([]reddit.Sequence, error) {
	var sequences []reddit.Sequence

	for _, name := range subreddits {
		seq, err := client.SubredditPosts(name, sortOrder, timeFilter, limit)
		if err != nil {
			return nil, err
		}
		sequences = append(sequences, seq)
	}

	for _, name := range users {
		seq, err := client.UserPosts(name, sortOrder, timeFilter, limit)
		if err != nil {
			return nil, err
		}
		sequences = append(sequences, seq)

		if includeComments {
			comments, err := client.UserComments(name, sortOrder, timeFilter, limit)
			if err != nil {
				return nil, err
			}
			sequences = append(sequences, comments)
		}
	}

	if len(links) > 0 {
		ids, err := reddit.ParseLinks(links)
		if err != nil {
			return nil, err
		}
		sequences = append(sequences, client.ItemsByID(ids...))
	}

	if len(sequences) == 0 {
		return nil, fmt.Errorf("nothing to fetch: supply at least one --subreddit, --user or --link")
	}

	return sequences, nil
}

// newDownloadEngine wires the acquisition pipeline: resource fetcher,
// extractor registry, path formatter and the duplicate index.
func newDownloadEngine(ctx context.Context, cfg *config.Config, log logger.Logger) *download.Engine {
	ix := index.New()
	if cfg.Download.SearchExisting {
		var err error
		ix, err = index.Scan(ctx, cfg.Output.Directory, cfg.Download.ScanWorkers, log)
		if err != nil {
			fatal("failed to scan existing files: %v", err)
		}
	}

	fetcher := fetch.NewClient(time.Duration(cfg.Download.MaxWaitTime)*time.Second, cfg.Reddit.UserAgent, log)
	registry := extractor.DefaultRegistry(fetcher, cfg.Download.DisableModules)
	formatter := paths.NewFormatter(cfg.Output.Directory, cfg.Output.FolderScheme, cfg.Output.FileScheme)

	return download.NewEngine(&cfg.Download, filter.New(&cfg.Filter), registry, formatter, ix, log)
}

// signalContext returns a context cancelled by SIGINT or SIGTERM so a
// run finishes the current item and stops cleanly.
func signalContext(log logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutdown signal received, finishing the current item")
		cancel()
	}()

	return ctx, cancel
}
