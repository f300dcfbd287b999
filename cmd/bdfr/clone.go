package main

import (
	"github.com/spf13/cobra"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/archive"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/driver"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/logger"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/paths"
)

// cloneCmd represents the clone command
var cloneCmd = &cobra.Command{
	Use:   "clone <directory>",
	Short: "Download and archive in one pass",
	Long: `Clone runs the download and archive pipelines over the same sources:
each submission has its resources downloaded and its thread archived in
a single pass. All download and archive flags apply.`,
	Example: `  # Keep a complete local copy of a subreddit's front page
  bdfr clone ./reddit --subreddit golang --limit 25

  # Clone a user's activity, comments included
  bdfr clone ./reddit --user example_user --all-comments`,
	Args: cobra.ExactArgs(1),
	Run:  runClone,
}

func init() {
	rootCmd.AddCommand(cloneCmd)

	addSourceFlags(cloneCmd)
	addFilterFlags(cloneCmd)
	addOutputFlags(cloneCmd)
	addDownloadFlags(cloneCmd)
	addArchiveFlags(cloneCmd)
}

func runClone(cmd *cobra.Command, args []string) {
	cfg := setup(args[0])

	log := logger.GetLogger()
	log.WithField("version", version).Info("bulk downloader starting")

	client := newRedditClient(cfg, log)
	sequences, err := buildSequences(client, cfg.Archive.AllComments)
	if err != nil {
		fatal("%v", err)
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	engine := newDownloadEngine(ctx, cfg, log)
	formatter := paths.NewFormatter(cfg.Output.Directory, cfg.Output.FolderScheme, cfg.Output.FileScheme)
	writer := archive.NewWriter(&cfg.Archive, client, formatter, log)
	driver.NewCloner(engine, writer, &cfg.Retry, log).Run(ctx, sequences)
}
