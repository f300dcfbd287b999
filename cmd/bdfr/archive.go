package main

import (
	"github.com/spf13/cobra"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/archive"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/driver"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/filter"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/logger"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/paths"
)

// archiveCmd represents the archive command
var archiveCmd = &cobra.Command{
	Use:   "archive <directory>",
	Short: "Archive submissions and their comment trees",
	Long: `Archive Reddit submissions together with their full comment trees.

Each item becomes one record file in the chosen format. Submissions
carry their complete comment forest; a comment on its own is archived
as its reply subtree, or as the whole parent submission when
--comment-context is set.`,
	Example: `  # Archive a whole thread as JSON
  bdfr archive ./reddit --link https://www.reddit.com/r/golang/comments/abc123/example/

  # Archive a user's submissions and comments as YAML
  bdfr archive ./reddit --user example_user --all-comments --format yaml

  # Archive the top submissions of the week
  bdfr archive ./reddit --subreddit AskHistorians --sort top --time week --limit 25`,
	Args: cobra.ExactArgs(1),
	Run:  runArchive,
}

func init() {
	rootCmd.AddCommand(archiveCmd)

	addSourceFlags(archiveCmd)
	addFilterFlags(archiveCmd)
	addOutputFlags(archiveCmd)
	addArchiveFlags(archiveCmd)
}

func runArchive(cmd *cobra.Command, args []string) {
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

	formatter := paths.NewFormatter(cfg.Output.Directory, cfg.Output.FolderScheme, cfg.Output.FileScheme)
	writer := archive.NewWriter(&cfg.Archive, client, formatter, log)
	driver.NewArchiver(writer, filter.New(&cfg.Filter), &cfg.Retry, log).Run(ctx, sequences)
}
