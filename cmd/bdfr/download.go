package main

import (
	"github.com/spf13/cobra"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/driver"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/logger"
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <directory>",
	Short: "Download the resources linked by submissions",
	Long: `Download the resources linked by Reddit submissions into a directory tree.

Sources are subreddit listings, user submission feeds and direct links;
at least one must be given. Every resource is deduplicated by content
hash, so the same picture posted twice is stored once.

Authenticated access is optional. Store credentials with 'bdfr auth
login' to raise the API allowance and see content hidden from logged-out
browsing; without them the read-only client is used.`,
	Example: `  # Download fifty fresh submissions from a subreddit
  bdfr download ./reddit --subreddit EarthPorn --sort new --limit 50

  # Download from several sources in one run
  bdfr download ./reddit --subreddit pics --subreddit aww --user example_user

  # Hard link duplicates instead of skipping them
  bdfr download ./reddit --subreddit wallpapers --make-hard-links

  # Skip small gifs and a noisy host
  bdfr download ./reddit --subreddit funny --skip gif --skip-domain i.redd.it`,
	Args: cobra.ExactArgs(1),
	Run:  runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	addSourceFlags(downloadCmd)
	addFilterFlags(downloadCmd)
	addOutputFlags(downloadCmd)
	addDownloadFlags(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) {
	cfg := setup(args[0])

	log := logger.GetLogger()
	log.WithField("version", version).Info("bulk downloader starting")

	client := newRedditClient(cfg, log)
	sequences, err := buildSequences(client, false)
	if err != nil {
		fatal("%v", err)
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	engine := newDownloadEngine(ctx, cfg, log)
	driver.NewDownloader(engine, &cfg.Retry, log).Run(ctx, sequences)
}
