package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Runs one crawl and exits",
		Long: `Crawls every configured seed URL once, replaces the CSV file with the
projects found and exits. Optional Postgres, Pub/Sub and GCS outputs run when
configured.`,
		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	rt, err := resolveRuntime(cmd.Context())
	if err != nil {
		return err
	}

	summary, err := rt.app.Service.Crawl(cmd.Context())
	if err != nil {
		return fmt.Errorf("run crawl: %w", err)
	}

	rt.logger.Info("crawl command finished",
		zap.String("run_id", summary.Run.ID),
		zap.Int("written", summary.Written()),
		zap.Duration("duration", summary.Duration),
	)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "run %s: wrote %d of %d projects to %s\n",
		summary.Run.ID, summary.Written(), len(rt.cfg.Crawler.SeedURLs), rt.app.Service.CSVPath())
	return err
}
