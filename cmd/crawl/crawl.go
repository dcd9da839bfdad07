// Package crawl implements the crawl command: seed the frontier and run
// the worker swarm until the reachable graph is exhausted.
package crawl

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/pdfcrawl/internal/config"
	"github.com/jonesrussell/pdfcrawl/internal/crawler"
	"github.com/jonesrussell/pdfcrawl/internal/logger"
)

// Command returns the crawl command for use in the root command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url]",
		Short: "Crawl from a seed URL and harvest matching documents",
		Long: `Crawl walks the hyperlink graph from the seed URL. HTML pages are
parsed for further links; PDF documents are scored against the keyword
list and stored when they meet the relevancy threshold. The run ends
when every worker agrees the queue is exhausted, or on interrupt.

Without a URL the queue persisted by the previous run is resumed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Seed = args[0]
			}

			log, err := logger.New(&cfg.Logger)
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return crawler.New(cfg, log).Run(ctx)
		},
	}

	flags := cmd.Flags()
	flags.Bool("reset", false, "drop and recreate the crawl database schema")
	flags.Bool("preserve-queue", false, "keep the pending queue from a previous run")
	flags.String("parser", config.DefaultParser, "registered parser to extract links with")
	flags.String("processor", config.DefaultProcessor, "registered processor to score documents with")
	flags.Bool("all-domains", false, "follow links outside the seed's domain")
	flags.Int("threads", config.DefaultThreads, "number of crawl workers")
	flags.Int("retries", config.DefaultRetries, "fetch attempts per URL before dropping it")
	flags.StringSlice("keywords", nil, "keywords documents are scored against")
	flags.String("download-folder", config.DefaultDownloadFolder, "folder for accepted documents")
	flags.String("rejected-folder", "", "folder for rejected documents (empty: not written)")
	flags.Int("depth", config.DefaultDepth, "maximum link distance from the seed (0: unlimited)")
	flags.Float64("min-relevancy", config.DefaultMinRelevancy, "document acceptance threshold")
	flags.String("db", config.DefaultDBPath, "crawl database file")
	flags.String("log-db", config.DefaultLogDBPath, "log database file")
	flags.String("user-agent", config.DefaultUserAgent, "User-Agent header for all requests")
	flags.Duration("timeout", config.DefaultTimeout, "per-request HTTP timeout")

	for _, name := range []string{
		"reset", "parser", "processor", "threads", "retries", "keywords",
		"depth", "db", "timeout",
	} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
	_ = viper.BindPFlag("preserve_queue", flags.Lookup("preserve-queue"))
	_ = viper.BindPFlag("all_domains", flags.Lookup("all-domains"))
	_ = viper.BindPFlag("download_folder", flags.Lookup("download-folder"))
	_ = viper.BindPFlag("rejected_folder", flags.Lookup("rejected-folder"))
	_ = viper.BindPFlag("min_relevancy", flags.Lookup("min-relevancy"))
	_ = viper.BindPFlag("log_db", flags.Lookup("log-db"))
	_ = viper.BindPFlag("user_agent", flags.Lookup("user-agent"))

	return cmd
}
