// Package crawler wires the crawl run together: databases, frontier,
// telemetry, store and the worker swarm.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/jonesrussell/pdfcrawl/internal/config"
	"github.com/jonesrussell/pdfcrawl/internal/database"
	"github.com/jonesrussell/pdfcrawl/internal/dispatcher"
	"github.com/jonesrussell/pdfcrawl/internal/fetcher"
	"github.com/jonesrussell/pdfcrawl/internal/frontier"
	"github.com/jonesrussell/pdfcrawl/internal/logger"
	"github.com/jonesrussell/pdfcrawl/internal/parser"
	"github.com/jonesrussell/pdfcrawl/internal/processor"
	"github.com/jonesrussell/pdfcrawl/internal/store"
	"github.com/jonesrussell/pdfcrawl/internal/telemetry"
)

// Crawler owns the resources of one crawl run.
type Crawler struct {
	cfg *config.Config
	log logger.Interface
}

// New creates a crawler for cfg.
func New(cfg *config.Config, log logger.Interface) *Crawler {
	return &Crawler{cfg: cfg, log: log}
}

// Run executes the crawl: prepare both databases, seed the frontier,
// start the workers and wait for collective termination. It returns an
// error when any worker aborted; cancellation via ctx is a clean stop.
func (c *Crawler) Run(ctx context.Context) error {
	crawlDB, err := database.Open(c.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open crawl database: %w", err)
	}
	defer crawlDB.Close()

	if err = database.Migrate(ctx, crawlDB, c.cfg.Reset); err != nil {
		return err
	}

	logDB, err := database.Open(c.cfg.LogDBPath)
	if err != nil {
		return fmt.Errorf("failed to open log database: %w", err)
	}
	defer logDB.Close()

	if err = database.MigrateLogs(ctx, logDB); err != nil {
		return err
	}

	recorder, err := telemetry.NewRecorder(ctx, database.NewLogRepository(logDB), c.log)
	if err != nil {
		return err
	}

	coordinator, err := telemetry.NewCoordinator(ctx, database.NewStatusRepository(logDB))
	if err != nil {
		return err
	}

	front, err := frontier.New(ctx, crawlDB, frontier.Options{
		AllDomains: c.cfg.AllDomains,
		Retries:    c.cfg.Retries,
	}, c.log)
	if err != nil {
		return err
	}

	if err = c.seed(ctx, front); err != nil {
		return err
	}

	documents := database.NewDocumentRepository(crawlDB)
	sink, err := store.New(c.cfg.DownloadFolder, c.cfg.RejectedFolder,
		documents, database.NewResourceRepository(crawlDB), c.log)
	if err != nil {
		return err
	}

	c.log.Info("Starting crawl",
		"seed", c.cfg.Seed,
		"threads", c.cfg.Threads,
		"depth", c.cfg.Depth,
		"keywords", c.cfg.Keywords)

	runErr := c.runWorkers(ctx, front, sink, recorder, coordinator)

	c.printSummary(context.WithoutCancel(ctx), coordinator, documents, front)

	return runErr
}

// seed clears the inherited queue (unless preserving) and admits the
// seed URL at depth zero. Without a seed the persisted queue from the
// previous run is resumed as-is.
func (c *Crawler) seed(ctx context.Context, front *frontier.Frontier) error {
	if c.cfg.Seed == "" {
		c.log.Info("No seed given, resuming persisted queue", "queued", front.Len())
		return nil
	}

	if !c.cfg.PreserveQueue {
		dropped, err := front.Clear(ctx)
		if err != nil {
			return err
		}
		if dropped > 0 {
			c.log.Info("Cleared inherited queue", "dropped", dropped)
		}
	}

	if _, _, err := front.Add(ctx, c.cfg.Seed, nil, nil, nil); err != nil {
		return fmt.Errorf("failed to seed %q: %w", c.cfg.Seed, err)
	}

	return nil
}

// runWorkers starts the swarm and waits for every worker to stop. Each
// worker gets its own parser, processor and robots cache; the frontier,
// store and telemetry are shared.
func (c *Crawler) runWorkers(
	ctx context.Context,
	front *frontier.Frontier,
	sink *store.Store,
	recorder *telemetry.Recorder,
	coordinator *telemetry.Coordinator,
) error {
	client := &http.Client{Timeout: c.cfg.Timeout}
	opts := dispatcher.Options{
		MaxDepth:     c.cfg.Depth,
		MinRelevancy: c.cfg.MinRelevancy,
	}

	var wg sync.WaitGroup
	errs := make([]error, c.cfg.Threads)

	for i := range c.cfg.Threads {
		pars, err := parser.New(c.cfg.Parser, c.cfg.Keywords)
		if err != nil {
			return err
		}
		proc, err := processor.New(c.cfg.Processor, c.cfg.Keywords)
		if err != nil {
			return err
		}

		worker := dispatcher.NewWorker(fmt.Sprintf("worker-%d", i+1), dispatcher.Deps{
			Frontier:    front,
			Fetcher:     fetcher.New(client, c.cfg.UserAgent),
			Robots:      fetcher.NewRobotsCache(client, c.cfg.UserAgent),
			Parser:      pars,
			Processor:   proc,
			Store:       sink,
			Recorder:    recorder,
			Coordinator: coordinator,
			Log:         c.log,
		}, opts)

		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = worker.Run(ctx)
		}()
	}

	wg.Wait()

	var failed error
	for _, err := range errs {
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			continue
		}
		failed = errors.Join(failed, err)
	}

	return failed
}
