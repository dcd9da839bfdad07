package crawler

import (
	"context"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jonesrussell/pdfcrawl/internal/database"
	"github.com/jonesrussell/pdfcrawl/internal/frontier"
	"github.com/jonesrussell/pdfcrawl/internal/telemetry"
)

// printSummary renders the end-of-run report: one row per worker plus
// overall totals.
func (c *Crawler) printSummary(
	ctx context.Context,
	coordinator *telemetry.Coordinator,
	documents *database.DocumentRepository,
	front *frontier.Frontier,
) {
	statuses, err := coordinator.Statuses(ctx)
	if err != nil {
		c.log.Warn("Failed to load worker statuses for summary", "error", err)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Worker", "Status", "Running", "Parsed", "Added", "Downloaded"})

	var parsed, added, downloaded int
	for _, s := range statuses {
		t.AppendRow(table.Row{
			s.Worker,
			s.Status,
			(time.Duration(s.RunningTime) * time.Millisecond).Round(time.Second),
			s.Parsed,
			s.Added,
			s.Downloaded,
		})
		parsed += s.Parsed
		added += s.Added
		downloaded += s.Downloaded
	}

	t.AppendFooter(table.Row{"total", "", "", parsed, added, downloaded})
	t.Render()

	stored, err := documents.Count(ctx)
	if err != nil {
		c.log.Warn("Failed to count stored documents", "error", err)
		return
	}

	c.log.Info("Crawl finished",
		"documents", stored,
		"queued", front.Len())
}
