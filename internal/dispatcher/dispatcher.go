// Package dispatcher runs the crawl workers. Each worker drains the
// shared frontier: HTML pages are parsed for new links, documents are
// scored and stored, and everything else is discarded. Workers stop
// together: an idle worker only finishes once no peer is running, since
// a running peer may still produce new URLs.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jonesrussell/pdfcrawl/internal/domain"
	"github.com/jonesrussell/pdfcrawl/internal/fetcher"
	"github.com/jonesrussell/pdfcrawl/internal/frontier"
	"github.com/jonesrussell/pdfcrawl/internal/logger"
	"github.com/jonesrussell/pdfcrawl/internal/parser"
	"github.com/jonesrussell/pdfcrawl/internal/processor"
	"github.com/jonesrussell/pdfcrawl/internal/store"
	"github.com/jonesrussell/pdfcrawl/internal/telemetry"
)

// Media types the dispatcher routes on.
const (
	mimeHTML = "text/html"
	mimePDF  = "application/pdf"
)

// Idle workers sleep a random duration in [idleMin, idleMin+idleJitter)
// before re-checking the queue, so they do not wake in lockstep.
const (
	idleMin    = 3 * time.Second
	idleJitter = 4 * time.Second
)

// Options configures per-worker crawl behavior.
type Options struct {
	// MaxDepth drops items at or beyond this link distance from the seed.
	// Zero disables the depth gate.
	MaxDepth int

	// MinRelevancy is the acceptance threshold for processed documents.
	MinRelevancy float64
}

// Deps are the shared and per-worker collaborators a worker runs with.
// Frontier, Store, Recorder and Coordinator are shared across workers;
// Robots, Parser and Processor instances belong to one worker.
type Deps struct {
	Frontier    *frontier.Frontier
	Fetcher     *fetcher.Fetcher
	Robots      *fetcher.RobotsCache
	Parser      parser.Parser
	Processor   processor.Processor
	Store       *store.Store
	Recorder    *telemetry.Recorder
	Coordinator *telemetry.Coordinator
	Log         logger.Interface
}

// Worker is one crawl loop. Run drives it until the swarm agrees the
// frontier is exhausted, the context is cancelled, or an unrecoverable
// error aborts it.
type Worker struct {
	name     string
	deps     Deps
	opts     Options
	log      logger.Interface
	counters domain.Counters
	started  time.Time
}

// NewWorker creates a named worker.
func NewWorker(name string, deps Deps, opts Options) *Worker {
	return &Worker{
		name: name,
		deps: deps,
		opts: opts,
		log:  deps.Log.WithWorker(name),
	}
}

// Run executes the worker loop. It returns nil when the swarm finished
// the frontier, ctx.Err() on cancellation, and the underlying error when
// the worker aborted.
func (w *Worker) Run(ctx context.Context) error {
	w.started = time.Now()
	w.deps.Recorder.Event(ctx, w.name, telemetry.LabelThreadStarted, "")

	// Start WAITING and hold off before the first queue check. At startup
	// only one item may exist and no peer has published RUNNING yet; a
	// worker racing ahead would see an empty queue, count zero running
	// peers and finish before the seed page is even parsed.
	w.publish(ctx, domain.WorkerStatusWaiting)
	select {
	case <-ctx.Done():
	case <-time.After(idleMin + rand.N(idleJitter)):
	}

	for {
		if ctx.Err() != nil {
			return w.interrupt(ctx)
		}

		item, err := w.deps.Frontier.Next(ctx)
		if errors.Is(err, frontier.ErrQueueEmpty) {
			done, idleErr := w.idle(ctx)
			if idleErr != nil {
				return w.abort(ctx, idleErr)
			}
			if done {
				return nil
			}
			continue
		}
		if err != nil {
			return w.abort(ctx, err)
		}

		// Published before processing so idle peers count this worker.
		w.publish(ctx, domain.WorkerStatusRunning)

		if procErr := w.processItem(ctx, item); procErr != nil {
			if errors.Is(procErr, context.Canceled) || errors.Is(procErr, context.DeadlineExceeded) {
				return w.interrupt(ctx)
			}
			return w.abort(ctx, procErr)
		}
	}
}

// idle handles an empty queue: publish WAITING, finish if no peer is
// running, otherwise sleep with jitter and report not-done.
func (w *Worker) idle(ctx context.Context) (bool, error) {
	w.publish(ctx, domain.WorkerStatusWaiting)

	running, err := w.deps.Coordinator.AnyRunning(ctx)
	if err != nil {
		return false, err
	}
	if !running {
		w.deps.Recorder.Event(ctx, w.name, telemetry.LabelThreadFinished,
			fmt.Sprintf("parsed=%d added=%d downloaded=%d", w.counters.Parsed, w.counters.Added, w.counters.Downloaded))
		w.publish(ctx, domain.WorkerStatusFinished)
		return true, nil
	}

	select {
	case <-ctx.Done():
		return false, nil
	case <-time.After(idleMin + rand.N(idleJitter)):
	}

	return false, nil
}

// processItem takes one pending item through the depth gate, robots
// check, fetch, and MIME routing. Errors returned here abort the worker;
// per-URL failures are handled via retry or discard.
func (w *Worker) processItem(ctx context.Context, item *domain.PendingItem) error {
	w.deps.Recorder.Event(ctx, w.name, telemetry.LabelProcessURL, item.Resource.URL)

	if !w.deps.Robots.Allowed(ctx, item.Resource.URL) {
		w.deps.Recorder.Event(ctx, w.name, telemetry.LabelDisallowed, item.Resource.URL)
		return w.deps.Frontier.Discard(ctx, item)
	}

	result := w.deps.Fetcher.Fetch(ctx, item.Resource.URL)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if result.Code != nil {
		if err := w.deps.Frontier.MarkFetched(ctx, item, *result.Code); err != nil {
			return err
		}
	}

	if !result.OK() {
		return w.retry(ctx, item, result)
	}

	switch result.MIME {
	case mimeHTML:
		// The depth gate applies to link expansion only: a document at the
		// limit is still harvested, a page there is just not parsed.
		if w.opts.MaxDepth > 0 && item.Depth >= w.opts.MaxDepth {
			w.deps.Recorder.Event(ctx, w.name, telemetry.LabelMaxDepthReached, item.Resource.URL)
			return w.deps.Frontier.Discard(ctx, item)
		}
		return w.handlePage(ctx, item, result)
	case mimePDF:
		return w.handleDocument(ctx, item, result)
	default:
		w.counters.Parsed++
		w.deps.Recorder.Event(ctx, w.name, telemetry.LabelDiscarded,
			fmt.Sprintf("%s (%s)", item.Resource.URL, result.MIME))
		return w.deps.Frontier.Discard(ctx, item)
	}
}

// retry handles a failed fetch: the item is re-queued at half priority or,
// at the retry cap, dropped for good.
func (w *Worker) retry(ctx context.Context, item *domain.PendingItem, result fetcher.Result) error {
	dropped, err := w.deps.Frontier.DiscardOrRetry(ctx, item)
	if err != nil {
		return err
	}

	detail := "unreachable"
	if result.Code != nil {
		detail = fmt.Sprintf("status %d", *result.Code)
	}
	if dropped {
		detail += ", retries exhausted"
	}
	w.deps.Recorder.Error(ctx, w.name, telemetry.LabelError,
		fmt.Sprintf("%s: %s", item.Resource.URL, detail))

	return nil
}

// handlePage decodes and parses an HTML response and admits the links it
// found, then retires the item.
func (w *Worker) handlePage(ctx context.Context, item *domain.PendingItem, result fetcher.Result) error {
	title, links := w.deps.Parser.Parse(decode(result.Body, result.Encoding))

	candidates := make([]frontier.Candidate, 0, len(links))
	for _, link := range links {
		candidates = append(candidates, frontier.Candidate{
			URL:      link.URL,
			Text:     link.Text,
			Priority: link.Priority,
		})
	}

	added, rejected, err := w.deps.Frontier.AddList(ctx, item, title, candidates)
	if err != nil {
		return err
	}

	w.counters.Parsed++
	w.counters.Added += added

	w.deps.Recorder.Event(ctx, w.name, telemetry.LabelProcessedOK,
		fmt.Sprintf("%s: %d added, %d rejected", item.Resource.URL, added, rejected))

	return w.deps.Frontier.Discard(ctx, item)
}

// handleDocument scores a fetched document and stores it. A processing
// failure is terminal for the URL: the content was fetched, so the error
// is recorded and the item retired rather than retried.
func (w *Worker) handleDocument(ctx context.Context, item *domain.PendingItem, result fetcher.Result) error {
	relevancy, metadata, err := w.deps.Processor.Process(result.Body, result.MIME)
	if err != nil {
		w.deps.Recorder.Error(ctx, w.name, telemetry.LabelError,
			fmt.Sprintf("%s: %v", item.Resource.URL, err))
		return w.deps.Frontier.Discard(ctx, item)
	}

	accepted := relevancy >= w.opts.MinRelevancy

	if _, saveErr := w.deps.Store.Save(ctx, item, result, relevancy, metadata, accepted); saveErr != nil {
		return saveErr
	}

	w.counters.Parsed++

	if accepted {
		w.counters.Downloaded++
		w.deps.Recorder.Event(ctx, w.name, telemetry.LabelDownloaded,
			fmt.Sprintf("%s: relevancy %.1f", item.Resource.URL, relevancy))
	} else {
		w.deps.Recorder.Event(ctx, w.name, telemetry.LabelDiscarded,
			fmt.Sprintf("%s: relevancy %.1f below threshold", item.Resource.URL, relevancy))
	}

	return w.deps.Frontier.Discard(ctx, item)
}

// interrupt publishes the cancelled terminal state and surfaces ctx.Err().
func (w *Worker) interrupt(ctx context.Context) error {
	w.publish(context.WithoutCancel(ctx), domain.WorkerStatusInterrupted)
	return ctx.Err()
}

// abort records the failure, publishes ABORTED and returns err.
func (w *Worker) abort(ctx context.Context, err error) error {
	ctx = context.WithoutCancel(ctx)
	w.deps.Recorder.Error(ctx, w.name, telemetry.LabelThreadAborted, err.Error())
	w.publish(ctx, domain.WorkerStatusAborted)

	return err
}

// publish writes this worker's status heartbeat. Failures are logged and
// swallowed; a missed heartbeat must not kill the worker.
func (w *Worker) publish(ctx context.Context, status string) {
	err := w.deps.Coordinator.Publish(ctx, w.name, status, time.Since(w.started).Milliseconds(), w.counters)
	if err != nil {
		w.log.Warn("Failed to publish status", "status", status, "error", err)
	}
}
