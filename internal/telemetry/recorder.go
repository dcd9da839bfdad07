// Package telemetry records crawl events into the log database and
// tracks worker liveness for the collective termination protocol.
package telemetry

import (
	"context"
	"sync"

	"github.com/jonesrussell/pdfcrawl/internal/database"
	"github.com/jonesrussell/pdfcrawl/internal/logger"
)

// Well-known event labels. Labels are seeded into the message catalog at
// startup so log entries can reference them by name.
const (
	LabelDebug           = "DEBUG"
	LabelError           = "ERROR"
	LabelProcessURL      = "PROCESS_URL"
	LabelMaxDepthReached = "MAX_DEPTH_REACHED"
	LabelProcessedOK     = "PROCESSED_OK"
	LabelDisallowed      = "DISALLOWED"
	LabelDiscarded       = "DISCARDED"
	LabelThreadStarted   = "THREAD_STARTED"
	LabelThreadFinished  = "THREAD_FINISHED"
	LabelThreadAborted   = "THREAD_ABORTED"
	LabelDownloaded      = "DOWNLOADED"
)

// Labels lists every event label the recorder seeds at startup.
func Labels() []string {
	return []string{
		LabelDebug,
		LabelError,
		LabelProcessURL,
		LabelMaxDepthReached,
		LabelProcessedOK,
		LabelDisallowed,
		LabelDiscarded,
		LabelThreadStarted,
		LabelThreadFinished,
		LabelThreadAborted,
		LabelDownloaded,
	}
}

// Recorder writes labelled crawl events to the log database and mirrors
// them to the structured logger. Recording failures are logged and
// swallowed: telemetry must never stall a worker.
type Recorder struct {
	mu   sync.Mutex
	logs *database.LogRepository
	log  logger.Interface
}

// NewRecorder seeds the message catalog and returns a ready recorder.
func NewRecorder(ctx context.Context, logs *database.LogRepository, log logger.Interface) (*Recorder, error) {
	if err := logs.SeedMessages(ctx, Labels()); err != nil {
		return nil, err
	}

	return &Recorder{logs: logs, log: log}, nil
}

// Event records an informational event for a worker.
func (r *Recorder) Event(ctx context.Context, worker, label, text string) {
	r.record(ctx, "INFO", worker, label, text)
	r.log.Info(label, "worker", worker, "detail", text)
}

// Error records an error-level event for a worker.
func (r *Recorder) Error(ctx context.Context, worker, label, text string) {
	r.record(ctx, "ERROR", worker, label, text)
	r.log.Error(label, "worker", worker, "detail", text)
}

func (r *Recorder) record(ctx context.Context, level, worker, label, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.logs.Insert(ctx, level, label, text, worker); err != nil {
		r.log.Warn("Failed to record event", "label", label, "error", err)
	}
}
