package domain

import "time"

// Worker status constants. A worker moves WAITING -> RUNNING, oscillates
// between the two while the queue drains, and ends in exactly one of
// FINISHED, INTERRUPTED or ABORTED.
const (
	WorkerStatusWaiting     = "WAITING"
	WorkerStatusRunning     = "RUNNING"
	WorkerStatusInterrupted = "INTERRUPTED"
	WorkerStatusAborted     = "ABORTED"
	WorkerStatusFinished    = "FINISHED"
)

// WorkerStatus is the per-worker heartbeat row. Each worker owns its own
// row, keyed by worker name; the table is truncated at process start.
type WorkerStatus struct {
	ID          int64     `db:"id"`
	Worker      string    `db:"thread"`
	Status      string    `db:"status"`
	RunningTime int64     `db:"running_time"`
	Parsed      int       `db:"parsed"`
	Added       int       `db:"added"`
	Downloaded  int       `db:"downloaded"`
	Timestamp   time.Time `db:"timestamp"`
}

// Counters aggregates the per-worker progress counters published with
// every status heartbeat.
type Counters struct {
	Parsed     int
	Added      int
	Downloaded int
}
