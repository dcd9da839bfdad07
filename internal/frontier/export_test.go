package frontier

import "github.com/jonesrussell/pdfcrawl/internal/database"

// Snapshot exposes the cached queue for ordering assertions in tests.
func (f *Frontier) Snapshot() []database.QueueEntry {
	return f.snapshot()
}
