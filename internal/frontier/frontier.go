package frontier

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonesrussell/pdfcrawl/internal/database"
	"github.com/jonesrussell/pdfcrawl/internal/domain"
	"github.com/jonesrussell/pdfcrawl/internal/logger"
)

// Options configures frontier behavior.
type Options struct {
	// AllDomains admits URLs from any authority. When false, a discovered
	// URL must share its referrer's authority.
	AllDomains bool

	// Retries is the retry cap: an item failing its Retries-th fetch is
	// dropped instead of re-queued.
	Retries int
}

// Candidate is a link discovered on a page, offered for admission.
type Candidate struct {
	URL      string
	Text     *string
	Priority *int
}

// Frontier is the process-wide pending queue. It owns an ordered in-memory
// cache of (id, priority) pairs (the pop order), a set of every URL ever
// admitted (the dedup index), and the pending/resources/links tables.
//
// A single mutex guards the cache, the URL set, and every database write
// issued by frontier methods. The backing store is a single-writer
// embedded file; correctness dominates throughput here.
type Frontier struct {
	mu    sync.Mutex
	queue []database.QueueEntry
	urls  map[string]struct{}

	resources *database.ResourceRepository
	pending   *database.PendingRepository
	links     *database.LinkRepository

	opts Options
	log  logger.Interface
}

// New builds a frontier over db and primes the in-memory indexes from the
// pending and resources tables, so a restarted process resumes where the
// previous one stopped.
func New(ctx context.Context, db *sqlx.DB, opts Options, log logger.Interface) (*Frontier, error) {
	f := &Frontier{
		urls:      make(map[string]struct{}),
		resources: database.NewResourceRepository(db),
		pending:   database.NewPendingRepository(db),
		links:     database.NewLinkRepository(db),
		opts:      opts,
		log:       log.WithComponent("frontier"),
	}

	queue, err := f.pending.ListQueue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending queue: %w", err)
	}
	f.queue = queue

	urls, err := f.resources.ListURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load url set: %w", err)
	}
	for _, u := range urls {
		f.urls[u] = struct{}{}
	}

	return f, nil
}

// Len returns the current cached queue length.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.queue)
}

// Next pops the head of the cached queue and loads the full pending item.
// The database row is not deleted here; deletion happens in Discard or
// DiscardOrRetry, so an in-flight item survives a process crash.
// Returns ErrQueueEmpty when the cache is empty.
func (f *Frontier) Next(ctx context.Context) (*domain.PendingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for len(f.queue) > 0 {
		head := f.queue[0]
		f.queue = f.queue[1:]

		item, err := f.pending.GetByID(ctx, head.ID)
		if errors.Is(err, database.ErrNotFound) {
			// Row removed behind the cache entry; skip to the next one.
			continue
		}
		if err != nil {
			return nil, err
		}

		return item, nil
	}

	return nil, ErrQueueEmpty
}

// Add admits a URL into the frontier.
//
// The URL is normalized (resolved against the referrer when present) and
// validated, and the base-domain gate is applied. If the URL was never
// seen, a resource and a pending item are created. If it was seen but has
// no pending item (already processed), a fresh pending item is created for
// the existing resource. If a pending item exists, its priority is raised
// when the new priority is higher; depth keeps its first-discovery value.
//
// Returns the pending item and whether it is new in the queue.
func (f *Frontier) Add(
	ctx context.Context,
	rawURL string,
	title *string,
	referrer *domain.PendingItem,
	priority *int,
) (*domain.PendingItem, bool, error) {
	var base *url.URL
	if referrer != nil {
		parsed, err := url.Parse(referrer.Resource.URL)
		if err != nil {
			return nil, false, fmt.Errorf("referrer url %q: %w", referrer.Resource.URL, ErrMalformedURL)
		}
		base = parsed
	}

	norm, err := Normalize(rawURL, base)
	if err != nil {
		return nil, false, err
	}

	if !f.opts.AllDomains && referrer != nil {
		refAuthority, authErr := Authority(referrer.Resource.URL)
		if authErr != nil {
			return nil, false, authErr
		}
		authority, authErr := Authority(norm)
		if authErr != nil {
			return nil, false, authErr
		}
		if authority != refAuthority {
			return nil, false, fmt.Errorf("url %q: %w", norm, ErrNotInBaseDomain)
		}
	}

	depth := 0
	if referrer != nil {
		depth = referrer.Depth + 1
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, seen := f.urls[norm]; seen {
		return f.addSeen(ctx, norm, depth, priority)
	}

	res := &domain.Resource{URL: norm, Title: title}
	if createErr := f.resources.Create(ctx, res); createErr != nil {
		return nil, false, createErr
	}

	item, createErr := f.createPending(ctx, res, depth, priority)
	if createErr != nil {
		return nil, false, createErr
	}
	f.urls[norm] = struct{}{}

	return item, true, nil
}

// addSeen handles admission of a URL already present in the dedup set.
// Caller holds the mutex.
func (f *Frontier) addSeen(ctx context.Context, norm string, depth int, priority *int) (*domain.PendingItem, bool, error) {
	res, err := f.resources.GetByURL(ctx, norm)
	if err != nil {
		return nil, false, err
	}

	existing, err := f.pending.GetByResourceID(ctx, res.ID)
	if errors.Is(err, database.ErrNotFound) {
		// Already processed once; queue it again against the same resource.
		item, createErr := f.createPending(ctx, res, depth, priority)
		if createErr != nil {
			return nil, false, createErr
		}
		return item, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	// Raise priority when the rediscovery carries a higher one. Depth is
	// never recomputed: first discovery wins.
	if priority != nil && (existing.Priority == nil || *priority > *existing.Priority) {
		if updateErr := f.pending.UpdatePriority(ctx, existing.ID, priority); updateErr != nil {
			return nil, false, updateErr
		}
		existing.Priority = priority
		f.insert(database.QueueEntry{ID: existing.ID, Priority: priority})
	}

	return existing, false, nil
}

// createPending inserts a pending row for res and places it in the cached
// queue. Caller holds the mutex.
func (f *Frontier) createPending(ctx context.Context, res *domain.Resource, depth int, priority *int) (*domain.PendingItem, error) {
	item := &domain.PendingItem{
		Priority:   priority,
		ResourceID: res.ID,
		Depth:      depth,
		Resource:   *res,
	}
	if err := f.pending.Create(ctx, item); err != nil {
		return nil, err
	}
	f.insert(database.QueueEntry{ID: item.ID, Priority: priority})

	return item, nil
}

// AddList applies the referrer's page title to its resource, then admits
// each candidate link, recording a link edge per admitted URL. Candidates
// failing URL validation or the domain gate are counted as rejected.
// Returns (added, rejected).
func (f *Frontier) AddList(
	ctx context.Context,
	referrer *domain.PendingItem,
	title *string,
	candidates []Candidate,
) (added, rejected int, err error) {
	if title != nil {
		f.mu.Lock()
		updateErr := f.resources.UpdateTitle(ctx, referrer.ResourceID, *title)
		f.mu.Unlock()
		if updateErr != nil {
			return 0, 0, updateErr
		}
	}

	for _, c := range candidates {
		item, isNew, addErr := f.Add(ctx, c.URL, c.Text, referrer, c.Priority)
		if addErr != nil {
			if errors.Is(addErr, ErrMalformedURL) || errors.Is(addErr, ErrNotInBaseDomain) {
				rejected++
				continue
			}
			return added, rejected, addErr
		}

		f.mu.Lock()
		linkErr := f.links.Create(ctx, &domain.Link{
			Text:       c.Text,
			ReferrerID: referrer.ResourceID,
			TargetID:   item.ResourceID,
		})
		f.mu.Unlock()
		if linkErr != nil {
			return added, rejected, linkErr
		}

		if isNew {
			added++
		}
	}

	return added, rejected, nil
}

// MarkFetched records the response code and fetch time on item's resource.
func (f *Frontier) MarkFetched(ctx context.Context, item *domain.PendingItem, code int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.resources.UpdateFetched(ctx, item.ResourceID, code, time.Now())
}

// Discard deletes the pending row for item: the successful terminal state.
func (f *Frontier) Discard(ctx context.Context, item *domain.PendingItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.pending.Delete(ctx, item.ID)
}

// DiscardOrRetry handles a failed fetch. When the retry cap is reached the
// item is deleted and true is returned. Otherwise the retry count is
// incremented, a non-null priority is halved so the item drifts toward the
// back of its band, and the item is re-inserted into the cached queue.
func (f *Frontier) DiscardOrRetry(ctx context.Context, item *domain.PendingItem) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if item.Retries+1 >= f.opts.Retries {
		if err := f.pending.Delete(ctx, item.ID); err != nil {
			return false, err
		}
		return true, nil
	}

	if item.Priority != nil {
		half := *item.Priority / 2
		item.Priority = &half
	}
	item.Retries++

	if err := f.pending.UpdateRetry(ctx, item.ID, item.Retries, item.Priority); err != nil {
		return false, err
	}
	f.insert(database.QueueEntry{ID: item.ID, Priority: item.Priority})

	return false, nil
}

// Clear wipes the cached queue and the pending table. Used when a new seed
// replaces the existing frontier. Returns the number of cached entries
// dropped.
func (f *Frontier) Clear(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.queue)
	f.queue = nil

	if _, err := f.pending.DeleteAll(ctx); err != nil {
		return 0, err
	}

	return n, nil
}

// insert places e into the cached queue: null priority appends to the
// tail; otherwise e goes before the first entry whose priority is null or
// strictly lower, and any prior entry with the same id is dropped
// (re-insertion after a priority change). Caller holds the mutex.
func (f *Frontier) insert(e database.QueueEntry) {
	if e.Priority == nil {
		f.queue = append(f.queue, e)
		return
	}

	next := make([]database.QueueEntry, 0, len(f.queue)+1)
	inserted := false
	for _, cur := range f.queue {
		if !inserted && (cur.Priority == nil || *cur.Priority < *e.Priority) {
			next = append(next, e)
			inserted = true
		}
		if cur.ID != e.ID {
			next = append(next, cur)
		}
	}
	if !inserted {
		next = append(next, e)
	}
	f.queue = next
}

// snapshot returns a copy of the cached queue. Used by tests to assert
// ordering invariants.
func (f *Frontier) snapshot() []database.QueueEntry {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]database.QueueEntry, len(f.queue))
	copy(out, f.queue)
	return out
}
