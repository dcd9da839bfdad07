package frontier_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/pdfcrawl/internal/database"
	"github.com/jonesrussell/pdfcrawl/internal/frontier"
	"github.com/jonesrussell/pdfcrawl/internal/logger"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db, false))

	return db
}

func newFrontier(t *testing.T, db *sqlx.DB, opts frontier.Options) *frontier.Frontier {
	t.Helper()

	f, err := frontier.New(context.Background(), db, opts, logger.NewNoOp())
	require.NoError(t, err)

	return f
}

func intPtr(v int) *int { return &v }

func TestAddAndNext(t *testing.T) {
	ctx := context.Background()
	f := newFrontier(t, newTestDB(t), frontier.Options{Retries: 3})

	item, isNew, err := f.Add(ctx, "http://example.com/", nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, 0, item.Depth)
	assert.Equal(t, 1, f.Len())

	got, err := f.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, "http://example.com/", got.Resource.URL)
	assert.Equal(t, 0, f.Len())

	_, err = f.Next(ctx)
	assert.ErrorIs(t, err, frontier.ErrQueueEmpty)
}

func TestAddDeduplicates(t *testing.T) {
	ctx := context.Background()
	f := newFrontier(t, newTestDB(t), frontier.Options{Retries: 3})

	first, isNew, err := f.Add(ctx, "http://example.com/a", nil, nil, nil)
	require.NoError(t, err)
	require.True(t, isNew)

	// Same URL spelled differently still maps to the same resource.
	second, isNew, err := f.Add(ctx, "HTTP://EXAMPLE.com/a#frag", nil, nil, nil)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.Len())
}

func TestAddEnforcesBaseDomain(t *testing.T) {
	ctx := context.Background()
	f := newFrontier(t, newTestDB(t), frontier.Options{Retries: 3})

	seed, _, err := f.Add(ctx, "http://example.com/", nil, nil, nil)
	require.NoError(t, err)

	_, _, err = f.Add(ctx, "http://other.org/page", nil, seed, nil)
	assert.ErrorIs(t, err, frontier.ErrNotInBaseDomain)

	child, isNew, err := f.Add(ctx, "http://example.com/page", nil, seed, nil)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, 1, child.Depth)
}

func TestAddAllDomains(t *testing.T) {
	ctx := context.Background()
	f := newFrontier(t, newTestDB(t), frontier.Options{AllDomains: true, Retries: 3})

	seed, _, err := f.Add(ctx, "http://example.com/", nil, nil, nil)
	require.NoError(t, err)

	_, isNew, err := f.Add(ctx, "http://other.org/page", nil, seed, nil)
	require.NoError(t, err)
	assert.True(t, isNew)
}

func TestPopOrdering(t *testing.T) {
	ctx := context.Background()
	f := newFrontier(t, newTestDB(t), frontier.Options{AllDomains: true, Retries: 3})

	urls := []struct {
		url      string
		priority *int
	}{
		{"http://a.com/", intPtr(5)},
		{"http://b.com/", nil},
		{"http://c.com/", intPtr(10)},
		{"http://d.com/", nil},
		{"http://e.com/", intPtr(7)},
	}
	for _, u := range urls {
		_, _, err := f.Add(ctx, u.url, nil, nil, u.priority)
		require.NoError(t, err)
	}

	var order []string
	for {
		item, err := f.Next(ctx)
		if err != nil {
			require.ErrorIs(t, err, frontier.ErrQueueEmpty)
			break
		}
		order = append(order, item.Resource.URL)
	}

	// Priorities descending, then null priorities in insertion order.
	assert.Equal(t, []string{
		"http://c.com/",
		"http://e.com/",
		"http://a.com/",
		"http://b.com/",
		"http://d.com/",
	}, order)
}

func TestRediscoveryRaisesPriority(t *testing.T) {
	ctx := context.Background()
	f := newFrontier(t, newTestDB(t), frontier.Options{AllDomains: true, Retries: 3})

	low, _, err := f.Add(ctx, "http://a.com/", nil, nil, intPtr(5))
	require.NoError(t, err)
	_, _, err = f.Add(ctx, "http://top.com/", nil, nil, intPtr(20))
	require.NoError(t, err)

	// Rediscovery with a higher priority moves the item up.
	raised, isNew, err := f.Add(ctx, "http://a.com/", nil, nil, intPtr(30))
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, low.ID, raised.ID)
	require.NotNil(t, raised.Priority)
	assert.Equal(t, 30, *raised.Priority)

	// A later, lower priority never demotes it.
	kept, _, err := f.Add(ctx, "http://a.com/", nil, nil, intPtr(1))
	require.NoError(t, err)
	require.NotNil(t, kept.Priority)
	assert.Equal(t, 30, *kept.Priority)

	snapshot := f.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, low.ID, snapshot[0].ID)
}

func TestRediscoveryKeepsDepth(t *testing.T) {
	ctx := context.Background()
	f := newFrontier(t, newTestDB(t), frontier.Options{Retries: 3})

	seed, _, err := f.Add(ctx, "http://example.com/", nil, nil, nil)
	require.NoError(t, err)
	child, _, err := f.Add(ctx, "http://example.com/a", nil, seed, nil)
	require.NoError(t, err)
	require.Equal(t, 1, child.Depth)

	// Rediscovered through a longer path: depth keeps its first value.
	deeper, _, err := f.Add(ctx, "http://example.com/b", nil, child, nil)
	require.NoError(t, err)
	require.Equal(t, 2, deeper.Depth)

	again, isNew, err := f.Add(ctx, "http://example.com/a", nil, deeper, nil)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, 1, again.Depth)
}

func TestAddListCountsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFrontier(t, newTestDB(t), frontier.Options{Retries: 3})

	seed, _, err := f.Add(ctx, "http://example.com/", nil, nil, nil)
	require.NoError(t, err)

	added, rejected, err := f.AddList(ctx, seed, nil, []frontier.Candidate{
		{URL: "page.html"},
		{URL: "mailto:nobody@example.com"},
		{URL: "http://elsewhere.org/x"},
		{URL: "page.html"}, // duplicate: neither added nor rejected
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, 2, rejected)
}

func TestDiscardOrRetry(t *testing.T) {
	ctx := context.Background()
	f := newFrontier(t, newTestDB(t), frontier.Options{Retries: 3})

	_, _, err := f.Add(ctx, "http://example.com/", nil, nil, intPtr(8))
	require.NoError(t, err)
	popped, err := f.Next(ctx)
	require.NoError(t, err)

	// First failure: retried, priority halved.
	dropped, err := f.DiscardOrRetry(ctx, popped)
	require.NoError(t, err)
	assert.False(t, dropped)
	assert.Equal(t, 1, popped.Retries)
	require.NotNil(t, popped.Priority)
	assert.Equal(t, 4, *popped.Priority)
	assert.Equal(t, 1, f.Len())

	// Second failure.
	popped, err = f.Next(ctx)
	require.NoError(t, err)
	dropped, err = f.DiscardOrRetry(ctx, popped)
	require.NoError(t, err)
	assert.False(t, dropped)
	assert.Equal(t, 2, *popped.Priority)

	// Third failure hits the cap: the item is gone for good.
	popped, err = f.Next(ctx)
	require.NoError(t, err)
	dropped, err = f.DiscardOrRetry(ctx, popped)
	require.NoError(t, err)
	assert.True(t, dropped)
	assert.Equal(t, 0, f.Len())
}

func TestDiscardIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFrontier(t, newTestDB(t), frontier.Options{Retries: 3})

	_, _, err := f.Add(ctx, "http://example.com/", nil, nil, nil)
	require.NoError(t, err)
	item, err := f.Next(ctx)
	require.NoError(t, err)

	require.NoError(t, f.Discard(ctx, item))
	require.NoError(t, f.Discard(ctx, item))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	f := newFrontier(t, newTestDB(t), frontier.Options{AllDomains: true, Retries: 3})

	for _, u := range []string{"http://a.com/", "http://b.com/"} {
		_, _, err := f.Add(ctx, u, nil, nil, nil)
		require.NoError(t, err)
	}

	dropped, err := f.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, 0, f.Len())

	// Cleared URLs stay in the dedup set; re-adding queues them again
	// against their existing resources.
	_, isNew, err := f.Add(ctx, "http://a.com/", nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, isNew)
}

func TestPersistenceAcrossRestart(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	f1 := newFrontier(t, db, frontier.Options{AllDomains: true, Retries: 3})
	_, _, err := f1.Add(ctx, "http://a.com/", nil, nil, intPtr(3))
	require.NoError(t, err)
	_, _, err = f1.Add(ctx, "http://b.com/", nil, nil, intPtr(9))
	require.NoError(t, err)

	// A second frontier over the same database resumes with the same queue,
	// in the same pop order, and remembers every admitted URL.
	f2 := newFrontier(t, db, frontier.Options{AllDomains: true, Retries: 3})
	assert.Equal(t, 2, f2.Len())

	item, err := f2.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://b.com/", item.Resource.URL)

	_, isNew, err := f2.Add(ctx, "http://a.com/", nil, nil, nil)
	require.NoError(t, err)
	assert.False(t, isNew)
}

func TestNextSkipsRowsDeletedBehindCache(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	f := newFrontier(t, db, frontier.Options{AllDomains: true, Retries: 3})

	first, _, err := f.Add(ctx, "http://a.com/", nil, nil, intPtr(9))
	require.NoError(t, err)
	_, _, err = f.Add(ctx, "http://b.com/", nil, nil, intPtr(5))
	require.NoError(t, err)

	// Remove the head's row without touching the cache; Next must skip it.
	require.NoError(t, database.NewPendingRepository(db).Delete(ctx, first.ID))

	item, err := f.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://b.com/", item.Resource.URL)
}
