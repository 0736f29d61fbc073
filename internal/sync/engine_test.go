package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steamsync/internal/reviews"
	"github.com/steamsync/internal/steam"
)

// scriptedSource replays a fixed sequence of pages, one per call, regardless
// of the cursor it is handed.
type scriptedSource struct {
	pages []steam.ReviewPage
	errs  map[int]error // call index -> error
	calls int
}

func (s *scriptedSource) FetchReviewPage(ctx context.Context, appID int64, cursor string) (steam.ReviewPage, error) {
	idx := s.calls
	s.calls++
	if err, ok := s.errs[idx]; ok {
		return steam.ReviewPage{}, err
	}
	if idx >= len(s.pages) {
		return steam.ReviewPage{}, nil
	}
	return s.pages[idx], nil
}

func ptr[T any](v T) *T { return &v }

func item(id string, created, updated int64) steam.ReviewItem {
	return steam.ReviewItem{
		RecommendationID: id,
		Author:           &steam.Author{SteamID: "author-" + id},
		Review:           ptr("review text for " + id),
		TimestampCreated: &created,
		TimestampUpdated: &updated,
		VotedUp:          ptr(true),
	}
}

func newTestEngine(source Source, store reviews.Store) *Engine {
	e := NewEngine(source, store)
	e.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return e
}

func seedReview(t *testing.T, store reviews.Store, gameID int64, steamID string, updatedSecs int64, removed bool) {
	t.Helper()
	rev := &reviews.Review{
		SteamID:          steamID,
		GameID:           gameID,
		Recommended:      true,
		Content:          "seeded " + steamID,
		TimestampCreated: time.Unix(500, 0).UTC(),
		Removed:          removed,
		CreatedAt:        time.Unix(600, 0).UTC(),
		UpdatedAt:        time.Unix(600, 0).UTC(),
	}
	if updatedSecs > 0 {
		rev.TimestampUpdated = time.Unix(updatedSecs, 0).UTC()
	}
	require.NoError(t, store.BatchCreate(context.Background(), []*reviews.Review{rev}))
}

func TestRun_CreatesReviewsAndSweepsStale(t *testing.T) {
	store := reviews.NewInMemoryStore()
	seedReview(t, store, 1, "stale", 1000, false)

	source := &scriptedSource{pages: []steam.ReviewPage{
		{Reviews: []steam.ReviewItem{item("r1", 1000, 1000), item("r2", 1000, 1000)}},
	}}
	engine := newTestEngine(source, store)

	sum, err := engine.Run(context.Background(), 1, 570)
	require.NoError(t, err)

	want := Summary{Processed: 2, Created: 2, Updated: 0}
	if diff := cmp.Diff(want, sum); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}

	r1, err := store.FindBySteamID(context.Background(), "r1")
	require.NoError(t, err)
	assert.False(t, r1.Removed)
	assert.Equal(t, int64(1), r1.GameID)
	assert.Equal(t, "author-r1", r1.AuthorSteamID)

	stale, err := store.FindBySteamID(context.Background(), "stale")
	require.NoError(t, err)
	assert.True(t, stale.Removed, "reviews absent from the upstream feed must be soft-deleted")
}

func TestRun_SecondRunIsIdempotent(t *testing.T) {
	store := reviews.NewInMemoryStore()
	pages := []steam.ReviewPage{
		{Reviews: []steam.ReviewItem{item("a", 100, 200), item("b", 100, 150)}},
	}

	engine := newTestEngine(&scriptedSource{pages: pages}, store)
	_, err := engine.Run(context.Background(), 1, 570)
	require.NoError(t, err)

	engine = newTestEngine(&scriptedSource{pages: pages}, store)
	sum, err := engine.Run(context.Background(), 1, 570)
	require.NoError(t, err)

	assert.Equal(t, 0, sum.Created)
	assert.Equal(t, 0, sum.Updated)
	assert.Equal(t, 2, sum.Processed)
}

func TestRun_RemovalCorrectness(t *testing.T) {
	store := reviews.NewInMemoryStore()
	seedReview(t, store, 1, "A", 1000, false)
	seedReview(t, store, 1, "B", 1000, false)
	seedReview(t, store, 1, "C", 1000, false)

	source := &scriptedSource{pages: []steam.ReviewPage{
		{Reviews: []steam.ReviewItem{item("A", 500, 1000), item("C", 500, 1000)}},
	}}
	engine := newTestEngine(source, store)

	_, err := engine.Run(context.Background(), 1, 570)
	require.NoError(t, err)

	for id, wantRemoved := range map[string]bool{"A": false, "B": true, "C": false} {
		rev, err := store.FindBySteamID(context.Background(), id)
		require.NoError(t, err)
		assert.Equalf(t, wantRemoved, rev.Removed, "review %s removed flag", id)
	}
}

func TestRun_RevivesRemovedReview(t *testing.T) {
	store := reviews.NewInMemoryStore()
	seedReview(t, store, 1, "B", 1000, true)

	source := &scriptedSource{pages: []steam.ReviewPage{
		{Reviews: []steam.ReviewItem{item("B", 500, 1000)}},
	}}
	engine := newTestEngine(source, store)

	sum, err := engine.Run(context.Background(), 1, 570)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Updated)

	rev, err := store.FindBySteamID(context.Background(), "B")
	require.NoError(t, err)
	assert.False(t, rev.Removed, "a review that reappears upstream must be revived")
	assert.Equal(t, "review text for B", rev.Content)
}

func TestRun_EqualTimestampDoesNotUpdate(t *testing.T) {
	store := reviews.NewInMemoryStore()
	seedReview(t, store, 1, "A", 1000, false)

	source := &scriptedSource{pages: []steam.ReviewPage{
		{Reviews: []steam.ReviewItem{item("A", 500, 1000)}},
	}}
	engine := newTestEngine(source, store)

	sum, err := engine.Run(context.Background(), 1, 570)
	require.NoError(t, err)

	assert.Equal(t, 0, sum.Updated)
	assert.Equal(t, 1, sum.Processed)

	rev, err := store.FindBySteamID(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "seeded A", rev.Content, "content must be untouched on a timestamp tie")
}

func TestRun_NewerTimestampUpdates(t *testing.T) {
	store := reviews.NewInMemoryStore()
	seedReview(t, store, 1, "A", 1000, false)

	source := &scriptedSource{pages: []steam.ReviewPage{
		{Reviews: []steam.ReviewItem{item("A", 500, 2000)}},
	}}
	engine := newTestEngine(source, store)

	sum, err := engine.Run(context.Background(), 1, 570)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Updated)

	rev, err := store.FindBySteamID(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "review text for A", rev.Content)
	assert.Equal(t, time.Unix(2000, 0).UTC(), rev.TimestampUpdated)
}

func TestRun_MalformedItemIsSkipped(t *testing.T) {
	store := reviews.NewInMemoryStore()

	missingID := item("", 100, 100)
	page := steam.ReviewPage{Reviews: []steam.ReviewItem{item("ok1", 100, 100), missingID, item("ok2", 100, 100)}}
	engine := newTestEngine(&scriptedSource{pages: []steam.ReviewPage{page}}, store)

	sum, err := engine.Run(context.Background(), 1, 570)
	require.NoError(t, err, "a single malformed item must not fail the run")

	assert.Equal(t, 2, sum.Processed)
	assert.Equal(t, 2, sum.Created)
}

func TestRun_InvalidTimestampIsSkipped(t *testing.T) {
	store := reviews.NewInMemoryStore()

	bad := item("bad", 0, 100)
	page := steam.ReviewPage{Reviews: []steam.ReviewItem{bad, item("ok", 100, 100)}}
	engine := newTestEngine(&scriptedSource{pages: []steam.ReviewPage{page}}, store)

	sum, err := engine.Run(context.Background(), 1, 570)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Processed)
	_, err = store.FindBySteamID(context.Background(), "bad")
	assert.ErrorIs(t, err, reviews.ErrNotFound)
}

func TestRun_FollowsCursorChain(t *testing.T) {
	store := reviews.NewInMemoryStore()

	source := &scriptedSource{pages: []steam.ReviewPage{
		{Reviews: []steam.ReviewItem{item("p1", 100, 100)}, NextCursor: "cursor-2"},
		{Reviews: []steam.ReviewItem{item("p2", 100, 100)}, NextCursor: "cursor-3"},
		{Reviews: []steam.ReviewItem{item("p3", 100, 100)}},
	}}
	engine := newTestEngine(source, store)

	sum, err := engine.Run(context.Background(), 1, 570)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Created)
	assert.Equal(t, 3, source.calls)
}

func TestRun_EmptyPageStopsEvenWithCursor(t *testing.T) {
	store := reviews.NewInMemoryStore()
	seedReview(t, store, 1, "gone", 1000, false)

	source := &scriptedSource{pages: []steam.ReviewPage{
		{Reviews: []steam.ReviewItem{item("kept", 100, 100)}, NextCursor: "cursor-2"},
		{Reviews: nil, NextCursor: "cursor-3"},
	}}
	engine := newTestEngine(source, store)

	sum, err := engine.Run(context.Background(), 1, 570)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, 2, source.calls, "the zero-item page terminates the traversal")

	gone, err := store.FindBySteamID(context.Background(), "gone")
	require.NoError(t, err)
	assert.True(t, gone.Removed, "the sweep still runs after early termination")
}

func TestRun_FetchFailureAbortsBeforeSweep(t *testing.T) {
	store := reviews.NewInMemoryStore()
	seedReview(t, store, 1, "stale", 1000, false)

	source := &scriptedSource{
		pages: []steam.ReviewPage{
			{Reviews: []steam.ReviewItem{item("p1", 100, 100)}, NextCursor: "cursor-2"},
		},
		errs: map[int]error{1: errors.New("operation failed after 3 attempts: connection reset")},
	}
	engine := newTestEngine(source, store)

	_, err := engine.Run(context.Background(), 1, 570)
	require.Error(t, err)

	// Partial progress stays persisted; the sweep never ran.
	p1, err := store.FindBySteamID(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, p1.Removed)

	stale, err := store.FindBySteamID(context.Background(), "stale")
	require.NoError(t, err)
	assert.False(t, stale.Removed, "the sweep must not run after an aborted traversal")
}
