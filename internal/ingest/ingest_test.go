package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habotlola-gif/poizon-bot/internal/models"
)

const channelID = int64(-100500)

type memCatalog struct {
	mu       sync.Mutex
	products map[int64]models.Product
	attempts int
}

func newMemCatalog() *memCatalog {
	return &memCatalog{products: make(map[int64]models.Product)}
}

func (m *memCatalog) InsertIfNew(p models.Product) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if _, ok := m.products[p.SourcePostID]; ok {
		return false, nil
	}
	m.products[p.SourcePostID] = p
	return true, nil
}

func (m *memCatalog) Count() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.products), nil
}

type memNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (n *memNotifier) NotifyAdmin(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
}

func (n *memNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.texts)
}

type fixedSource struct {
	posts []Post
}

func (s *fixedSource) Recent(_ context.Context, limit int) ([]Post, error) {
	if limit > len(s.posts) {
		limit = len(s.posts)
	}
	return s.posts[:limit], nil
}

func post(id int64) Post {
	return Post{
		ID:        id,
		ChannelID: channelID,
		Caption:   "Nike Dunk Low\n7200₽ в наличии",
		PhotoID:   "photo-1",
	}
}

func newTestIngestor(catalog Catalog, notifier Notifier, interval time.Duration) *Ingestor {
	return New(catalog, notifier, channelID, interval, zerolog.Nop())
}

func TestHandlePostInserts(t *testing.T) {
	catalog := newMemCatalog()
	notifier := &memNotifier{}
	g := newTestIngestor(catalog, notifier, time.Minute)

	g.HandlePost(post(1))

	n, _ := catalog.Count()
	assert.Equal(t, 1, n)
	require.Equal(t, 1, notifier.count())
	assert.Contains(t, notifier.texts[0], "Nike Dunk Low")
	assert.Contains(t, notifier.texts[0], "Catalog size: 1")

	p := catalog.products[1]
	assert.Equal(t, "7200", p.Price)
	assert.Equal(t, models.CategoryShoes, p.Category)
	assert.Equal(t, "photo-1", p.PhotoID)
}

func TestHandlePostIdempotent(t *testing.T) {
	catalog := newMemCatalog()
	notifier := &memNotifier{}
	g := newTestIngestor(catalog, notifier, time.Minute)

	g.HandlePost(post(1))
	g.HandlePost(post(1))

	n, _ := catalog.Count()
	assert.Equal(t, 1, n)
	// no second notification for a duplicate
	assert.Equal(t, 1, notifier.count())
}

func TestHandlePostFilters(t *testing.T) {
	catalog := newMemCatalog()
	g := newTestIngestor(catalog, nil, time.Minute)

	other := post(1)
	other.ChannelID = 12345
	g.HandlePost(other)

	noPhoto := post(2)
	noPhoto.PhotoID = ""
	g.HandlePost(noPhoto)

	n, _ := catalog.Count()
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, catalog.attempts)
}

// Running the pull loop repeatedly over an unchanged source inserts each
// post exactly once: the second and later passes see only known IDs.
func TestPullLoopUnchangedSource(t *testing.T) {
	catalog := newMemCatalog()
	notifier := &memNotifier{}
	g := newTestIngestor(catalog, notifier, 5*time.Millisecond)

	src := &fixedSource{posts: []Post{post(1), post(2), post(3)}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.Run(ctx, src)
		close(done)
	}()

	// enough time for several loop iterations
	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ingest loop did not stop on cancellation")
	}

	n, _ := catalog.Count()
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, catalog.attempts, "seen posts must not be re-processed")
	assert.Equal(t, 3, notifier.count())
}

// A foreign channel's post sharing a message ID with a source-channel
// post must not shadow it: IDs are sequential per chat, so the loop has
// to filter by channel before touching the seen-set.
func TestPullLoopForeignPostDoesNotShadowSourcePost(t *testing.T) {
	catalog := newMemCatalog()
	g := newTestIngestor(catalog, nil, 5*time.Millisecond)

	foreign := post(7)
	foreign.ChannelID = 777
	foreign.Caption = "unrelated post 999₽"
	src := &fixedSource{posts: []Post{foreign, post(7)}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.Run(ctx, src)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ingest loop did not stop on cancellation")
	}

	n, _ := catalog.Count()
	require.Equal(t, 1, n)
	p := catalog.products[7]
	assert.Equal(t, "Nike Dunk Low", p.Name, "the source-channel post must win")
	assert.Equal(t, 1, catalog.attempts)
}

func TestPullLoopStopsBeforeFirstTick(t *testing.T) {
	g := newTestIngestor(newMemCatalog(), nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.Run(ctx, &fixedSource{})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ingest loop did not stop on cancellation")
	}
}

func TestSetInterval(t *testing.T) {
	g := newTestIngestor(newMemCatalog(), nil, 5*time.Minute)
	assert.Equal(t, 5*time.Minute, g.Interval())

	g.SetInterval(30 * time.Second)
	assert.Equal(t, 30*time.Second, g.Interval())
}

// gatedSource lets a test synchronize with the loop: each poll announces
// itself on polled and blocks until released (or the context ends).
type gatedSource struct {
	polled  chan struct{}
	release chan struct{}
}

func (s *gatedSource) Recent(ctx context.Context, _ int) ([]Post, error) {
	select {
	case s.polled <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case <-s.release:
	case <-ctx.Done():
	}
	return nil, nil
}

// An interval shortened while the loop is mid-iteration governs the very
// next sleep.
func TestIntervalChangeAppliesNextIteration(t *testing.T) {
	g := newTestIngestor(newMemCatalog(), nil, 200*time.Millisecond)
	src := &gatedSource{polled: make(chan struct{}), release: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		g.Run(ctx, src)
		close(done)
	}()

	select {
	case <-src.polled:
	case <-time.After(2 * time.Second):
		t.Fatal("first poll never happened")
	}

	// retune while the poll is still in flight, then let it finish; the
	// next sleep must already use the shortened interval
	g.SetInterval(time.Millisecond)
	src.release <- struct{}{}

	select {
	case <-src.polled:
	case <-time.After(150 * time.Millisecond):
		t.Fatal("shortened interval was not picked up by the next iteration")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ingest loop did not stop on cancellation")
	}
}

func TestQueueSourceDrains(t *testing.T) {
	q := NewQueueSource()
	q.Add(post(1))
	q.Add(post(2))
	q.Add(post(3))

	posts, err := q.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.EqualValues(t, 1, posts[0].ID, "oldest first")

	posts, err = q.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.EqualValues(t, 3, posts[0].ID)

	posts, err = q.Recent(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, posts)
}
