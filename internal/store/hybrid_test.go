package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/model"
	"inkwell/internal/upload"
)

// newTestStore wires a Hybrid directly to a fake Redis and an in-memory
// Badger so nothing touches disk or the network.
func newTestStore(t *testing.T) (*Hybrid, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)

	st := &Hybrid{
		rdb: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		db:  db,
	}
	t.Cleanup(func() { st.Close() })
	return st, mr
}

func mustArticle(t *testing.T, title, content string) *model.Article {
	t.Helper()
	a, err := model.New(title, content)
	require.NoError(t, err)
	return a
}

func TestHybrid_CreateAndGet(t *testing.T) {
	st, mr := newTestStore(t)
	ctx := context.Background()

	article := mustArticle(t, "Test Article", "<h1>Big Content</h1>")
	require.NoError(t, st.Create(ctx, article))

	// Metadata lands in Redis without the heavy content.
	val, err := mr.Get("article:" + article.ID.String())
	require.NoError(t, err)
	var meta model.Article
	require.NoError(t, json.Unmarshal([]byte(val), &meta))
	assert.Equal(t, "Test Article", meta.Title)
	assert.Empty(t, meta.Content, "redis must not hold the content")

	// Get reassembles the full document.
	got, err := st.Get(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, article.ID, got.ID)
	assert.Equal(t, "Test Article", got.Title)
	assert.Equal(t, "<h1>Big Content</h1>", got.Content)
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
}

func TestHybrid_Get_NotFound(t *testing.T) {
	st, _ := newTestStore(t)

	_, err := st.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHybrid_List_NewestFirst(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, title := range []string{"oldest", "middle", "newest"} {
		a := mustArticle(t, title, "<p>x</p>")
		a.CreatedAt = base.Add(time.Duration(i) * time.Second)
		a.UpdatedAt = a.CreatedAt
		require.NoError(t, st.Create(ctx, a))
	}

	articles, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, articles, 3)
	assert.Equal(t, "newest", articles[0].Title)
	assert.Equal(t, "middle", articles[1].Title)
	assert.Equal(t, "oldest", articles[2].Title)
	assert.NotEmpty(t, articles[0].Content, "listing must hydrate content")
}

func TestHybrid_List_Empty(t *testing.T) {
	st, _ := newTestStore(t)

	articles, err := st.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, articles)
	assert.Empty(t, articles)
}

func TestHybrid_Replace(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	article := mustArticle(t, "Before", "<p>before</p>")
	require.NoError(t, st.Create(ctx, article))

	require.NoError(t, article.Apply("After", "<p>after</p>", time.Now().Add(time.Second)))
	require.NoError(t, st.Replace(ctx, article))

	got, err := st.Get(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Title)
	assert.Equal(t, "<p>after</p>", got.Content)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	// Replace also moves the article to the top of the listing.
	articles, err := st.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, article.ID, articles[0].ID)
}

func TestHybrid_Replace_UnknownID(t *testing.T) {
	st, _ := newTestStore(t)

	ghost := mustArticle(t, "Ghost", "<p>boo</p>")
	err := st.Replace(context.Background(), ghost)
	assert.ErrorIs(t, err, ErrNotFound, "replace must not resurrect a deleted article")
}

func TestHybrid_Delete(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	article := mustArticle(t, "Doomed", "<p>bye</p>")
	require.NoError(t, st.Create(ctx, article))

	require.NoError(t, st.Delete(ctx, article.ID))

	_, err := st.Get(ctx, article.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	articles, err := st.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, articles)

	// Second delete reports the id as gone.
	assert.ErrorIs(t, st.Delete(ctx, article.ID), ErrNotFound)
}

func TestHybrid_ImportQueue(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.EnqueueImport(ctx, "https://example.com/a"))
	require.NoError(t, st.EnqueueImport(ctx, "https://example.com/b"))

	url, err := st.DequeueImport(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", url, "queue is FIFO")
}

func TestHybrid_ClientMode_NoBadger(t *testing.T) {
	mr := miniredis.RunT(t)

	// Empty Badger path is the import CLI's Redis-only mode.
	st, err := NewHybrid(context.Background(), mr.Addr(), "")
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.EnqueueImport(ctx, "https://example.com"))

	article := mustArticle(t, "Heavy", "<h1>content</h1>")
	err = st.Create(ctx, article)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "badger is not initialized")
}

func TestHybrid_ImageIndex(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	img := upload.Image{
		Key:       "123.png",
		URL:       "/uploads/123.png",
		Format:    "png",
		Width:     800,
		Height:    600,
		Bytes:     2048,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.RecordImage(ctx, img))

	images, err := st.ListImages(ctx)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, img.URL, images[0].URL)
	assert.Equal(t, 800, images[0].Width)
}
