package worker

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-shiori/go-readability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inkwell/internal/model"
	"inkwell/internal/store"
)

type MockScraper struct {
	MockTitle   string
	MockContent string
	ShouldFail  bool
}

func (m *MockScraper) Scrape(url string, timeout time.Duration) (*readability.Article, error) {
	if m.ShouldFail {
		return nil, fmt.Errorf("simulated 404")
	}
	return &readability.Article{
		Title:   m.MockTitle,
		Content: m.MockContent,
	}, nil
}

func newTestWorker(t *testing.T, scraper Scraper) (*Worker, store.Store) {
	t.Helper()

	mr := miniredis.RunT(t)
	st, err := store.NewHybrid(context.Background(), mr.Addr(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	w := New(st, zap.NewNop())
	w.scraper = scraper
	return w, st
}

func TestWorker_ImportsQueuedPage(t *testing.T) {
	w, st := newTestWorker(t, &MockScraper{
		MockTitle:   "Mocked Title",
		MockContent: "<p>fake content</p>",
	})

	ctx := context.Background()
	require.NoError(t, st.EnqueueImport(ctx, "http://fake-url.com"))

	runCtx, cancel := context.WithCancel(ctx)
	go w.Start(runCtx)
	time.Sleep(100 * time.Millisecond)
	cancel()

	articles, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Mocked Title", articles[0].Title)
	assert.Equal(t, "<p>fake content</p>", articles[0].Content)
	assert.Equal(t, articles[0].CreatedAt, articles[0].UpdatedAt)
}

func TestWorker_FailedScrapeCreatesNothing(t *testing.T) {
	w, st := newTestWorker(t, &MockScraper{ShouldFail: true})

	ctx := context.Background()
	require.NoError(t, st.EnqueueImport(ctx, "http://dead-url.com"))

	runCtx, cancel := context.WithCancel(ctx)
	go w.Start(runCtx)
	time.Sleep(100 * time.Millisecond)
	cancel()

	articles, err := st.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, articles, "no partial article may survive a failed import")
}

func TestWorker_CapsOverlongTitle(t *testing.T) {
	w, st := newTestWorker(t, &MockScraper{
		MockTitle:   strings.Repeat("T", model.MaxTitleLen+50),
		MockContent: "<p>ok</p>",
	})

	ctx := context.Background()
	require.NoError(t, st.EnqueueImport(ctx, "http://long-title.com"))

	runCtx, cancel := context.WithCancel(ctx)
	go w.Start(runCtx)
	time.Sleep(100 * time.Millisecond)
	cancel()

	articles, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Len(t, []rune(articles[0].Title), model.MaxTitleLen)
}

func TestWorker_FallsBackToURLTitle(t *testing.T) {
	w, st := newTestWorker(t, &MockScraper{
		MockTitle:   "   ",
		MockContent: "<p>untitled page</p>",
	})

	ctx := context.Background()
	require.NoError(t, st.EnqueueImport(ctx, "http://untitled.com"))

	runCtx, cancel := context.WithCancel(ctx)
	go w.Start(runCtx)
	time.Sleep(100 * time.Millisecond)
	cancel()

	articles, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "http://untitled.com", articles[0].Title)
}
