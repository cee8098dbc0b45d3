// Package worker turns queued page-import jobs into articles. A job is just
// a URL; the article is created only after the page has been fetched and
// reduced to editable content, so a failed import leaves nothing behind.
package worker

import (
	"context"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"inkwell/internal/model"
	"inkwell/internal/store"
)

// Scraper fetches a page and extracts its readable content. An interface so
// tests can skip the network.
type Scraper interface {
	Scrape(url string, timeout time.Duration) (*readability.Article, error)
}

type DefaultScraper struct{}

func (s *DefaultScraper) Scrape(url string, timeout time.Duration) (*readability.Article, error) {
	art, err := readability.FromURL(url, timeout)
	return &art, err
}

type Worker struct {
	store   store.Store
	logger  *zap.Logger
	scraper Scraper
}

func New(st store.Store, logger *zap.Logger) *Worker {
	return &Worker{
		store:   st,
		logger:  logger,
		scraper: &DefaultScraper{},
	}
}

// Start runs the import loop until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("import worker started")

	for {
		url, err := w.store.DequeueImport(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("import worker shutting down")
				return
			}
			w.logger.Error("queue error", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		w.process(ctx, url)
	}
}

func (w *Worker) process(ctx context.Context, url string) {
	logger := w.logger.With(zap.String("url", url))
	logger.Info("importing page")

	page, err := w.scraper.Scrape(url, 30*time.Second)
	if err != nil {
		logger.Error("import failed: fetch error", zap.Error(err))
		return
	}

	title := strings.TrimSpace(page.Title)
	if title == "" {
		title = url
	}
	if runes := []rune(title); len(runes) > model.MaxTitleLen {
		title = string(runes[:model.MaxTitleLen])
	}

	article, err := model.New(title, page.Content)
	if err != nil {
		logger.Error("import failed: unusable page", zap.Error(err))
		return
	}

	if err := w.store.Create(ctx, article); err != nil {
		logger.Error("import failed: save error", zap.Error(err))
		return
	}

	logger.Info("article imported",
		zap.String("id", article.ID.String()),
		zap.String("title", article.Title))
}
