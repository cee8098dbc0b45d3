package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"inkwell/internal/model"
	"inkwell/internal/upload"
)

var ErrNotFound = errors.New("article not found")

// Store is the persistence surface for articles, the import job queue and
// the uploaded-image index. Every operation is a single-document write or
// read; the store itself serializes conflicting writers, so callers need no
// lock discipline of their own.
type Store interface {
	Create(ctx context.Context, article *model.Article) error
	Get(ctx context.Context, id uuid.UUID) (*model.Article, error)
	// List returns all articles ordered by UpdatedAt descending. Ties share
	// a score in the recency index and come back in the index's own
	// deterministic member order, so their relative order is stable within
	// a single call.
	List(ctx context.Context) ([]model.Article, error)
	// Replace swaps the stored document for the one given, keyed by its ID.
	// Last write wins when two replacements race.
	Replace(ctx context.Context, article *model.Article) error
	Delete(ctx context.Context, id uuid.UUID) error

	EnqueueImport(ctx context.Context, url string) error
	// DequeueImport blocks until a job arrives or ctx is cancelled.
	DequeueImport(ctx context.Context) (string, error)

	RecordImage(ctx context.Context, img upload.Image) error
	ListImages(ctx context.Context) ([]upload.Image, error)

	Ping(ctx context.Context) error
	Close() error
}
