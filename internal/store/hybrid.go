package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"inkwell/internal/model"
	"inkwell/internal/upload"
)

const (
	articleKeyPrefix = "article:"
	recentArticles   = "articles:recent"
	importQueue      = "queue:import"
	recentImages     = "images:recent"

	maxImageRecords = 100
)

// Hybrid keeps article metadata, the recency index and the job queue in
// Redis and the heavy rich-text content in Badger, keyed by article id.
type Hybrid struct {
	rdb *redis.Client
	db  *badger.DB
}

// NewHybrid opens both databases and verifies the Redis endpoint with a
// ping. Pass badgerPath="" for Redis-only client mode (the import CLI),
// where content operations are unavailable. On any failure every handle
// opened so far is closed before the error is returned, so a failed attempt
// leaves nothing behind.
func NewHybrid(ctx context.Context, redisAddr, badgerPath string) (*Hybrid, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	var db *badger.DB
	if badgerPath != "" {
		opts := badger.DefaultOptions(badgerPath)
		opts.Logger = nil
		var err error
		db, err = badger.Open(opts)
		if err != nil {
			rdb.Close()
			return nil, fmt.Errorf("failed to open badger: %w", err)
		}
	}

	return &Hybrid{rdb: rdb, db: db}, nil
}

func (s *Hybrid) Close() error {
	if s.rdb != nil {
		s.rdb.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Hybrid) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// StartGC reclaims Badger value-log space on a ticker until ctx is
// cancelled. No-op in Redis-only mode.
func (s *Hybrid) StartGC(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	if s.db == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.db.RunValueLogGC(0.7); err != nil && err != badger.ErrNoRewrite {
				logger.Warn("badger gc failed", zap.Error(err))
			}
		}
	}
}

// Create stores a brand-new article: metadata to Redis, content to Badger,
// and the id scored into the recency index by UpdatedAt.
func (s *Hybrid) Create(ctx context.Context, article *model.Article) error {
	return s.write(ctx, article)
}

// Replace swaps the document for an existing id. The metadata SET runs with
// the XX flag so a vanished id surfaces as ErrNotFound instead of a
// resurrection.
func (s *Hybrid) Replace(ctx context.Context, article *model.Article) error {
	meta, err := marshalMeta(article)
	if err != nil {
		return err
	}
	set, err := s.rdb.SetXX(ctx, articleKeyPrefix+article.ID.String(), meta, 0).Result()
	if err != nil {
		return err
	}
	if !set {
		return ErrNotFound
	}
	if err := s.rdb.ZAdd(ctx, recentArticles, redis.Z{
		Score:  float64(article.UpdatedAt.UnixNano()),
		Member: article.ID.String(),
	}).Err(); err != nil {
		return err
	}
	return s.writeContent(article.ID, article.Content)
}

func (s *Hybrid) write(ctx context.Context, article *model.Article) error {
	meta, err := marshalMeta(article)
	if err != nil {
		return err
	}
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, articleKeyPrefix+article.ID.String(), meta, 0)
	pipe.ZAdd(ctx, recentArticles, redis.Z{
		Score:  float64(article.UpdatedAt.UnixNano()),
		Member: article.ID.String(),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	return s.writeContent(article.ID, article.Content)
}

func marshalMeta(article *model.Article) ([]byte, error) {
	meta := *article
	meta.Content = ""
	return json.Marshal(meta)
}

func (s *Hybrid) writeContent(id uuid.UUID, content string) error {
	if content == "" {
		return nil
	}
	if s.db == nil {
		return fmt.Errorf("cannot save content: badger is not initialized")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(id.String()), []byte(content))
	})
}

func (s *Hybrid) Get(ctx context.Context, id uuid.UUID) (*model.Article, error) {
	val, err := s.rdb.Get(ctx, articleKeyPrefix+id.String()).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	var article model.Article
	if err := json.Unmarshal(val, &article); err != nil {
		return nil, err
	}
	if err := s.loadContent(&article); err != nil {
		return nil, err
	}
	return &article, nil
}

func (s *Hybrid) loadContent(article *model.Article) error {
	if s.db == nil {
		return nil
	}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(article.ID.String()))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			article.Content = string(val)
			return nil
		})
	})
	if err != nil && err != badger.ErrKeyNotFound {
		return err
	}
	return nil
}

// List walks the recency index newest-first and hydrates each article.
// Members that expired between the index read and the metadata fetch are
// skipped rather than failing the whole listing.
func (s *Hybrid) List(ctx context.Context) ([]model.Article, error) {
	ids, err := s.rdb.ZRevRange(ctx, recentArticles, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	articles := make([]model.Article, 0, len(ids))
	for _, idStr := range ids {
		val, err := s.rdb.Get(ctx, articleKeyPrefix+idStr).Bytes()
		if err == redis.Nil {
			continue
		} else if err != nil {
			return nil, err
		}

		var a model.Article
		if err := json.Unmarshal(val, &a); err != nil {
			return nil, err
		}
		if err := s.loadContent(&a); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, nil
}

func (s *Hybrid) Delete(ctx context.Context, id uuid.UUID) error {
	removed, err := s.rdb.Del(ctx, articleKeyPrefix+id.String()).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	if err := s.rdb.ZRem(ctx, recentArticles, id.String()).Err(); err != nil {
		return err
	}
	if s.db == nil {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(id.String()))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

func (s *Hybrid) EnqueueImport(ctx context.Context, url string) error {
	return s.rdb.LPush(ctx, importQueue, url).Err()
}

// DequeueImport blocks until a job arrives. 0 means wait forever; a
// cancelled ctx unblocks with its error.
func (s *Hybrid) DequeueImport(ctx context.Context) (string, error) {
	result, err := s.rdb.BRPop(ctx, 0, importQueue).Result()
	if err != nil {
		return "", err
	}
	return result[1], nil
}

func (s *Hybrid) RecordImage(ctx context.Context, img upload.Image) error {
	data, err := json.Marshal(img)
	if err != nil {
		return err
	}
	pipe := s.rdb.Pipeline()
	pipe.LPush(ctx, recentImages, data)
	pipe.LTrim(ctx, recentImages, 0, maxImageRecords-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Hybrid) ListImages(ctx context.Context) ([]upload.Image, error) {
	vals, err := s.rdb.LRange(ctx, recentImages, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	images := make([]upload.Image, 0, len(vals))
	for _, v := range vals {
		var img upload.Image
		if err := json.Unmarshal([]byte(v), &img); err != nil {
			continue
		}
		images = append(images, img)
	}
	return images, nil
}
