package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/bookshelf/bookshelf/internal/model"
)

const (
	bookListKeyPrefix = "books:owner:"
	bookGenKeyPrefix  = "books:gen:"
	allBooksField     = "all"
	searchFieldPrefix = "q:"
)

var (
	// ErrCacheMiss indicates the entry is not cached.
	ErrCacheMiss = errors.New("cache miss")
	// ErrStaleGeneration indicates the owner's books changed after the
	// listing was read, so it was not cached.
	ErrStaleGeneration = errors.New("stale book list generation")
)

// GetBooks returns the cached listing for the owner and search term.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetBooks(ctx context.Context, ownerID int64, term string) ([]*model.Book, error) {
	raw, err := c.client.HGet(ctx, bookListKey(ownerID), bookListField(term)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis hget failed: %w", err)
	}

	books, err := decodeBooks(raw)
	if err != nil {
		return nil, err
	}
	return books, nil
}

// BookListGeneration returns the owner's current listing generation. Read it
// before querying the store and pass it to SetBooks.
func (c *Cache) BookListGeneration(ctx context.Context, ownerID int64) (int64, error) {
	gen, err := c.client.Get(ctx, bookGenKey(ownerID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get failed: %w", err)
	}
	return gen, nil
}

// SetBooks caches a listing for the owner and search term, provided the
// owner's generation still equals gen. Every listing of an owner shares one
// key so InvalidateOwner drops them together. Returns ErrStaleGeneration when
// a write landed after gen was read.
func (c *Cache) SetBooks(ctx context.Context, ownerID int64, term string, gen int64, books []*model.Book) error {
	raw, err := json.Marshal(books)
	if err != nil {
		return fmt.Errorf("encode books: %w", err)
	}

	key := bookListKey(ownerID)
	genKey := bookGenKey(ownerID)

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("redis get failed: %w", err)
		}
		if current != gen {
			return ErrStaleGeneration
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, bookListField(term), raw)
			pipe.Expire(ctx, key, c.bookListTTL)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return ErrStaleGeneration
	case errors.Is(err, ErrStaleGeneration):
		return err
	default:
		return fmt.Errorf("redis transaction failed: %w", err)
	}
}

// InvalidateOwner bumps the owner's generation and drops every cached
// listing of the owner.
func (c *Cache) InvalidateOwner(ctx context.Context, ownerID int64) error {
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, bookGenKey(ownerID))
	pipe.Del(ctx, bookListKey(ownerID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

func bookListKey(ownerID int64) string {
	return bookListKeyPrefix + strconv.FormatInt(ownerID, 10)
}

func bookGenKey(ownerID int64) string {
	return bookGenKeyPrefix + strconv.FormatInt(ownerID, 10)
}

// bookListField maps a search term to its hash field. Search is
// case-insensitive so terms differing only in case share a field.
func bookListField(term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return allBooksField
	}
	return searchFieldPrefix + term
}

func decodeBooks(raw []byte) ([]*model.Book, error) {
	books := make([]*model.Book, 0)
	if err := json.Unmarshal(raw, &books); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}
	return books, nil
}
