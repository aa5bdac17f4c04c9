package cache

import (
	"context"
	"errors"

	"github.com/junaidrashid-git/storefront-api/models"
)

// Generation identifies the write state a summary was read from. A write
// to the session, or a flush, moves it on.
type Generation string

// CartCache holds computed cart summaries keyed by session id.
type CartCache interface {
	Get(ctx context.Context, sessionID string) (*models.CartSummary, error)
	// Generation is captured before reading the store, and handed back to Set.
	Generation(ctx context.Context, sessionID string) (Generation, error)
	// Set stores the summary only while gen is still current. Otherwise it
	// returns ErrStaleGeneration and stores nothing.
	Set(ctx context.Context, sessionID string, gen Generation, summary *models.CartSummary) error
	// Delete drops the session's summary and moves its generation on.
	Delete(ctx context.Context, sessionID string) error
	// Flush drops every cached summary, e.g. after a price change.
	Flush(ctx context.Context) error
}

var (
	ErrCacheMiss       = errors.New("cache miss")
	ErrStaleGeneration = errors.New("cart changed while its summary was computed")
)

// Noop is used when no Redis is configured. Every read misses.
type Noop struct{}

func (Noop) Get(context.Context, string) (*models.CartSummary, error)           { return nil, ErrCacheMiss }
func (Noop) Generation(context.Context, string) (Generation, error)             { return "", nil }
func (Noop) Set(context.Context, string, Generation, *models.CartSummary) error { return nil }
func (Noop) Delete(context.Context, string) error                               { return nil }
func (Noop) Flush(context.Context) error                                        { return nil }
