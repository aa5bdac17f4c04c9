package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/junaidrashid-git/storefront-api/cache"
	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Notifier pushes a fresh cart summary to whoever watches a session.
type Notifier interface {
	Watching(sessionID string) bool
	Publish(sessionID string, v any)
}

const fillTimeout = 5 * time.Second

type noopNotifier struct{}

func (noopNotifier) Watching(string) bool { return false }
func (noopNotifier) Publish(string, any)  {}

// CartService keeps each session's cart consistent with product stock.
// Stock is only checked, never decremented.
type CartService struct {
	repo     *repository.Repository
	cache    cache.CartCache
	events   events.Publisher
	notifier Notifier
	log      zerolog.Logger
	sfg      singleflight.Group
	now      func() time.Time
}

// NewCartService wires the service. Nil cache, publisher or notifier fall
// back to no-op implementations.
func NewCartService(repo *repository.Repository, c cache.CartCache, pub events.Publisher, n Notifier, log zerolog.Logger) *CartService {
	if c == nil {
		c = cache.Noop{}
	}
	if pub == nil {
		pub = events.Noop{}
	}
	if n == nil {
		n = noopNotifier{}
	}
	return &CartService{
		repo:     repo,
		cache:    c,
		events:   pub,
		notifier: n,
		log:      log.With().Str("component", "cart").Logger(),
		now:      time.Now,
	}
}

// Add puts quantity units of a product into the session's cart, merging
// with an existing row for the same product.
func (s *CartService) Add(ctx context.Context, sessionID string, productID uint, quantity int) (*models.CartItem, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidArgument)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidArgument, quantity)
	}

	item, err := s.add(ctx, sessionID, productID, quantity)
	if errors.Is(err, repository.ErrDuplicate) {
		// a concurrent first add for the same product won the insert
		s.log.Debug().Str("session_id", sessionID).Uint("product_id", productID).Msg("retrying add after unique conflict")
		item, err = s.add(ctx, sessionID, productID, quantity)
	}
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, sessionID, events.Event{
		Type:       events.CartItemAdded,
		SessionID:  sessionID,
		CartItemID: item.ID,
		ProductID:  productID,
		Quantity:   item.Quantity,
	})
	return item, nil
}

func (s *CartService) add(ctx context.Context, sessionID string, productID uint, quantity int) (*models.CartItem, error) {
	var item *models.CartItem
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		product, err := tx.FindProductForCheck(ctx, productID)
		if err != nil {
			return notFound(err, "product %d", productID)
		}
		if quantity > product.Stock {
			return fmt.Errorf("%w: requested %d of %q, only %d in stock", ErrInsufficientStock, quantity, product.Name, product.Stock)
		}

		existing, err := tx.FindCartItemBySessionProduct(ctx, sessionID, productID)
		switch {
		case err == nil:
			merged := existing.Quantity + quantity
			if merged > product.Stock {
				return fmt.Errorf("%w: cart already holds %d of %q, adding %d exceeds stock of %d",
					ErrInsufficientStock, existing.Quantity, product.Name, quantity, product.Stock)
			}
			if err := tx.UpdateCartItemQuantity(ctx, existing.ID, merged); err != nil {
				return err
			}
			existing.Quantity = merged
			item = existing
			return nil
		case errors.Is(err, repository.ErrNotFound):
			item = &models.CartItem{
				SessionID: sessionID,
				ProductID: productID,
				Quantity:  quantity,
				AddedAt:   s.now(),
			}
			return tx.CreateCartItem(ctx, item)
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// SetQuantity overwrites the quantity of one cart row.
func (s *CartService) SetQuantity(ctx context.Context, cartItemID uint, quantity int) (*models.CartItem, error) {
	var item *models.CartItem
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		found, err := tx.FindCartItem(ctx, cartItemID)
		if err != nil {
			return notFound(err, "cart item %d", cartItemID)
		}
		if quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive, remove the item instead", ErrInvalidArgument)
		}

		product, err := tx.FindProductForCheck(ctx, found.ProductID)
		if err != nil {
			return notFound(err, "product %d", found.ProductID)
		}
		if quantity > product.Stock {
			return fmt.Errorf("%w: requested %d of %q, only %d in stock", ErrInsufficientStock, quantity, product.Name, product.Stock)
		}

		if err := tx.UpdateCartItemQuantity(ctx, found.ID, quantity); err != nil {
			return err
		}
		found.Quantity = quantity
		item = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, item.SessionID, events.Event{
		Type:       events.CartItemUpdated,
		SessionID:  item.SessionID,
		CartItemID: item.ID,
		ProductID:  item.ProductID,
		Quantity:   item.Quantity,
	})
	return item, nil
}

// Remove deletes one cart row. A second call for the same id fails with
// ErrNotFound.
func (s *CartService) Remove(ctx context.Context, cartItemID uint) error {
	var item *models.CartItem
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		found, err := tx.FindCartItem(ctx, cartItemID)
		if err != nil {
			return notFound(err, "cart item %d", cartItemID)
		}
		item = found
		return tx.DeleteCartItem(ctx, found.ID)
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, item.SessionID, events.Event{
		Type:       events.CartItemRemoved,
		SessionID:  item.SessionID,
		CartItemID: item.ID,
		ProductID:  item.ProductID,
	})
	return nil
}

// Clear empties the session's cart. An empty cart is not an error.
func (s *CartService) Clear(ctx context.Context, sessionID string) (int64, error) {
	var removed int64
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		n, err := tx.DeleteCartItemsBySession(ctx, sessionID)
		removed = n
		return err
	})
	if err != nil {
		return 0, err
	}

	count := int(removed)
	s.afterWrite(ctx, sessionID, events.Event{Type: events.CartCleared, SessionID: sessionID, RemovedItems: &count})
	return removed, nil
}

// Summarize returns the session's items with product and category attached
// plus exact decimal totals. Results are cached until the next cart write.
//
// Concurrent callers for one session share a single fill. The fill is
// detached from the caller's cancellation and bounded by fillTimeout.
func (s *CartService) Summarize(ctx context.Context, sessionID string) (*models.CartSummary, error) {
	v, err, _ := s.sfg.Do(sessionID, func() (any, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fillTimeout)
		defer cancel()
		return s.fill(fillCtx, sessionID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.CartSummary), nil
}

func (s *CartService) fill(ctx context.Context, sessionID string) (*models.CartSummary, error) {
	cached, err := s.cache.Get(ctx, sessionID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("cart cache read failed")
	}

	// read the generation before the rows so a write committed in between
	// makes the store below a no-op
	gen, genErr := s.cache.Generation(ctx, sessionID)

	items, err := s.repo.ListCartItems(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	summary := summarize(sessionID, items)

	if genErr != nil {
		return summary, nil
	}
	switch err := s.cache.Set(ctx, sessionID, gen, summary); {
	case errors.Is(err, cache.ErrStaleGeneration):
		s.log.Debug().Str("session_id", sessionID).Msg("skipped stale cart cache fill")
	case err != nil:
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("cart cache write failed")
	}
	return summary, nil
}

func summarize(sessionID string, items []models.CartItem) *models.CartSummary {
	total := decimal.Zero
	quantity := 0
	for _, item := range items {
		quantity += item.Quantity
		if item.Product != nil {
			total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	return &models.CartSummary{
		SessionID:     sessionID,
		Items:         items,
		TotalQuantity: quantity,
		TotalPrice:    total.Round(2),
	}
}

// afterWrite runs once a cart transaction has committed. Nothing here can
// fail the request.
func (s *CartService) afterWrite(ctx context.Context, sessionID string, evt events.Event) {
	ctx = context.WithoutCancel(ctx)

	if err := s.cache.Delete(ctx, sessionID); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("cart cache invalidation failed")
	}

	evt.OccurredAt = s.now().UTC()
	publish(ctx, s.events, s.log, evt)

	if !s.notifier.Watching(sessionID) {
		return
	}
	// a fill already in flight may have read the rows before this write
	s.sfg.Forget(sessionID)
	summary, err := s.Summarize(ctx, sessionID)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("summarize for live update failed")
		return
	}
	s.notifier.Publish(sessionID, summary)
}

func publish(ctx context.Context, pub events.Publisher, log zerolog.Logger, evt events.Event) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pub.Publish(ctx, evt); err != nil {
		log.Warn().Err(err).Str("event", evt.Type).Msg("publish event failed")
	}
}

// notFound maps a repository miss onto ErrNotFound with a readable subject.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}
