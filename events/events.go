package events

import (
	"context"
	"strconv"
	"time"
)

const (
	CartItemAdded   = "cart.item.added"
	CartItemUpdated = "cart.item.updated"
	CartItemRemoved = "cart.item.removed"
	CartCleared     = "cart.cleared"

	ProductCreated      = "product.created"
	ProductUpdated      = "product.updated"
	ProductDeleted      = "product.deleted"
	ProductStockUpdated = "product.stock_updated"

	CategoryCreated = "category.created"
	CategoryUpdated = "category.updated"
	CategoryDeleted = "category.deleted"
)

// Event is the JSON payload published after a committed write.
type Event struct {
	Type         string    `json:"type"`
	SessionID    string    `json:"sessionId,omitempty"`
	CartItemID   uint      `json:"cartItemId,omitempty"`
	ProductID    uint      `json:"productId,omitempty"`
	CategoryID   uint      `json:"categoryId,omitempty"`
	Quantity     int       `json:"quantity,omitempty"`
	Stock        *int      `json:"stock,omitempty"`
	RemovedItems *int      `json:"removedItems,omitempty"` // cart.cleared only
	OccurredAt   time.Time `json:"occurredAt"`
}

// Key groups related events on the same partition: cart events by
// session, catalog events by product or category.
func (e Event) Key() string {
	switch {
	case e.SessionID != "":
		return "session:" + e.SessionID
	case e.ProductID != 0:
		return "product:" + strconv.FormatUint(uint64(e.ProductID), 10)
	case e.CategoryID != 0:
		return "category:" + strconv.FormatUint(uint64(e.CategoryID), 10)
	default:
		return e.Type
	}
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Noop drops every event. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
