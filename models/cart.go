package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one product line in a session's cart. The composite unique
// index keeps at most one row per (session, product).
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_cart_session_product" json:"sessionId"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_session_product;index" json:"productId"`
	Product   *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	AddedAt   time.Time `gorm:"not null" json:"addedAt"`
}

// CartSummary is the read model returned for a session's cart.
type CartSummary struct {
	SessionID     string          `json:"sessionId"`
	Items         []CartItem      `json:"items"`
	TotalQuantity int             `json:"totalItems"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
}

// MarshalJSON renders totalPrice with exactly two decimals, so an empty
// cart reads "0.00".
func (s CartSummary) MarshalJSON() ([]byte, error) {
	type summary CartSummary
	return json.Marshal(struct {
		summary
		TotalPrice string `json:"totalPrice"`
	}{summary(s), s.TotalPrice.StringFixed(2)})
}
