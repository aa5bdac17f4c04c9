package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	ImageURL    string          `json:"imageUrl"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	CategoryID  uint            `gorm:"not null;index" json:"categoryId"`
	Category    *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`

	// lowercased copies searched with LIKE, so matching does not depend on
	// the database's own case folding
	NameKey        string `gorm:"type:text;not null;default:''" json:"-"`
	DescriptionKey string `gorm:"type:text;not null;default:''" json:"-"`
}

// SearchKey folds s the same way the stored name and description keys are.
func SearchKey(s string) string {
	return strings.ToLower(s)
}

func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.NameKey = SearchKey(p.Name)
	p.DescriptionKey = SearchKey(p.Description)
	return nil
}

// MarshalJSON renders price with exactly two decimals.
func (p Product) MarshalJSON() ([]byte, error) {
	type product Product
	return json.Marshal(struct {
		product
		Price string `json:"price"`
	}{product(p), p.Price.StringFixed(2)})
}
