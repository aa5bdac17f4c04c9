package repository

import (
	"context"

	"github.com/junaidrashid-git/storefront-api/models"
	"gorm.io/gorm/clause"
)

// ListCartItems returns the session's rows with product and category
// attached, oldest first.
func (r *Repository) ListCartItems(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	items := []models.CartItem{}
	err := r.db.WithContext(ctx).
		Preload("Product.Category").
		Where("session_id = ?", sessionID).
		Order("added_at ASC").
		Order("id ASC").
		Find(&items).Error
	return items, translate(err)
}

func (r *Repository) FindCartItem(ctx context.Context, id uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.forCheck(ctx).First(&item, id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *Repository) FindCartItemBySessionProduct(ctx context.Context, sessionID string, productID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.forCheck(ctx).
		Where("session_id = ? AND product_id = ?", sessionID, productID).
		First(&item).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *Repository) CreateCartItem(ctx context.Context, item *models.CartItem) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error)
}

func (r *Repository) UpdateCartItemQuantity(ctx context.Context, id uint, quantity int) error {
	res := r.db.WithContext(ctx).Model(&models.CartItem{}).Where("id = ?", id).Update("quantity", quantity)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteCartItem(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.CartItem{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCartItemsBySession clears a session's cart and reports how many
// rows went away. Zero is not an error.
func (r *Repository) DeleteCartItemsBySession(ctx context.Context, sessionID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&models.CartItem{})
	return res.RowsAffected, translate(res.Error)
}
