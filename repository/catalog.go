package repository

import (
	"context"
	"strings"

	"github.com/junaidrashid-git/storefront-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func productsByName(db *gorm.DB) *gorm.DB {
	return db.Order("products.name ASC").Order("products.id ASC")
}

// ListCategories returns every category with its products attached.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Preload("Products", productsByName).
		Order("id ASC").
		Find(&categories).Error
	return categories, translate(err)
}

func (r *Repository) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Preload("Products", productsByName).
		First(&category, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (r *Repository) CategoryExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, translate(err)
}

func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(category).Error)
}

func (r *Repository) SaveCategory(ctx context.Context, category *models.Category) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(category).Error)
}

// DeleteCategoryCascade removes the category, its products and every cart
// row pointing at those products. Call it inside Transaction.
func (r *Repository) DeleteCategoryCascade(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)

	exists, err := r.CategoryExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	productIDs := db.Model(&models.Product{}).Select("id").Where("category_id = ?", id)
	if err := db.Where("product_id IN (?)", productIDs).Delete(&models.CartItem{}).Error; err != nil {
		return translate(err)
	}
	if err := db.Where("category_id = ?", id).Delete(&models.Product{}).Error; err != nil {
		return translate(err)
	}
	return translate(db.Delete(&models.Category{}, id).Error)
}

// ListProducts returns all products ordered by name.
func (r *Repository) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := productsByName(r.db.WithContext(ctx).Preload("Category")).Find(&products).Error
	return products, translate(err)
}

func (r *Repository) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Preload("Category").First(&product, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// ListProductsByCategory returns an empty slice, not an error, for a
// category without products or an unknown category.
func (r *Repository) ListProductsByCategory(ctx context.Context, categoryID uint) ([]models.Product, error) {
	products := []models.Product{}
	err := productsByName(r.db.WithContext(ctx).Preload("Category")).
		Where("category_id = ?", categoryID).
		Find(&products).Error
	return products, translate(err)
}

// SearchProducts matches query case-insensitively as a literal substring of
// name or description. A blank query lists everything.
func (r *Repository) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	if strings.TrimSpace(query) == "" {
		return r.ListProducts(ctx)
	}

	pattern := "%" + likeEscaper.Replace(models.SearchKey(query)) + "%"
	var products []models.Product
	err := productsByName(r.db.WithContext(ctx).Preload("Category")).
		Where(`products.name_key LIKE ? ESCAPE '\' OR products.description_key LIKE ? ESCAPE '\'`, pattern, pattern).
		Find(&products).Error
	return products, translate(err)
}

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error)
}

func (r *Repository) SaveProduct(ctx context.Context, product *models.Product) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error)
}

// UpdateStock overwrites the stock count of one product. It skips the save
// hooks, which would blank the search keys of a partial model.
func (r *Repository) UpdateStock(ctx context.Context, id uint, stock int) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).UpdateColumn("stock", stock)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProductCascade removes the product and the cart rows that reference
// it. Call it inside Transaction.
func (r *Repository) DeleteProductCascade(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
		return translate(err)
	}
	res := db.Delete(&models.Product{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindProductForCheck loads a product without its category, locking the
// row when the repository runs in locked mode.
func (r *Repository) FindProductForCheck(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.forCheck(ctx).First(&product, id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}
