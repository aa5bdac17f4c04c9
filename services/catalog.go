package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/junaidrashid-git/storefront-api/cache"
	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// maxPrice is the largest value a numeric(10,2) column holds.
var maxPrice = decimal.RequireFromString("99999999.99")

type CategoryInput struct {
	Name        string
	Description string
}

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Stock       int
	CategoryID  uint
}

// CatalogService serves catalog reads and the admin writes behind them.
type CatalogService struct {
	repo   *repository.Repository
	cache  cache.CartCache
	events events.Publisher
	log    zerolog.Logger
}

func NewCatalogService(repo *repository.Repository, c cache.CartCache, pub events.Publisher, log zerolog.Logger) *CatalogService {
	if c == nil {
		c = cache.Noop{}
	}
	if pub == nil {
		pub = events.Noop{}
	}
	return &CatalogService{
		repo:   repo,
		cache:  c,
		events: pub,
		log:    log.With().Str("component", "catalog").Logger(),
	}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, notFound(err, "category %d", id)
	}
	return category, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	category := &models.Category{Name: strings.TrimSpace(in.Name), Description: in.Description}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{Type: events.CategoryCreated, CategoryID: category.ID})
	return category, nil
}

// UpdateCategory overwrites name and description.
func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (*models.Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var category *models.Category
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		found, err := tx.GetCategory(ctx, id)
		if err != nil {
			return notFound(err, "category %d", id)
		}
		found.Name = strings.TrimSpace(in.Name)
		found.Description = in.Description
		category = found
		return tx.SaveCategory(ctx, found)
	})
	if err != nil {
		return nil, err
	}

	s.flushCarts(ctx)
	s.publish(ctx, events.Event{Type: events.CategoryUpdated, CategoryID: id})
	return category, nil
}

// DeleteCategory removes the category with its products and every cart row
// holding one of them.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		return notFound(tx.DeleteCategoryCascade(ctx, id), "category %d", id)
	})
	if err != nil {
		return err
	}

	s.flushCarts(ctx)
	s.publish(ctx, events.Event{Type: events.CategoryDeleted, CategoryID: id})
	return nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product %d", id)
	}
	return product, nil
}

func (s *CatalogService) ListProductsByCategory(ctx context.Context, categoryID uint) ([]models.Product, error) {
	return s.repo.ListProductsByCategory(ctx, categoryID)
}

func (s *CatalogService) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	return s.repo.SearchProducts(ctx, query)
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	product := &models.Product{}
	in.applyTo(product)

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := requireCategory(ctx, tx, in.CategoryID); err != nil {
			return err
		}
		return tx.CreateProduct(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{Type: events.ProductCreated, ProductID: product.ID, CategoryID: product.CategoryID})
	return s.GetProduct(ctx, product.ID)
}

// UpdateProduct overwrites every editable field of the product.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		product, err := tx.FindProductForCheck(ctx, id)
		if err != nil {
			return notFound(err, "product %d", id)
		}
		if err := requireCategory(ctx, tx, in.CategoryID); err != nil {
			return err
		}
		in.applyTo(product)
		return tx.SaveProduct(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	s.flushCarts(ctx)
	s.publish(ctx, events.Event{Type: events.ProductUpdated, ProductID: id, CategoryID: in.CategoryID})
	return s.GetProduct(ctx, id)
}

// DeleteProduct removes the product and the cart rows holding it.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		return notFound(tx.DeleteProductCascade(ctx, id), "product %d", id)
	})
	if err != nil {
		return err
	}

	s.flushCarts(ctx)
	s.publish(ctx, events.Event{Type: events.ProductDeleted, ProductID: id})
	return nil
}

// UpdateStock overwrites the stock count. Existing cart rows are left as
// they are even if they now exceed it.
func (s *CatalogService) UpdateStock(ctx context.Context, id uint, stock int) error {
	if stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidArgument)
	}
	if err := s.repo.UpdateStock(ctx, id, stock); err != nil {
		return notFound(err, "product %d", id)
	}

	s.flushCarts(ctx)
	s.publish(ctx, events.Event{Type: events.ProductStockUpdated, ProductID: id, Stock: &stock})
	return nil
}

func (s *CatalogService) flushCarts(ctx context.Context) {
	if err := s.cache.Flush(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn().Err(err).Msg("flushing cart cache failed")
	}
}

func (s *CatalogService) publish(ctx context.Context, evt events.Event) {
	publish(context.WithoutCancel(ctx), s.events, s.log, evt)
}

func requireCategory(ctx context.Context, tx *repository.Repository, id uint) error {
	exists, err := tx.CategoryExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: category %d does not exist", ErrReferentialViolation, id)
	}
	return nil
}

func (in CategoryInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: category name is required", ErrInvalidArgument)
	}
	return nil
}

func (in ProductInput) validate() error {
	var problems []string
	if strings.TrimSpace(in.Name) == "" {
		problems = append(problems, "product name is required")
	}
	if in.Price.IsNegative() {
		problems = append(problems, "price cannot be negative")
	}
	if in.Price.GreaterThan(maxPrice) {
		problems = append(problems, "price is too large")
	}
	if in.Stock < 0 {
		problems = append(problems, "stock cannot be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, strings.Join(problems, ", "))
	}
	return nil
}

func (in ProductInput) applyTo(p *models.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price.Round(2)
	p.ImageURL = in.ImageURL
	p.Stock = in.Stock
	p.CategoryID = in.CategoryID
	p.Category = nil
}

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrReferentialViolation)
}
