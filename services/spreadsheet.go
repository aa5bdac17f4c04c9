package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/repository"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
)

var productSheetHeaders = []string{
	"ID", "Name", "Description", "Price", "Stock", "ImageURL", "CategoryID", "CreatedAt",
}

type ImportResult struct {
	Created int `json:"createdCount"`
	Updated int `json:"updatedCount"`
	Skipped int `json:"skippedCount"`
}

// ExportProducts writes every product as an xlsx workbook with one sheet.
// Prices are written as text so they survive a round trip exactly.
func (s *CatalogService) ExportProducts(ctx context.Context, w io.Writer) error {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range productSheetHeaders {
		header.AddCell().SetString(h)
	}
	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(p.ID))
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Description)
		row.AddCell().SetString(p.Price.StringFixed(2))
		row.AddCell().SetInt(p.Stock)
		row.AddCell().SetString(p.ImageURL)
		row.AddCell().SetInt(int(p.CategoryID))
		row.AddCell().SetString(p.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
	}

	return file.Write(w)
}

// ImportProducts upserts the rows of the first sheet. Rows carrying the ID
// of an existing product overwrite it, other rows create a product. Invalid
// rows are counted as skipped and do not stop the import.
func (s *CatalogService) ImportProducts(ctx context.Context, r io.ReaderAt, size int64) (ImportResult, error) {
	var result ImportResult

	file, err := xlsx.OpenReaderAt(r, size)
	if err != nil {
		return result, fmt.Errorf("%w: not a readable xlsx file", ErrInvalidArgument)
	}
	if len(file.Sheets) == 0 || file.Sheets[0].MaxRow < 2 {
		return result, fmt.Errorf("%w: sheet is empty or missing the header row", ErrInvalidArgument)
	}

	sheet := file.Sheets[0]
	for i := 1; i < sheet.MaxRow; i++ {
		row := sheet.Rows[i]
		if row == nil {
			result.Skipped++
			continue
		}

		id, in, ok := parseProductRow(row)
		if !ok {
			result.Skipped++
			continue
		}

		created, err := s.importProduct(ctx, id, in)
		switch {
		case err != nil:
			s.log.Debug().Err(err).Int("row", i+1).Msg("skipping spreadsheet row")
			result.Skipped++
		case created:
			result.Created++
		default:
			result.Updated++
		}
	}

	if result.Created+result.Updated > 0 {
		s.flushCarts(ctx)
	}
	s.log.Info().Int("created", result.Created).Int("updated", result.Updated).Int("skipped", result.Skipped).Msg("product import finished")
	return result, nil
}

func (s *CatalogService) importProduct(ctx context.Context, id uint, in ProductInput) (bool, error) {
	if err := in.validate(); err != nil {
		return false, err
	}

	created := false
	var product *models.Product
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := requireCategory(ctx, tx, in.CategoryID); err != nil {
			return err
		}

		if id != 0 {
			existing, err := tx.FindProductForCheck(ctx, id)
			if err == nil {
				in.applyTo(existing)
				product = existing
				return tx.SaveProduct(ctx, existing)
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
		}

		product = &models.Product{}
		in.applyTo(product)
		created = true
		return tx.CreateProduct(ctx, product)
	})
	if err != nil {
		return false, err
	}

	evt := events.Event{Type: events.ProductUpdated, ProductID: product.ID, CategoryID: product.CategoryID}
	if created {
		evt.Type = events.ProductCreated
	}
	s.publish(ctx, evt)
	return created, nil
}

func parseProductRow(row *xlsx.Row) (uint, ProductInput, bool) {
	get := func(index int) string {
		if index < len(row.Cells) {
			return strings.TrimSpace(row.Cells[index].String())
		}
		return ""
	}

	var id uint
	if raw := get(0); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, ProductInput{}, false
		}
		id = uint(n)
	}

	price, err := decimal.NewFromString(get(3))
	if err != nil {
		return 0, ProductInput{}, false
	}
	stock, err := strconv.Atoi(get(4))
	if err != nil {
		return 0, ProductInput{}, false
	}
	categoryID, err := strconv.ParseUint(get(6), 10, 64)
	if err != nil {
		return 0, ProductInput{}, false
	}

	return id, ProductInput{
		Name:        get(1),
		Description: get(2),
		Price:       price,
		ImageURL:    get(5),
		Stock:       stock,
		CategoryID:  uint(categoryID),
	}, true
}
