package productcontroller

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"github.com/junaidrashid-git/storefront-api/services"
	"github.com/shopspring/decimal"
)

// ProductInput is the JSON body for create and full update. Price accepts
// a number or a string.
type ProductInput struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	ImageURL    string           `json:"imageUrl"`
	Stock       int              `json:"stock"`
	CategoryID  uint             `json:"categoryId" binding:"required"`
}

func (in ProductInput) toService() services.ProductInput {
	return services.ProductInput{
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
		ImageURL:    in.ImageURL,
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
	}
}

// POST /products
func CreateProduct(svc *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		product, err := svc.CreateProduct(c.Request.Context(), input.toService())
		if err != nil {
			apierror.Respond(c, err, "Failed to create product")
			return
		}
		c.Header("Location", fmt.Sprintf("/products/%d", product.ID))
		c.JSON(http.StatusCreated, product)
	}
}
