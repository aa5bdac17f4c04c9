package productcontroller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"github.com/junaidrashid-git/storefront-api/services"
)

type StockInput struct {
	Stock *int `json:"stock" binding:"required"`
}

// PUT /products/:id
func UpdateProduct(svc *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := apierror.ParseID(c, "id", "product")
		if !ok {
			return
		}
		var input ProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		product, err := svc.UpdateProduct(c.Request.Context(), id, input.toService())
		if err != nil {
			apierror.Respond(c, err, "Failed to update product")
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// PATCH /products/:id/stock
func UpdateStock(svc *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := apierror.ParseID(c, "id", "product")
		if !ok {
			return
		}
		var input StockInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		if err := svc.UpdateStock(c.Request.Context(), id, *input.Stock); err != nil {
			apierror.Respond(c, err, "Failed to update stock")
			return
		}
		c.JSON(http.StatusOK, gin.H{"productId": id, "newStock": *input.Stock})
	}
}
