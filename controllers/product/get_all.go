package productcontroller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"github.com/junaidrashid-git/storefront-api/services"
)

// GET /products
func GetProducts(svc *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := svc.ListProducts(c.Request.Context())
		if err != nil {
			apierror.Respond(c, err, "Failed to fetch products")
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// GET /products/category/:categoryId
func GetProductsByCategory(svc *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryID, ok := apierror.ParseID(c, "categoryId", "category")
		if !ok {
			return
		}

		products, err := svc.ListProductsByCategory(c.Request.Context(), categoryID)
		if err != nil {
			apierror.Respond(c, err, "Failed to fetch products")
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// GET /products/search?query=
// A missing or blank query lists every product.
func SearchProducts(svc *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := svc.SearchProducts(c.Request.Context(), c.Query("query"))
		if err != nil {
			apierror.Respond(c, err, "Failed to search products")
			return
		}
		c.JSON(http.StatusOK, products)
	}
}
