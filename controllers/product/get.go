package productcontroller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"github.com/junaidrashid-git/storefront-api/services"
)

// GetProductByID returns a single product with its category attached.
// URL param: /products/:id
func GetProductByID(svc *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := apierror.ParseID(c, "id", "product")
		if !ok {
			return
		}

		product, err := svc.GetProduct(c.Request.Context(), id)
		if err != nil {
			apierror.Respond(c, err, "Failed to retrieve product")
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
