package productcontroller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"github.com/junaidrashid-git/storefront-api/services"
)

// DELETE /products/:id
// Cart rows holding the product go with it.
func DeleteProduct(svc *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := apierror.ParseID(c, "id", "product")
		if !ok {
			return
		}
		if err := svc.DeleteProduct(c.Request.Context(), id); err != nil {
			apierror.Respond(c, err, "Failed to delete product")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
	}
}
