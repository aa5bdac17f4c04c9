package productcontroller

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"github.com/junaidrashid-git/storefront-api/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GET /products/export
func ExportProductsToExcel(svc *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// build in memory so a failure can still be answered with JSON
		var buf bytes.Buffer
		if err := svc.ExportProducts(c.Request.Context(), &buf); err != nil {
			apierror.Respond(c, err, "Failed to write Excel file")
			return
		}

		c.Header("Content-Disposition", "attachment; filename=products.xlsx")
		c.Header("Expires", "0")
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}
