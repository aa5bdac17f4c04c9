package productcontroller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"github.com/junaidrashid-git/storefront-api/services"
)

// POST /products/import
// Multipart field "file" holds the workbook.
func ImportProductsFromExcel(svc *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		excelFileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is required"})
			return
		}

		file, err := excelFileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open Excel file"})
			return
		}
		defer file.Close()

		result, err := svc.ImportProducts(c.Request.Context(), file, excelFileHeader.Size)
		if err != nil {
			apierror.Respond(c, err, "Failed to import products")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":      "Import completed",
			"createdCount": result.Created,
			"updatedCount": result.Updated,
			"skippedCount": result.Skipped,
		})
	}
}
