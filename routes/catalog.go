package routes

import (
	"github.com/gin-gonic/gin"
	productcontroller "github.com/junaidrashid-git/storefront-api/controllers/product"
	"github.com/junaidrashid-git/storefront-api/services"
)

// SetupCatalogRoutes registers all “/categories/*” and “/products/*” endpoints.
func SetupCatalogRoutes(r *gin.Engine, svc *services.CatalogService) {
	// ─────────── Category Management ───────────
	categories := r.Group("/categories")
	{
		categories.GET("", productcontroller.GetAllCategoriesWithProducts(svc))
		categories.GET("/:id", productcontroller.GetCategory(svc))
		categories.POST("", productcontroller.CreateCategory(svc))
		categories.PUT("/:id", productcontroller.UpdateCategory(svc))
		categories.DELETE("/:id", productcontroller.DeleteCategory(svc))
	}

	// ─────────── Product Management ───────────
	products := r.Group("/products")
	{
		products.GET("", productcontroller.GetProducts(svc))
		products.GET("/search", productcontroller.SearchProducts(svc))
		products.GET("/export", productcontroller.ExportProductsToExcel(svc))
		products.GET("/category/:categoryId", productcontroller.GetProductsByCategory(svc))
		products.GET("/:id", productcontroller.GetProductByID(svc))
		products.POST("", productcontroller.CreateProduct(svc))
		products.POST("/import", productcontroller.ImportProductsFromExcel(svc))
		products.PUT("/:id", productcontroller.UpdateProduct(svc))
		products.PATCH("/:id/stock", productcontroller.UpdateStock(svc))
		products.DELETE("/:id", productcontroller.DeleteProduct(svc))
	}
}
