package productcontroller

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"github.com/junaidrashid-git/storefront-api/services"
)

type CategoryInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// GET /categories
func GetAllCategoriesWithProducts(svc *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := svc.ListCategories(c.Request.Context())
		if err != nil {
			apierror.Respond(c, err, "Failed to fetch categories with products")
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

// GET /categories/:id
func GetCategory(svc *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := apierror.ParseID(c, "id", "category")
		if !ok {
			return
		}
		category, err := svc.GetCategory(c.Request.Context(), id)
		if err != nil {
			apierror.Respond(c, err, "Failed to fetch category")
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

// POST /categories
func CreateCategory(svc *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CategoryInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		category, err := svc.CreateCategory(c.Request.Context(), services.CategoryInput{Name: input.Name, Description: input.Description})
		if err != nil {
			apierror.Respond(c, err, "Failed to create category")
			return
		}
		c.Header("Location", fmt.Sprintf("/categories/%d", category.ID))
		c.JSON(http.StatusCreated, category)
	}
}

// PUT /categories/:id
func UpdateCategory(svc *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := apierror.ParseID(c, "id", "category")
		if !ok {
			return
		}
		var input CategoryInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		category, err := svc.UpdateCategory(c.Request.Context(), id, services.CategoryInput{Name: input.Name, Description: input.Description})
		if err != nil {
			apierror.Respond(c, err, "Failed to update category")
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

// DELETE /categories/:id
// Deletes the category's products and the cart rows holding them as well.
func DeleteCategory(svc *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := apierror.ParseID(c, "id", "category")
		if !ok {
			return
		}
		if err := svc.DeleteCategory(c.Request.Context(), id); err != nil {
			apierror.Respond(c, err, "Failed to delete category")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
	}
}
