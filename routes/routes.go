package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	"github.com/junaidrashid-git/storefront-api/services"
	"gorm.io/gorm"
)

type Dependencies struct {
	DB      *gorm.DB
	Catalog *services.CatalogService
	Cart    *services.CartService
	Live    cartControllers.LiveCarts
}

// SetupRoutes is the single entry point that wires up the catalog, cart and
// health endpoints.
func SetupRoutes(r *gin.Engine, deps Dependencies) {
	r.GET("/health", health(deps.DB))

	// 1️⃣ Categories and products
	SetupCatalogRoutes(r, deps.Catalog)

	// 2️⃣ Session carts
	SetupCartRoutes(r, deps.Cart, deps.Live)
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
