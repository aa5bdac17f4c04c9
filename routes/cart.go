package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	"github.com/junaidrashid-git/storefront-api/services"
)

// SetupCartRoutes registers all “/cart/*” endpoints. The session id travels
// in the path or the body, there is no login.
func SetupCartRoutes(r *gin.Engine, svc *services.CartService, live cartControllers.LiveCarts) {
	cartGroup := r.Group("/cart")
	{
		cartGroup.GET("/:sessionId", cartControllers.GetCart(svc))                // GET /cart/:sessionId
		cartGroup.GET("/:sessionId/ws", cartControllers.CartWebSocket(svc, live)) // GET /cart/:sessionId/ws
		cartGroup.POST("", cartControllers.AddToCart(svc))                        // POST /cart
		cartGroup.PUT("/:id", cartControllers.UpdateCartItem(svc))                // PUT /cart/:id
		cartGroup.DELETE("/:id", cartControllers.DeleteCartItem(svc))             // DELETE /cart/:id
		cartGroup.DELETE("/clear/:sessionId", cartControllers.ClearCart(svc))     // DELETE /cart/clear/:sessionId
	}
}
