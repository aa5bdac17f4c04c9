package cartControllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"github.com/junaidrashid-git/storefront-api/services"
	"github.com/rs/zerolog"
)

type AddItemInput struct {
	SessionID string `json:"sessionId" binding:"required"`
	ProductID uint   `json:"productId" binding:"required"`
	// Quantity defaults to 1 when omitted.
	Quantity *int `json:"quantity"`
}

type UpdateItemInput struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// LiveCarts serves the websocket that streams a session's cart.
type LiveCarts interface {
	ServeWS(w http.ResponseWriter, r *http.Request, sessionID string, initial any) error
}

// GET /cart/:sessionId
func GetCart(svc *services.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := svc.Summarize(c.Request.Context(), c.Param("sessionId"))
		if err != nil {
			apierror.Respond(c, err, "Failed to fetch cart")
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

// POST /cart
func AddToCart(svc *services.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input AddItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		quantity := 1
		if input.Quantity != nil {
			quantity = *input.Quantity
		}

		item, err := svc.Add(c.Request.Context(), strings.TrimSpace(input.SessionID), input.ProductID, quantity)
		if err != nil {
			apierror.Respond(c, err, "Failed to add item to cart")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Item added to cart", "item": item})
	}
}

// PUT /cart/:id
func UpdateCartItem(svc *services.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := apierror.ParseID(c, "id", "cart item")
		if !ok {
			return
		}
		var input UpdateItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		item, err := svc.SetQuantity(c.Request.Context(), id, *input.Quantity)
		if err != nil {
			apierror.Respond(c, err, "Failed to update cart item")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart item updated", "item": item})
	}
}

// DELETE /cart/:id
func DeleteCartItem(svc *services.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := apierror.ParseID(c, "id", "cart item")
		if !ok {
			return
		}
		if err := svc.Remove(c.Request.Context(), id); err != nil {
			apierror.Respond(c, err, "Failed to delete item")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart item deleted"})
	}
}

// DELETE /cart/clear/:sessionId
func ClearCart(svc *services.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		removed, err := svc.Clear(c.Request.Context(), c.Param("sessionId"))
		if err != nil {
			apierror.Respond(c, err, "Failed to clear cart")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared", "removed": removed})
	}
}

// GET /cart/:sessionId/ws
func CartWebSocket(svc *services.CartService, live LiveCarts) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		summary, err := svc.Summarize(c.Request.Context(), sessionID)
		if err != nil {
			apierror.Respond(c, err, "Failed to fetch cart")
			return
		}
		if err := live.ServeWS(c.Writer, c.Request, sessionID, summary); err != nil {
			// the upgrader has already answered the client
			zerolog.Ctx(c.Request.Context()).Debug().Err(err).Str("session_id", sessionID).Msg("websocket upgrade failed")
		}
	}
}
