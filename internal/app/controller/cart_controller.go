package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/shopspring/decimal"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ProductTitle string           `json:"product_title" binding:"required"`
	ProductImage *string          `json:"product_image"`
	ProductDesc  *string          `json:"product_desc"`
	ProductPrice *decimal.Decimal `json:"product_price" binding:"required"`
	Quantity     int              `json:"quantity" binding:"required,gt=0"`
}

type UpdateCartRequest struct {
	Quantity *int `json:"quantity" binding:"required,gte=0"`
}

// AddToCart adds a product or increases its quantity
// POST /api/cart/add
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindError(c, err)
		return
	}

	item, created, err := ctrl.cartService.AddItem(c.Request.Context(), service.AddCartItemInput{
		UserID:       userID,
		ProductTitle: req.ProductTitle,
		ProductImage: req.ProductImage,
		ProductDesc:  req.ProductDesc,
		ProductPrice: req.ProductPrice,
		Quantity:     req.Quantity,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCartInput):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
		case errors.Is(err, service.ErrCartUserNotFound):
			apperrors.BadRequest(c, apperrors.CartUserNotFound, "User does not exist. Please login with a valid user.")
		default:
			log.Error("Failed to add to cart", err, map[string]interface{}{
				"user_id": userID,
			})
			apperrors.ParseAndRespond(c, err, "adding to cart")
		}
		return
	}

	if created {
		c.JSON(http.StatusCreated, gin.H{
			"message":  "Product added to cart successfully!",
			"cartItem": item,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Product quantity updated in cart successfully!",
		"cartItem": item,
	})
}

// GetCart lists the cart, newest first, with unit count and total
// GET /api/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	summary, err := ctrl.cartService.Summary(c.Request.Context(), userID)
	if err != nil {
		log.Error("Failed to fetch cart", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, err, "retrieving cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Cart items retrieved successfully!",
		"cartItems": summary.Items,
		"count":     summary.Count,
		"total":     summary.Total.StringFixed(2),
	})
}

// RemoveFromCart deletes one of the caller's cart rows
// DELETE /api/cart/remove/:cartItemId
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	cartItemID, ok := parseIDParam(c, "cartItemId")
	if !ok {
		return
	}

	removed, err := ctrl.cartService.RemoveItem(c.Request.Context(), userID, cartItemID)
	if err != nil {
		if errors.Is(err, service.ErrCartItemNotFound) {
			apperrors.NotFound(c, apperrors.CartItemNotFound, "Cart item not found or does not belong to user.")
			return
		}
		log.Error("Failed to remove cart item", err, map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": cartItemID,
		})
		apperrors.ParseAndRespond(c, err, "removing item from cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Cart item removed successfully!",
		"removedItem": removed,
	})
}

// UpdateCartItem sets the quantity; zero removes the row
// PUT /api/cart/update/:cartItemId
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	cartItemID, ok := parseIDParam(c, "cartItemId")
	if !ok {
		return
	}

	var req UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	item, removed, err := ctrl.cartService.UpdateQuantity(c.Request.Context(), userID, cartItemID, *req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCartInput):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Quantity must be a non-negative number.")
		case errors.Is(err, service.ErrCartItemNotFound):
			apperrors.NotFound(c, apperrors.CartItemNotFound, "Cart item not found or does not belong to user.")
		default:
			log.Error("Failed to update cart item", err, map[string]interface{}{
				"user_id":      userID,
				"cart_item_id": cartItemID,
			})
			apperrors.ParseAndRespond(c, err, "updating cart item")
		}
		return
	}

	message := "Cart item quantity updated successfully!"
	if removed {
		message = "Cart item removed successfully!"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  message,
		"cartItem": item,
	})
}

// ClearCart empties the caller's cart
// DELETE /api/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := ctrl.cartService.ClearCart(c.Request.Context(), userID); err != nil {
		log.Error("Failed to clear cart", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, err, "clearing cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared successfully!"})
}

// requireUser writes 401 and returns false when no session identity is set.
func requireUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Please login to continue")
		return 0, false
	}
	return userID, true
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}
