package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

const maxProductPageSize = 100

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// GetAllProducts returns the catalog, newest first
// GET /api/products?category=&limit=&offset=
func (ctrl *ProductController) GetAllProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	opts := service.ProductListOptions{Category: c.Query("category")}
	var ok bool
	if opts.Limit, ok = parseQueryInt(c, "limit", 0, maxProductPageSize); !ok {
		return
	}
	if opts.Offset, ok = parseQueryInt(c, "offset", 0, -1); !ok {
		return
	}

	products, err := ctrl.productService.ListProducts(c.Request.Context(), opts)
	if err != nil {
		log.Error("Failed to fetch products", err, nil)
		apperrors.ParseAndRespond(c, err, "retrieving products")
		return
	}

	message := "Products retrieved successfully!"
	if len(products) == 0 {
		message = "No products available at the moment."
	}

	log.Debug("Products fetched", map[string]interface{}{
		"count":    len(products),
		"category": opts.Category,
	})

	c.JSON(http.StatusOK, gin.H{
		"message":  message,
		"products": products,
	})
}

// GetProductByID returns a product by ID
// GET /api/products/:id
func (ctrl *ProductController) GetProductByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProductByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "Product not found")
			return
		}
		log.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		apperrors.ParseAndRespond(c, err, "retrieving product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product retrieved successfully!",
		"product": product,
	})
}

// parseQueryInt reads an optional non-negative integer query parameter.
// max < 0 means unbounded. It writes 400 and returns false on bad input.
func parseQueryInt(c *gin.Context, name string, def, max int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || (max >= 0 && n > max) {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "Invalid "+name)
		return 0, false
	}
	return n, true
}
