package router

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

type Router struct {
	authController    *controller.AuthController
	resetController   *controller.PasswordResetController
	productController *controller.ProductController
	cartController    *controller.CartController
	contactController *controller.ContactController
	uploadController  *controller.UploadController
	wsController      *controller.WSController
	authMiddleware    *middleware.AuthMiddleware
	config            *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	resetController *controller.PasswordResetController,
	productController *controller.ProductController,
	cartController *controller.CartController,
	contactController *controller.ContactController,
	uploadController *controller.UploadController,
	wsController *controller.WSController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:    authController,
		resetController:   resetController,
		productController: productController,
		cartController:    cartController,
		contactController: contactController,
		uploadController:  uploadController,
		wsController:      wsController,
		authMiddleware:    authMiddleware,
		config:            cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(cors.New(corsConfig(r.config.CORS.AllowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Storefront API is running",
		})
	})

	router.POST("/signup", r.authController.Signup)
	router.POST("/login", r.authController.Login)
	router.POST("/send_mail", r.contactController.SendMail)

	authenticated := r.authMiddleware.Authenticate()

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/refresh", r.authController.RefreshToken)
			auth.POST("/logout", authenticated, r.authController.Logout)
			auth.POST("/request-password-reset", r.resetController.RequestPasswordReset)
			auth.POST("/confirm-password-reset", r.resetController.ConfirmPasswordReset)
		}

		user := api.Group("/user", authenticated)
		{
			user.GET("/me", r.authController.GetMe)
			user.PUT("/update-email", r.authController.UpdateEmail)
			user.PUT("/update-password", r.authController.UpdatePassword)
		}

		products := api.Group("/products")
		{
			products.GET("", r.productController.GetAllProducts)
			products.GET("/:id", r.productController.GetProductByID)
		}

		cart := api.Group("/cart", authenticated)
		{
			cart.GET("", r.cartController.GetCart)
			cart.POST("/add", r.cartController.AddToCart)
			cart.DELETE("/remove/:cartItemId", r.cartController.RemoveFromCart)
			cart.PUT("/update/:cartItemId", r.cartController.UpdateCartItem)
			cart.DELETE("", r.cartController.ClearCart)
		}

		api.POST("/upload/presigned-url", r.uploadController.GeneratePresignedURL)

		// Browsers cannot set headers on a websocket handshake.
		api.GET("/ws", r.authMiddleware.Authenticate(true), r.wsController.CartBadge)
	}

	router.NoRoute(spaFallback(r.config.Server.StaticDir))

	return router
}

// corsConfig allows credentialed requests from the configured origins. With
// no origins configured every origin is allowed without credentials.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		logger.Warn("ALLOWED_ORIGINS is empty, allowing all origins", nil)
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// spaFallback serves built frontend assets from staticDir and index.html for
// any other GET, so client-side routes survive a reload. Unknown API paths
// get a JSON 404.
func spaFallback(staticDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/api" || strings.HasPrefix(path, "/api/") ||
			(c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "Route not found")
			return
		}
		if staticDir == "" {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "Route not found")
			return
		}

		// Clean against "/" first so ".." cannot climb out of staticDir.
		file := filepath.Join(staticDir, filepath.FromSlash(filepath.Clean("/"+path)))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}

		index := filepath.Join(staticDir, "index.html")
		if _, err := os.Stat(index); err != nil {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "Route not found")
			return
		}
		c.File(index)
	}
}
