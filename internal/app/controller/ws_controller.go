package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/middleware"
	ws "github.com/ikkim/storefront-backend/internal/websocket"
)

type WSController struct {
	hub         *ws.Hub
	cartService service.CartService
	upgrader    websocket.Upgrader
}

// NewWSController only upgrades requests whose Origin is in allowedOrigins,
// or any origin when the list is empty. Requests without an Origin header
// (non-browser clients) are accepted.
func NewWSController(hub *ws.Hub, cartService service.CartService, allowedOrigins []string) *WSController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &WSController{
		hub:         hub,
		cartService: cartService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed[origin]
			},
		},
	}
}

// CartBadge streams cart_updated events for the signed-in user
// GET /api/ws?token=
func (ctrl *WSController) CartBadge(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	// Read before the upgrade; the request context ends with the handler.
	summary, err := ctrl.cartService.Summary(c.Request.Context(), userID)
	if err != nil {
		log.Warn("Failed to load cart for badge", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the failure response.
		log.Warn("Failed to upgrade to WebSocket", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	client := ctrl.hub.NewClient(userID, &ws.Conn{Conn: conn})
	if summary != nil {
		client.SendCartCount(summary.Count)
	}
	client.Start()

	log.Info("WebSocket connection established", map[string]interface{}{
		"user_id": userID,
	})
}
