package handler

import (
	"ai-slidegen-be/internal/pkg/logger"
	internalWS "ai-slidegen-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ProgressHandler owns the websocket surface for pipeline progress. One
// socket per processId; a client opens it before submitting the document and
// receives progress, complete and error events as JSON frames.
type ProgressHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewProgressHandler(hub *internalWS.Hub, log logger.ILogger) *ProgressHandler {
	return &ProgressHandler{
		hub:    hub,
		logger: log,
	}
}

// ServeWs handles websocket requests from the peer.
func (h *ProgressHandler) ServeWs(c *fiber.Ctx) error {
	processID := c.Params("processId")
	if _, err := uuid.Parse(processID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid process ID format"})
	}

	// Upgrade via Fiber WebSocket Middleware
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("ProgressHandler", "Starting WebSocket session", map[string]interface{}{"process_id": processID})
			internalWS.ServeWs(h.hub, conn, processID)
			h.logger.Info("ProgressHandler", "WebSocket session ended", map[string]interface{}{"process_id": processID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *ProgressHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/:processId", h.ServeWs)
}
