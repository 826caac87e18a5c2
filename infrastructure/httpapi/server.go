package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"

	"github.com/ItsSkellyHer3/ChatIfy/infrastructure/ws"
)

// NewServer wires the REST routes, the static upload mount and the
// websocket endpoint onto a single fiber app. CORS is wide open so a
// browser client served from anywhere can talk to the API.
func NewServer(h *Handler, wsHandler *ws.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(logger.New())
	app.Use(cors.New())

	app.Get("/health", h.Health)
	app.Post("/guest", h.CreateGuest)
	app.Patch("/users/:uid", h.UpdateUser)
	app.Get("/channels", h.ListChannels)
	app.Get("/users", h.ListUsers)
	app.Get("/messages/:cid", h.History)
	app.Delete("/messages/:mid", h.DeleteMessage)
	app.Post("/upload", h.Upload)
	app.Static("/uploads", h.artifacts.Dir())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(wsHandler.Handle))

	return app
}
