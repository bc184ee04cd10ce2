package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/koraei/bank/internal/users"
)

// RegisterUserRoutes mounts the user CRUD endpoints.
func RegisterUserRoutes(api fiber.Router, h *users.Handler) {
	grp := api.Group("/users")
	grp.Get("/", h.List)
	grp.Get("/:id", h.Get)
	grp.Post("/", h.Create)
	grp.Put("/:id", h.Update)
}
