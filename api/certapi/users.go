package certapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trustlayer/trustlayer/storage/model"
)

// registerUsers wires the user management handlers. Once users exist only
// admins may manage them.
func registerUsers(r fiber.Router, users model.UsersStore) {
	g := r.Group("/users", requireAdmin)

	g.Get("/", func(c *fiber.Ctx) error {
		list, err := users.List()
		if err != nil {
			return err
		}
		return c.JSON(list)
	})

	type createReq struct {
		Username    string `json:"username"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
		Admin       bool   `json:"admin"`
	}
	g.Post("/", func(c *fiber.Ctx) error {
		var req createReq
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "error_description": "invalid body"})
		}
		if req.Username == "" || req.Password == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "error_description": "username and password are required"})
		}
		u, err := users.Create(req.Username, req.Password, req.DisplayName, req.Admin)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	})

	type updateReq struct {
		DisplayName *string `json:"display_name"`
		Password    *string `json:"password"`
		Admin       *bool   `json:"admin"`
		Disabled    *bool   `json:"disabled"`
	}
	g.Put("/:username", func(c *fiber.Ctx) error {
		var req updateReq
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "error_description": "invalid body"})
		}
		u, err := users.Update(c.Params("username"), req.DisplayName, req.Password, req.Admin, req.Disabled)
		if err != nil {
			return err
		}
		return c.JSON(u)
	})

	g.Get("/:username", func(c *fiber.Ctx) error {
		u, err := users.Get(c.Params("username"))
		if err != nil {
			return err
		}
		return c.JSON(u)
	})

	g.Delete("/:username", func(c *fiber.Ctx) error {
		if err := users.Delete(c.Params("username")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
