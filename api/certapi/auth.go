package certapi

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/trustlayer/trustlayer/storage/model"
)

const localsUser = "user"

// authMiddleware enforces optional authentication for the issuer API.
// If there are no users in storage, all requests are allowed.
// If there is at least one user, it requires HTTP Basic authentication
// and validates credentials using UsersStore.
func authMiddleware(users model.UsersStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// If no users are configured, allow access
		count, err := users.Count()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server_error", "error_description": err.Error()})
		}
		if count == 0 {
			return c.Next()
		}

		// Require Basic auth
		username, password, ok := parseBasicAuth(c)
		if !ok {
			c.Set("WWW-Authenticate", "Basic realm=certificates")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_client", "error_description": "missing credentials"})
		}
		// Validate credentials
		u, err := users.Authenticate(username, password)
		if err != nil {
			c.Set("WWW-Authenticate", "Basic realm=certificates")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_client", "error_description": "invalid credentials"})
		}
		c.Locals(localsUser, u)
		return c.Next()
	}
}

// requireAdmin rejects authenticated non-admin users. When the API runs open
// (no users configured) every request passes.
func requireAdmin(c *fiber.Ctx) error {
	u := currentUser(c)
	if u != nil && !u.Admin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not_authorized", "error_description": "admin privileges required"})
	}
	return c.Next()
}

// currentUser returns the authenticated user or nil when the API runs open.
func currentUser(c *fiber.Ctx) *model.User {
	u, _ := c.Locals(localsUser).(*model.User)
	return u
}

// requesterID is the issuer account the request acts for.
func requesterID(c *fiber.Ctx) string {
	if u := currentUser(c); u != nil {
		return u.Username
	}
	return "default"
}

// isElevated reports whether the requester may operate on foreign
// certificates.
func isElevated(c *fiber.Ctx) bool {
	u := currentUser(c)
	return u == nil || u.Admin
}

// parseBasicAuth extracts Basic auth credentials from request headers
func parseBasicAuth(c *fiber.Ctx) (username, password string, ok bool) {
	auth := string(c.Request().Header.Peek("Authorization"))
	if auth == "" {
		return "", "", false
	}
	const prefix = "Basic "
	if !strings.HasPrefix(auth, prefix) {
		return "", "", false
	}
	b, err := base64.StdEncoding.DecodeString(auth[len(prefix):])
	if err != nil {
		return "", "", false
	}
	creds := string(b)
	i := strings.IndexByte(creds, ':')
	if i < 0 {
		return "", "", false
	}
	return creds[:i], creds[i+1:], true
}
