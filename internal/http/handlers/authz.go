package handlers

import (
	"github.com/gofiber/fiber/v2"

	"nabilpos/internal/journal"
	applog "nabilpos/internal/log"
)

// RequireUnlocked redirects to the lock screen until a valid terminal session
// cookie is presented. JSON endpoints get a 401 instead of a redirect so the
// screen can show the lock overlay without following a navigation.
func RequireUnlocked(store *journal.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tsid := c.Cookies("tsid")
		if tsid != "" {
			ok, err := store.SessionValid(tsid)
			if err == nil && ok {
				return c.Next()
			}
		}
		applog.Security(c, "access.denied.locked", nil)
		if c.Accepts("html", "json") == "json" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "terminal locked"})
		}
		return c.Redirect("/lock")
	}
}
