package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"nabilpos/internal/journal"
	applog "nabilpos/internal/log"
	"nabilpos/internal/validate"
)

// LockHandler guards the terminal behind a local PIN. The PIN protects the
// till between cashiers; it is not a substitute for backend authentication.
type LockHandler struct {
	Store *journal.Store
}

func (h *LockHandler) Form(c *fiber.Ctx) error {
	return render(c, "lock", fiber.Map{"Err": ""})
}

func (h *LockHandler) Unlock(c *fiber.Ctx) error {
	pin := c.FormValue("pin")
	if !validate.PIN(pin) {
		applog.Security(c, "lock.unlock.fail", map[string]any{"reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).Render("lock", fiber.Map{"Err": "Invalid PIN"})
	}
	if err := h.Store.CheckPIN(pin); err != nil {
		applog.Security(c, "lock.unlock.fail", nil)
		return c.Status(fiber.StatusUnauthorized).Render("lock", fiber.Map{"Err": "Invalid PIN"})
	}

	tsid := uuid.NewString()
	if err := h.Store.BindSession(tsid); err != nil {
		applog.Error(c, "lock.session.bind", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("lock", fiber.Map{"Err": "Try again"})
	}
	c.Cookie(&fiber.Cookie{
		Name:     "tsid",
		Value:    tsid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
	})
	applog.Audit(c, "lock.unlock.success", nil)
	return c.Redirect("/")
}

func (h *LockHandler) Lock(c *fiber.Ctx) error {
	tsid := c.Cookies("tsid")
	if tsid != "" {
		_ = h.Store.UnbindSession(tsid)
	}
	c.Cookie(&fiber.Cookie{
		Name:     "tsid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	applog.Audit(c, "lock.lock", nil)
	return c.Redirect("/lock")
}
