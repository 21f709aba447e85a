package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"nabilpos/internal/backend"
	"nabilpos/internal/journal"
	applog "nabilpos/internal/log"
	"nabilpos/internal/pos"
)

type JournalHandler struct {
	Store        *journal.Store
	Client       *backend.Client
	Printer      pos.Printer
	PrintTimeout time.Duration
}

func (h *JournalHandler) Recent(c *fiber.Ctx) error {
	jobs, err := h.Store.Recent(c.QueryInt("limit", 20))
	if err != nil {
		applog.Error(c, "journal.list", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load journal"})
	}
	return c.JSON(fiber.Map{"jobs": jobs})
}

// Reprint re-issues a journaled receipt through a fresh print handoff, so a
// reprint gets the same at-most-once and timeout guarantees as the original.
func (h *JournalHandler) Reprint(c *fiber.Ctx) error {
	id := c.Params("id")
	job, err := h.Store.Get(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "print job not found"})
	}
	sale, err := job.Sale()
	if err != nil {
		applog.Error(c, "journal.reprint.decode", err, map[string]any{"job": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "stored sale is unreadable"})
	}
	if err := h.Store.BumpAttempts(id); err != nil {
		applog.Error(c, "journal.reprint.bump", err, map[string]any{"job": id})
	}

	store := h.Store
	pos.NewHandoff(sale, h.Printer, h.PrintTimeout, func(outcome pos.PrintOutcome) {
		if err := store.SetOutcome(id, string(outcome)); err != nil {
			applog.Fail("journal.reprint.outcome", err, map[string]any{"job": id})
		}
	}).Start()

	applog.Audit(c, "journal.reprint", map[string]any{"job": id, "order_number": job.OrderNumber})
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "reprinting"})
}

// Report proxies the backend sales report. A newer request with different
// parameters cancels the one in flight; the superseded caller gets a 409 so
// its stale response never lands on the screen.
func (h *JournalHandler) Report(c *fiber.Ctx) error {
	rows, err := h.Client.SalesReport(backend.ReportParams{
		From: c.Query("from"),
		To:   c.Query("to"),
	})
	if err != nil {
		if err == context.Canceled {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "superseded by a newer request"})
		}
		applog.Error(c, "report.fetch", err, nil)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "report unavailable"})
	}
	return c.JSON(fiber.Map{"rows": rows})
}
