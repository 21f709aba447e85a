package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"nabilpos/internal/backend"
	"nabilpos/internal/config"
	"nabilpos/internal/http/handlers"
	"nabilpos/internal/journal"
	applog "nabilpos/internal/log"
	"nabilpos/internal/pos"
	"nabilpos/internal/printing"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := journal.OpenDB(cfg.JournalDSN)
	if err != nil {
		log.Fatal(err)
	}
	if err := journal.SeedPIN(db, cfg.TerminalPIN); err != nil {
		log.Fatal(err)
	}
	store := journal.NewStore(db)

	// Backend wiring; the terminal keeps working in a degraded mode when the
	// backend is unreachable at boot.
	client := backend.New(cfg.BackendURL, cfg.BackendToken, 10*time.Second)

	bootCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	operator, err := client.User(bootCtx)
	if err != nil {
		applog.Fail("boot.user", err, nil)
		operator = nil // gate stays inactive until a retry lands
	}
	products, err := client.Products(bootCtx)
	if err != nil || len(products) == 0 {
		applog.Fail("boot.products", err, map[string]any{"fallback": true})
		products = pos.FallbackProducts()
	}
	categories, err := client.Categories(bootCtx)
	if err != nil {
		applog.Fail("boot.categories", err, nil)
		categories = nil // catalog derives categories from products
	}
	catalog := pos.NewCatalog(products, categories)

	printer := &printing.Journaled{
		Next:  printing.NewSpooler(cfg.SpoolDir, cfg.SpoolTimeout),
		Store: store,
	}

	sess := &pos.Session{Operator: operator, Token: cfg.BackendToken, Terminal: cfg.TerminalName}
	screen := pos.NewScreen(sess, catalog, client, printer, cfg.EnterDebounce, cfg.PrintTimeout)
	printer.TxnID = screen.Orders.TransactionID
	screen.Start(cfg.ShiftPoll)

	if operator == nil {
		go func() {
			tick := time.NewTicker(cfg.ShiftPoll)
			defer tick.Stop()
			for range tick.C {
				op, err := client.User(context.Background())
				if err != nil {
					continue
				}
				st := screen.SetOperator(op)
				applog.Event("boot.user.recovered", map[string]any{"active": st.Active})
				return
			}
		}()
	}

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	// Attach the session operator for log entries
	app.Use(func(c *fiber.Ctx) error {
		if op := screen.Operator(); op != nil {
			c.Locals("operator", op.Name)
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		// One cashier hammering keys is the normal case, not abuse.
		Max:        600,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.terminal.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "header:X-CSRF-Token",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		Next: func(c *fiber.Ctx) bool {
			// The PIN form is its own gate and is throttled separately.
			return c.Path() == "/lock" && c.Method() == fiber.MethodPost
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "security check failed, refresh the page"})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	app.Static("/static", "./web/static")

	// ---------- App handlers ----------
	deps := handlers.NewDeps(screen, store, client, printer, cfg.PrintTimeout)

	// Lock screen (the only surface reachable while locked)
	app.Get("/lock", deps.Lock.Form)
	app.Post("/lock", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.unlock.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("lock", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), deps.Lock.Unlock)
	app.Post("/lock/engage", deps.Lock.Lock)

	unlocked := handlers.RequireUnlocked(store)
	app.Get("/", unlocked, deps.Pos.Page)

	api := app.Group("/api", unlocked)
	api.Get("/pos/state", deps.Pos.State)
	api.Post("/pos/rows", deps.Pos.AddRow)
	api.Post("/pos/rows/:index/remove", deps.Pos.RemoveRow)
	api.Post("/pos/rows/:index/code", deps.Pos.SetCode)
	api.Post("/pos/rows/:index/qty", deps.Pos.SetQty)
	api.Post("/pos/focus", deps.Pos.SetFocus)
	api.Post("/pos/tap", deps.Pos.Tap)
	api.Post("/pos/key", deps.Pos.Key)
	api.Post("/pos/submit", deps.Pos.Submit)
	api.Post("/pos/reset", deps.Pos.Reset)

	api.Get("/catalog", deps.Catalog.Grid)
	api.Get("/catalog/categories", deps.Catalog.Categories)

	api.Get("/journal", deps.Journal.Recent)
	api.Post("/journal/:id/reprint", deps.Journal.Reprint)
	api.Get("/reports", deps.Journal.Report)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	// ---------- Shutdown ----------
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Printf("[shutdown] closing terminal session")
		screen.Close()
		_ = app.Shutdown()
	}()

	if err := app.Listen(cfg.Addr); err != nil {
		screen.Close()
		log.Fatal(err)
	}
}
