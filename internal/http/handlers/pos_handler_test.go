package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"nabilpos/internal/domain"
	"nabilpos/internal/http/handlers"
	"nabilpos/internal/journal"
	"nabilpos/internal/pos"
)

type stubBackend struct{}

func (stubBackend) SubmitSale(ctx context.Context, req domain.SaleRequest) (*domain.SaleResponse, error) {
	return &domain.SaleResponse{Sale: &domain.Sale{
		OrderNumber: "INV-1",
		TotalAmount: req.TotalAmount,
		Items:       req.Items,
	}}, nil
}

func (stubBackend) PreviousOrder(ctx context.Context) (domain.PreviousOrder, error) {
	return domain.PreviousOrder{Amount: 9.99, OrderNumber: "INV-0"}, nil
}

type stubPrinter struct{}

func (stubPrinter) Print(sale *domain.Sale, autoPrint bool, done func(err error)) {
	done(nil)
}

// Minimal app with the JSON API mounted; pages need templates and are
// covered elsewhere.
func newPosApp(t *testing.T, op *domain.Operator) (*fiber.App, *pos.Screen) {
	t.Helper()
	return newPosAppDebounce(t, op, 10*time.Millisecond)
}

func newPosAppDebounce(t *testing.T, op *domain.Operator, debounce time.Duration) (*fiber.App, *pos.Screen) {
	t.Helper()
	sess := &pos.Session{Operator: op, Terminal: "test-1"}
	catalog := pos.NewCatalog(pos.FallbackProducts(), nil)
	screen := pos.NewScreen(sess, catalog, stubBackend{}, stubPrinter{}, debounce, time.Second)
	t.Cleanup(screen.Close)

	db, err := journal.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	store := journal.NewStore(db)

	app := fiber.New()
	deps := handlers.NewDeps(screen, store, nil, stubPrinter{}, time.Second)
	api := app.Group("/api")
	api.Get("/pos/state", deps.Pos.State)
	api.Post("/pos/rows", deps.Pos.AddRow)
	api.Post("/pos/tap", deps.Pos.Tap)
	api.Post("/pos/key", deps.Pos.Key)
	api.Post("/pos/submit", deps.Pos.Submit)
	api.Post("/pos/reset", deps.Pos.Reset)
	api.Get("/catalog", deps.Catalog.Grid)
	api.Get("/catalog/categories", deps.Catalog.Categories)
	return app, screen
}

func adminOp() *domain.Operator {
	return &domain.Operator{ID: 1, Name: "Boss", Role: "admin"}
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestStateSnapshot(t *testing.T) {
	app, _ := newPosApp(t, adminOp())
	resp, out := doJSON(t, app, http.MethodGet, "/api/pos/state", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if out["terminal"] != "test-1" || out["operator"] != "Boss" {
		t.Fatalf("snapshot: %v", out)
	}
	gate := out["gate"].(map[string]any)
	if gate["active"] != true {
		t.Fatalf("gate: %v", gate)
	}
	if rows := out["rows"].([]any); len(rows) != 1 {
		t.Fatalf("rows: %v", rows)
	}
}

func TestTapAndRowEndpoints(t *testing.T) {
	app, screen := newPosApp(t, adminOp())

	resp, out := doJSON(t, app, http.MethodPost, "/api/pos/tap", `{"code":"01"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	rows := out["rows"].([]any)
	row := rows[0].(map[string]any)
	if row["code"] != "01" || row["qty"] != "1" || row["name"] != "Burger" {
		t.Fatalf("row: %v", row)
	}

	resp, _ = doJSON(t, app, http.MethodPost, "/api/pos/tap", `{"code":"nope"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown product should 404, got %d", resp.StatusCode)
	}

	resp, out = doJSON(t, app, http.MethodPost, "/api/pos/rows", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if rows := out["rows"].([]any); len(rows) != 2 {
		t.Fatalf("want 2 rows, got %v", rows)
	}
	if len(screen.Builder.Rows()) != 2 {
		t.Fatal("screen state out of sync")
	}
}

func TestSubmitConfirmationRoundtrip(t *testing.T) {
	app, screen := newPosApp(t, adminOp())
	doJSON(t, app, http.MethodPost, "/api/pos/tap", `{"code":"01"}`)

	// first post: no confirm flag, server answers cancelled with the total
	resp, out := doJSON(t, app, http.MethodPost, "/api/pos/submit", `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if out["status"] != "cancelled" {
		t.Fatalf("want cancelled, got %v", out)
	}
	if out["total"].(float64) != 8.99 {
		t.Fatalf("total: %v", out["total"])
	}

	// re-post with the confirmation
	_, out = doJSON(t, app, http.MethodPost, "/api/pos/submit", `{"confirm_total":true}`)
	if out["status"] != "submitted" || out["order_number"] != "INV-1" {
		t.Fatalf("want submitted, got %v", out)
	}

	// stub printer completed synchronously, so the order already reset
	if rows := screen.Builder.Rows(); rows[0].Code != "" {
		t.Fatalf("order should reset, got %+v", rows)
	}
}

func TestEnterKeyCoalescedAcrossAPI(t *testing.T) {
	app, _ := newPosAppDebounce(t, adminOp(), 75*time.Millisecond)
	doJSON(t, app, http.MethodPost, "/api/pos/tap", `{"code":"01"}`)

	for i := 0; i < 5; i++ {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/pos/key", `{"key":"Enter"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d", resp.StatusCode)
		}
	}
	time.Sleep(200 * time.Millisecond)

	_, out := doJSON(t, app, http.MethodGet, "/api/pos/state", "")
	if seq := int(out["prompt_seq"].(float64)); seq != 1 {
		t.Fatalf("5 rapid Enters must validate once, got seq %d", seq)
	}
	prompt := out["prompt"].(map[string]any)
	if prompt["status"] != "cancelled" || prompt["total"].(float64) != 8.99 {
		t.Fatalf("prompt: %v", prompt)
	}
}

func TestSubmitResponseSequenceMatchesSnapshot(t *testing.T) {
	app, _ := newPosApp(t, adminOp())
	doJSON(t, app, http.MethodPost, "/api/pos/tap", `{"code":"01"}`)

	_, out := doJSON(t, app, http.MethodPost, "/api/pos/submit", `{}`)
	seq, ok := out["prompt_seq"].(float64)
	if !ok {
		t.Fatalf("submit response missing prompt_seq: %v", out)
	}
	_, state := doJSON(t, app, http.MethodGet, "/api/pos/state", "")
	if state["prompt_seq"].(float64) != seq {
		t.Fatalf("snapshot seq %v, submit response seq %v", state["prompt_seq"], seq)
	}
}

func TestSubmitEmptyOrderStatus(t *testing.T) {
	app, _ := newPosApp(t, adminOp())
	_, out := doJSON(t, app, http.MethodPost, "/api/pos/submit", `{"confirm_total":true}`)
	if out["status"] != "empty" {
		t.Fatalf("want empty, got %v", out)
	}
}

func TestGatedTerminalBlocksMutations(t *testing.T) {
	app, screen := newPosApp(t, &domain.Operator{ID: 2, Name: "Till", Role: domain.RoleCounter})

	_, out := doJSON(t, app, http.MethodGet, "/api/pos/state", "")
	gate := out["gate"].(map[string]any)
	if gate["active"] != false || gate["reason"] != "No shift assigned. POS is inactive." {
		t.Fatalf("gate: %v", gate)
	}

	doJSON(t, app, http.MethodPost, "/api/pos/tap", `{"code":"01"}`)
	if rows := screen.Builder.Rows(); rows[0].Code != "" {
		t.Fatal("tap must not mutate a gated terminal")
	}

	_, out = doJSON(t, app, http.MethodPost, "/api/pos/submit", `{"confirm_total":true}`)
	if out["status"] != "inactive" {
		t.Fatalf("want inactive, got %v", out)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	app, _ := newPosApp(t, adminOp())

	resp, out := doJSON(t, app, http.MethodGet, "/api/catalog?q=burger", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if int(out["total"].(float64)) != 1 {
		t.Fatalf("search: %v", out)
	}

	resp, _ = doJSON(t, app, http.MethodGet, "/api/catalog?q=%3Cscript%3E", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad query should 400, got %d", resp.StatusCode)
	}

	_, out = doJSON(t, app, http.MethodGet, "/api/catalog/categories", "")
	cats := out["categories"].([]any)
	if len(cats) == 0 || cats[0] != "All" {
		t.Fatalf("categories: %v", out)
	}
}
