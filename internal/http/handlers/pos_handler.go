package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "nabilpos/internal/log"
	"nabilpos/internal/pos"
	"nabilpos/internal/validate"
)

type PosHandler struct {
	Screen *pos.Screen
}

// Page serves the POS screen shell; the page script drives the JSON API
// below and applies the focus intent from each state snapshot.
func (h *PosHandler) Page(c *fiber.Ctx) error {
	return render(c, "pos", fiber.Map{"View": h.Screen.Snapshot()})
}

func (h *PosHandler) State(c *fiber.Ctx) error {
	return c.JSON(h.Screen.Snapshot())
}

// blocked logs a gated-off mutation attempt. The mutation itself already
// no-opped inside the builder; the banner on the screen is the operator's
// feedback, not a per-action error.
func (h *PosHandler) blocked(c *fiber.Ctx, action string) {
	st := h.Screen.Gate.State()
	if !st.Active {
		applog.Security(c, "pos.gate.block", map[string]any{"action": action, "reason": st.Reason})
	}
}

func (h *PosHandler) AddRow(c *fiber.Ctx) error {
	if !h.Screen.Builder.AddRow() {
		h.blocked(c, "row.add")
	}
	return h.State(c)
}

func (h *PosHandler) RemoveRow(c *fiber.Ctx) error {
	idx, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad row index"})
	}
	if !h.Screen.Builder.RemoveRow(idx) {
		h.blocked(c, "row.remove")
	}
	return h.State(c)
}

func (h *PosHandler) SetCode(c *fiber.Ctx) error {
	idx, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad row index"})
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad body"})
	}
	code, ok := validate.Code(body.Code)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "code"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid code"})
	}
	if !h.Screen.Builder.SetCode(idx, code) {
		h.blocked(c, "row.code")
	}
	return h.State(c)
}

func (h *PosHandler) SetQty(c *fiber.Ctx) error {
	idx, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad row index"})
	}
	var body struct {
		Qty string `json:"qty"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad body"})
	}
	qty, ok := validate.Qty(body.Qty)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "qty"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid quantity"})
	}
	if !h.Screen.Builder.SetQty(idx, qty) {
		h.blocked(c, "row.qty")
	}
	return h.State(c)
}

func (h *PosHandler) SetFocus(c *fiber.Ctx) error {
	var body struct {
		Row   int    `json:"row"`
		Field string `json:"field"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad body"})
	}
	field := pos.FieldQty
	if body.Field == string(pos.FieldCode) {
		field = pos.FieldCode
	}
	h.Screen.Builder.SetFocus(body.Row, field)
	return h.State(c)
}

// Tap applies the product-grid tap: increment an existing row, fill the
// first empty row, or append a new one.
func (h *PosHandler) Tap(c *fiber.Ctx) error {
	var body struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad body"})
	}
	if _, ok := h.Screen.Catalog.ByCode(body.Code); !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown product"})
	}
	if !h.Screen.Builder.TapProduct(body.Code) {
		h.blocked(c, "product.tap")
	}
	return h.State(c)
}

// Key forwards one keyboard event into the keypad. Enter is coalesced
// server-side; the screen will pick up the submission result from the next
// state snapshot.
func (h *PosHandler) Key(c *fiber.Ctx) error {
	var body struct {
		Key string `json:"key"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad body"})
	}
	key, ok := validate.Key(body.Key)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad key"})
	}
	h.Screen.Keypad.HandleKey(key)
	return h.State(c)
}

// webPrompter answers the coordinator's interactive questions from request
// flags; the dialog text itself is derived client-side from the result.
type webPrompter struct {
	confirmTotal     bool
	acceptDuplicates bool
}

func (p webPrompter) ConfirmTotal(float64) bool       { return p.confirmTotal }
func (p webPrompter) ConfirmDuplicates([]string) bool { return p.acceptDuplicates }
func (p webPrompter) InvalidCodes([]string)           {}
func (p webPrompter) MissingQuantities([]string)      {}
func (p webPrompter) EmptyOrder()                     {}
func (p webPrompter) ShiftInactive(string)            {}
func (p webPrompter) SubmitError(error)               {}
func (p webPrompter) PrintWarning(string)             {}

// Submit runs the submission machine. The first call typically comes
// without confirm flags and returns the computed total for the confirmation
// dialog; the screen re-posts with confirm_total (and accept_duplicates
// after the duplicate warning) to proceed.
func (h *PosHandler) Submit(c *fiber.Ctx) error {
	var body struct {
		ConfirmTotal     bool `json:"confirm_total"`
		AcceptDuplicates bool `json:"accept_duplicates"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad body"})
		}
	}

	res := h.Screen.Orders.Submit(c.Context(), webPrompter{
		confirmTotal:     body.ConfirmTotal,
		acceptDuplicates: body.AcceptDuplicates,
	})

	switch res.Status {
	case pos.ResultSubmitted:
		applog.Audit(c, "order.submit", map[string]any{
			"order_number": res.OrderNumber,
			"total":        res.Total,
			"duplicate":    res.Duplicate,
		})
	case pos.ResultFailed:
		applog.Error(c, "order.submit.fail", nil, map[string]any{"reason": res.Reason})
	case pos.ResultInactive:
		applog.Security(c, "pos.gate.block", map[string]any{"action": "submit", "reason": res.Reason})
	}

	// Echo the stored sequence so the screen can mark this result consumed
	// before the next snapshot re-delivers it.
	_, seq := h.Screen.Orders.LastResult()
	return c.JSON(struct {
		pos.SubmitResult
		PromptSeq int `json:"prompt_seq"`
	}{res, seq})
}

func (h *PosHandler) Reset(c *fiber.Ctx) error {
	h.Screen.Orders.ResetOrder()
	applog.Info(c, "order.reset", nil)
	return h.State(c)
}
