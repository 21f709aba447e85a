package pos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"nabilpos/internal/domain"
	applog "nabilpos/internal/log"
)

// Submission defaults carried over from the counter device: every sale is a
// completed cash sale for a walk-in customer.
const (
	saleStatus      = "completed"
	paymentMethod   = "cash"
	walkInCustomer  = "Walk-in Customer"
	previousFetchTO = 5 * time.Second
)

var (
	ErrShiftInactive  = errors.New("shift inactive")
	ErrSubmitInFlight = errors.New("submission already in flight")
	ErrOrderEmpty     = errors.New("order has no filled items")
)

// State is the submission machine's position.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateConfirmPending
	StateSubmitting
	StateAwaitingPrint
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateConfirmPending:
		return "confirm_pending"
	case StateSubmitting:
		return "submitting"
	case StateAwaitingPrint:
		return "awaiting_print"
	}
	return "unknown"
}

// Prompter is the operator dialog surface. Handlers answer from request
// flags; tests script it; the keypad's debounced trigger declines the
// interactive questions so the screen can re-ask through its own dialogs.
type Prompter interface {
	ConfirmTotal(total float64) bool
	ConfirmDuplicates(names []string) bool
	InvalidCodes(codes []string)
	MissingQuantities(names []string)
	EmptyOrder()
	ShiftInactive(reason string)
	SubmitError(err error)
	PrintWarning(message string)
}

// SalesBackend is the slice of the remote backend the coordinator needs.
type SalesBackend interface {
	SubmitSale(ctx context.Context, req domain.SaleRequest) (*domain.SaleResponse, error)
	PreviousOrder(ctx context.Context) (domain.PreviousOrder, error)
}

// SubmitResult tells the caller how a submission attempt ended.
type SubmitResult struct {
	Status       string   `json:"status"`
	InvalidCodes []string `json:"invalid_codes,omitempty"`
	MissingNames []string `json:"missing_names,omitempty"`
	Duplicates   []string `json:"duplicates,omitempty"`
	Total        float64  `json:"total,omitempty"`
	OrderNumber  string   `json:"order_number,omitempty"`
	Duplicate    bool     `json:"duplicate,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// Result statuses.
const (
	ResultInactive     = "inactive"
	ResultBusy         = "busy"
	ResultInvalidCodes = "invalid_codes"
	ResultMissingQty   = "missing_qty"
	ResultEmpty        = "empty"
	ResultCancelled    = "cancelled"
	ResultFailed       = "failed"
	ResultSubmitted    = "submitted"
)

// Coordinator validates the order, confirms it with the operator, persists
// it through the backend and hands the persisted sale to a print handoff
// that triggers exactly one order reset.
type Coordinator struct {
	mu      sync.Mutex
	state   State
	gate    *Gate
	builder *Builder
	catalog *Catalog
	backend SalesBackend
	printer Printer

	printTimeout time.Duration
	txnID        string
	orderNumber  string
	prevOrder    domain.PreviousOrder
	lastSale     *domain.Sale
	handoff      *Handoff
	lastResult   *SubmitResult
	resultSeq    int
}

func NewCoordinator(gate *Gate, builder *Builder, catalog *Catalog, backend SalesBackend, printer Printer, printTimeout time.Duration) *Coordinator {
	return &Coordinator{
		gate:         gate,
		builder:      builder,
		catalog:      catalog,
		backend:      backend,
		printer:      printer,
		printTimeout: printTimeout,
		txnID:        newTransactionID(),
	}
}

// newTransactionID builds the idempotency token accompanying one order
// attempt. Generated at order start and regenerated after every completed or
// reset order, never re-derived from row data.
func newTransactionID() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("TXN-%d-%s", time.Now().UnixMilli(), token)
}

func (c *Coordinator) TransactionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txnID
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OrderNumber is the display number of the sale currently being printed, or
// empty between orders.
func (c *Coordinator) OrderNumber() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orderNumber
}

func (c *Coordinator) PreviousOrder() domain.PreviousOrder {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prevOrder
}

// LastResult returns the most recent submission result and its sequence
// number, letting the screen surface dialogs for keyboard-triggered
// submissions it did not initiate.
func (c *Coordinator) LastResult() (*SubmitResult, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResult, c.resultSeq
}

func (c *Coordinator) setResult(r SubmitResult) SubmitResult {
	c.mu.Lock()
	c.lastResult = &r
	c.resultSeq++
	c.mu.Unlock()
	return r
}

// RefreshPreviousOrder pulls the previous-order display from the backend.
// Best effort: failures are logged and ignored.
func (c *Coordinator) RefreshPreviousOrder(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, previousFetchTO)
	defer cancel()
	prev, err := c.backend.PreviousOrder(ctx)
	if err != nil {
		applog.Fail("pos.previous_order", err, nil)
		return
	}
	c.mu.Lock()
	c.prevOrder = prev
	c.mu.Unlock()
}

// Submit runs the full submission machine for the current order. The first
// failing validation wins; remediation focuses the offending field. Only one
// submission may be in flight, and the order is reset exactly once after the
// print handoff completes.
func (c *Coordinator) Submit(ctx context.Context, p Prompter) SubmitResult {
	if st := c.gate.Recheck(); !st.Active {
		p.ShiftInactive(st.Reason)
		return c.setResult(SubmitResult{Status: ResultInactive, Reason: st.Reason})
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return c.setResult(SubmitResult{Status: ResultBusy})
	}
	c.state = StateValidating
	c.mu.Unlock()

	res := c.validateAndSend(ctx, p)
	return c.setResult(res)
}

func (c *Coordinator) validateAndSend(ctx context.Context, p Prompter) SubmitResult {
	rows := c.builder.Rows()

	// 1. Invalid codes: filled rows whose code matches nothing. Report all,
	// clear and focus the first so the operator can retype.
	var invalid []string
	firstInvalid := -1
	for i, r := range rows {
		if r.Code == "" || cast.ToInt(r.Qty) <= 0 {
			continue
		}
		if _, ok := c.catalog.ByCode(r.Code); !ok {
			invalid = append(invalid, r.Code)
			if firstInvalid == -1 {
				firstInvalid = i
			}
		}
	}
	if len(invalid) > 0 {
		c.toIdle()
		p.InvalidCodes(invalid)
		c.builder.ClearCode(firstInvalid)
		return SubmitResult{Status: ResultInvalidCodes, InvalidCodes: invalid}
	}

	// 2. Missing quantities: rows with a code but no positive quantity.
	var missing []string
	firstMissing := -1
	for i, r := range rows {
		if r.Code == "" || cast.ToInt(r.Qty) > 0 {
			continue
		}
		if p2, ok := c.catalog.ByCode(r.Code); ok {
			missing = append(missing, p2.Name)
		} else {
			missing = append(missing, "Item with code "+r.Code)
		}
		if firstMissing == -1 {
			firstMissing = i
		}
	}
	if len(missing) > 0 {
		c.toIdle()
		p.MissingQuantities(missing)
		c.builder.FocusQty(firstMissing)
		return SubmitResult{Status: ResultMissingQty, MissingNames: missing}
	}

	// 3. Empty order.
	filled := c.builder.Filled()
	if len(filled) == 0 {
		c.toIdle()
		p.EmptyOrder()
		return SubmitResult{Status: ResultEmpty}
	}

	// Recompute from current state; never trust a stale cached total.
	total := c.builder.Total()

	c.mu.Lock()
	c.state = StateConfirmPending
	c.mu.Unlock()

	if !p.ConfirmTotal(total) {
		c.toIdle()
		return SubmitResult{Status: ResultCancelled, Total: total}
	}

	// Duplicate-product check: informational, needs a second confirmation.
	if dups := duplicateNames(filled, c.catalog); len(dups) > 0 {
		if !p.ConfirmDuplicates(dups) {
			c.toIdle()
			return SubmitResult{Status: ResultCancelled, Total: total, Duplicates: dups}
		}
	}

	c.mu.Lock()
	c.state = StateSubmitting
	txn := c.txnID
	c.mu.Unlock()

	req := c.buildRequest(filled, total, txn)

	resp, err := c.backend.SubmitSale(ctx, req)
	if err != nil {
		// Order state is preserved so the operator can retry; the
		// idempotent transaction id makes the retry safe.
		c.toIdle()
		applog.Fail("pos.submit", err, map[string]any{"transaction_id": txn})
		p.SubmitError(err)
		return SubmitResult{Status: ResultFailed, Total: total, Reason: err.Error()}
	}

	applog.Event("pos.submit.ok", map[string]any{
		"transaction_id": txn,
		"duplicate":      resp.Duplicate,
		"total":          total,
	})

	if resp.Sale == nil || len(resp.Sale.Items) == 0 {
		// Persisted but unprintable; warn and still reset via the skipped
		// handoff path.
		p.PrintWarning("Unable to prepare receipt for printing. Missing sale data.")
	}

	c.mu.Lock()
	c.state = StateAwaitingPrint
	c.lastSale = resp.Sale
	if resp.Sale != nil {
		c.orderNumber = resp.Sale.OrderNumber
	}
	h := NewHandoff(resp.Sale, c.printer, c.printTimeout, c.onPrintComplete)
	c.handoff = h
	c.mu.Unlock()

	go c.RefreshPreviousOrder(context.Background())
	h.Start()

	out := SubmitResult{Status: ResultSubmitted, Total: total, Duplicate: resp.Duplicate}
	if resp.Sale != nil {
		out.OrderNumber = resp.Sale.OrderNumber
	}
	return out
}

// onPrintComplete performs the order reset. The handoff fires it at most
// once; the state guard here keeps a stray late completion harmless.
func (c *Coordinator) onPrintComplete(outcome PrintOutcome) {
	c.mu.Lock()
	if c.state != StateAwaitingPrint {
		c.mu.Unlock()
		return
	}
	c.state = StateIdle
	c.lastSale = nil
	c.handoff = nil
	c.orderNumber = ""
	c.txnID = newTransactionID()
	c.mu.Unlock()

	applog.Event("pos.print.complete", map[string]any{"outcome": string(outcome)})
	c.builder.Reset()
	go c.RefreshPreviousOrder(context.Background())
}

// Teardown aborts an in-flight print handoff so unmounting the screen still
// completes the order exactly once.
func (c *Coordinator) Teardown() {
	c.mu.Lock()
	h := c.handoff
	c.mu.Unlock()
	if h != nil {
		h.Abort()
	}
}

// ResetOrder is the operator-initiated reset (F1/Escape/New Order). It is a
// no-op while a submission is past validation.
func (c *Coordinator) ResetOrder() {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return
	}
	c.txnID = newTransactionID()
	c.orderNumber = ""
	c.mu.Unlock()
	c.builder.Reset()
}

func (c *Coordinator) toIdle() {
	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()
}

func (c *Coordinator) buildRequest(filled []domain.OrderRow, total float64, txn string) domain.SaleRequest {
	items := make([]domain.SaleItem, 0, len(filled))
	for _, r := range filled {
		qty := cast.ToInt(r.Qty)
		p, ok := c.catalog.ByCode(r.Code)
		if !ok {
			// Validation already rejected unmatched codes; keep the row
			// representable anyway rather than dropping it silently.
			items = append(items, domain.SaleItem{Name: r.Code, Quantity: qty})
			continue
		}
		items = append(items, domain.SaleItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  qty,
			Price:     p.Price,
			Subtotal:  p.Price * float64(qty),
		})
	}
	return domain.SaleRequest{
		Items:         items,
		TotalAmount:   total,
		Status:        saleStatus,
		PaymentMethod: paymentMethod,
		CustomerName:  walkInCustomer,
		TransactionID: txn,
	}
}

// duplicateNames returns the product names appearing in more than one
// filled row, deduplicated.
func duplicateNames(filled []domain.OrderRow, catalog *Catalog) []string {
	count := map[string]int{}
	for _, r := range filled {
		count[r.Code]++
	}
	var names []string
	for code, n := range count {
		if n < 2 {
			continue
		}
		if p, ok := catalog.ByCode(code); ok {
			names = append(names, p.Name)
		} else {
			names = append(names, code)
		}
	}
	return names
}
