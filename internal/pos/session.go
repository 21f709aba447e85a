package pos

import (
	"context"
	"sync"
	"time"

	"github.com/spf13/cast"

	"nabilpos/internal/domain"
)

// Session is the typed state the POS screen is constructed with, replacing
// ambient global lookups of role/shift/token.
type Session struct {
	Operator *domain.Operator
	Token    string
	Terminal string
}

// Screen wires the order-entry components for one terminal session and owns
// their lifecycle.
type Screen struct {
	Session *Session
	Gate    *Gate
	Catalog *Catalog
	Builder *Builder
	Keypad  *Keypad
	Orders  *Coordinator

	opMu     sync.Mutex
	stopPoll func()
}

func NewScreen(sess *Session, catalog *Catalog, backend SalesBackend, printer Printer, debounce, printTimeout time.Duration) *Screen {
	gate := NewGate(sess.Operator)
	builder := NewBuilder(gate, catalog)
	coord := NewCoordinator(gate, builder, catalog, backend, printer, printTimeout)
	keypad := NewKeypad(gate, builder, catalog, debounce, func() {
		// Keyboard-triggered submission: dialogs surface through the state
		// snapshot, so interactive questions are declined here.
		coord.Submit(context.Background(), quietPrompter{})
	}, coord.ResetOrder)

	return &Screen{
		Session: sess,
		Gate:    gate,
		Catalog: catalog,
		Builder: builder,
		Keypad:  keypad,
		Orders:  coord,
	}
}

// SetOperator installs operator data that arrived after construction, for a
// terminal that booted while the backend was unreachable.
func (s *Screen) SetOperator(op *domain.Operator) GateState {
	s.opMu.Lock()
	s.Session.Operator = op
	s.opMu.Unlock()
	return s.Gate.SetOperator(op)
}

// Operator returns the operator the session currently runs under.
func (s *Screen) Operator() *domain.Operator {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.Session.Operator
}

// Start begins the periodic shift re-evaluation and primes the
// previous-order display.
func (s *Screen) Start(pollEvery time.Duration) {
	s.stopPoll = s.Gate.StartPolling(pollEvery, func(st GateState) {
		if st.Active {
			go s.Orders.RefreshPreviousOrder(context.Background())
		}
	})
	if s.Gate.State().Active {
		go s.Orders.RefreshPreviousOrder(context.Background())
	}
}

// Close tears the screen down: polling stops, pending keyboard submissions
// are dropped, and an in-flight print handoff is completed so the order
// resets exactly once.
func (s *Screen) Close() {
	if s.stopPoll != nil {
		s.stopPoll()
	}
	s.Keypad.Close()
	s.Orders.Teardown()
}

// RowView is an order row resolved against the catalog for display.
type RowView struct {
	ID        int     `json:"id"`
	Code      string  `json:"code"`
	Qty       string  `json:"qty"`
	Name      string  `json:"name,omitempty"`
	Price     float64 `json:"price,omitempty"`
	LineTotal float64 `json:"line_total"`
	Invalid   bool    `json:"invalid,omitempty"`
}

// View is the full screen state the rendering layer observes.
type View struct {
	Terminal    string               `json:"terminal"`
	Operator    string               `json:"operator,omitempty"`
	Role        string               `json:"role,omitempty"`
	Shift       *domain.ShiftWindow  `json:"shift,omitempty"`
	Gate        GateState            `json:"gate"`
	Rows        []RowView            `json:"rows"`
	Focus       Focus                `json:"focus"`
	Total       float64              `json:"total"`
	OrderNumber string               `json:"order_number,omitempty"`
	TxnID       string               `json:"transaction_id"`
	Previous    domain.PreviousOrder `json:"previous"`
	State       string               `json:"state"`
	Prompt      *SubmitResult        `json:"prompt,omitempty"`
	PromptSeq   int                  `json:"prompt_seq"`
}

// Snapshot assembles the current screen state.
func (s *Screen) Snapshot() View {
	rows := s.Builder.Rows()
	views := make([]RowView, len(rows))
	for i, r := range rows {
		v := RowView{ID: r.ID, Code: r.Code, Qty: r.Qty}
		if p, ok := s.Catalog.ByCode(r.Code); ok {
			v.Name = p.Name
			v.Price = p.Price
			if q := cast.ToInt(r.Qty); q > 0 {
				v.LineTotal = p.Price * float64(q)
			}
		} else if r.Code != "" {
			v.Invalid = true
		}
		views[i] = v
	}

	prompt, seq := s.Orders.LastResult()
	view := View{
		Terminal:    s.Session.Terminal,
		Gate:        s.Gate.State(),
		Rows:        views,
		Focus:       s.Builder.Focus(),
		Total:       s.Builder.Total(),
		OrderNumber: s.Orders.OrderNumber(),
		TxnID:       s.Orders.TransactionID(),
		Previous:    s.Orders.PreviousOrder(),
		State:       s.Orders.State().String(),
		Prompt:      prompt,
		PromptSeq:   seq,
	}
	if op := s.Operator(); op != nil {
		view.Operator = op.Name
		view.Role = op.Role
		view.Shift = op.Shift
	}
	return view
}

// quietPrompter declines interactive confirmation and swallows dialog text;
// the submission result carries everything the screen needs to re-ask.
type quietPrompter struct{}

func (quietPrompter) ConfirmTotal(float64) bool       { return false }
func (quietPrompter) ConfirmDuplicates([]string) bool { return false }
func (quietPrompter) InvalidCodes([]string)           {}
func (quietPrompter) MissingQuantities([]string)      {}
func (quietPrompter) EmptyOrder()                     {}
func (quietPrompter) ShiftInactive(string)            {}
func (quietPrompter) SubmitError(error)               {}
func (quietPrompter) PrintWarning(string)             {}
