package pos

import (
	"strconv"
	"sync"

	"github.com/spf13/cast"

	"nabilpos/internal/domain"
)

// Field names the input the render layer should focus next.
type Field string

const (
	FieldCode Field = "code"
	FieldQty  Field = "qty"
)

// Focus is an explicit focus intent the rendering layer observes and
// applies, replacing timing-dependent input-ref juggling.
type Focus struct {
	Row   int   `json:"row"`
	Field Field `json:"field"`
}

// Builder maintains the in-progress order: an ordered list of rows with
// dense 1..N ids, string-typed quantities and a running total against the
// catalog snapshot. Invalid codes are representable state, not errors; they
// are checked at submission.
type Builder struct {
	mu      sync.Mutex
	gate    *Gate
	catalog *Catalog
	rows    []domain.OrderRow
	focus   Focus
}

func NewBuilder(gate *Gate, catalog *Catalog) *Builder {
	return &Builder{
		gate:    gate,
		catalog: catalog,
		rows:    []domain.OrderRow{{ID: 1}},
		focus:   Focus{Row: 0, Field: FieldQty},
	}
}

// blocked is the synchronous gate re-check every mutator performs at the
// moment of the event.
func (b *Builder) blocked() bool {
	return b.gate != nil && !b.gate.Active()
}

func (b *Builder) Rows() []domain.OrderRow {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.OrderRow, len(b.rows))
	copy(out, b.rows)
	return out
}

func (b *Builder) Row(i int) (domain.OrderRow, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.rows) {
		return domain.OrderRow{}, false
	}
	return b.rows[i], true
}

func (b *Builder) Focus() Focus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.focus
}

// SetFocus records which input the operator is in.
func (b *Builder) SetFocus(i int, f Field) {
	if b.blocked() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.rows) {
		return
	}
	b.focus = Focus{Row: i, Field: f}
}

// AddRow appends a new empty row with the next id and moves focus to its
// quantity field.
func (b *Builder) AddRow() bool {
	if b.blocked() {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	maxID := 0
	for _, r := range b.rows {
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	b.rows = append(b.rows, domain.OrderRow{ID: maxID + 1})
	b.focus = Focus{Row: len(b.rows) - 1, Field: FieldQty}
	return true
}

// RemoveRow deletes the row at index and renumbers the remainder densely
// from 1. The last remaining row is never removed. Focus moves to the
// preceding row, or row 0 when the first row was removed.
func (b *Builder) RemoveRow(i int) bool {
	if b.blocked() {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.rows) <= 1 || i < 0 || i >= len(b.rows) {
		return false
	}
	b.rows = append(b.rows[:i], b.rows[i+1:]...)
	for j := range b.rows {
		b.rows[j].ID = j + 1
	}
	next := i - 1
	if next < 0 {
		next = 0
	}
	b.focus = Focus{Row: next, Field: b.focus.Field}
	return true
}

func (b *Builder) SetCode(i int, code string) bool {
	if b.blocked() {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.rows) {
		return false
	}
	b.rows[i].Code = code
	b.focus = Focus{Row: i, Field: FieldCode}
	return true
}

// SetQty stores the raw quantity string. The literal "0" clears the field to
// unset rather than storing zero — behavioral parity with the device
// operators already use; flagged for product review, do not "fix" silently.
func (b *Builder) SetQty(i int, qty string) bool {
	if b.blocked() {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.rows) {
		return false
	}
	if qty == "0" {
		qty = ""
	}
	b.rows[i].Qty = qty
	b.focus = Focus{Row: i, Field: FieldQty}
	return true
}

// DecrementQty lowers the row quantity by one, never below 1 and never back
// to unset.
func (b *Builder) DecrementQty(i int) bool {
	if b.blocked() {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.rows) {
		return false
	}
	cur := cast.ToInt(b.rows[i].Qty)
	if cur <= 1 {
		return false
	}
	b.rows[i].Qty = strconv.Itoa(cur - 1)
	return true
}

// TapProduct applies the product-grid tap policy, tried in priority order:
// a row already holding the code gets its quantity incremented, otherwise
// the first empty-code row is filled, otherwise a new row is appended.
func (b *Builder) TapProduct(code string) bool {
	if b.blocked() {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if i := b.findRowByCode(code); i != -1 {
		b.rows[i].Qty = strconv.Itoa(cast.ToInt(b.rows[i].Qty) + 1)
		b.focus = Focus{Row: i, Field: FieldQty}
		return true
	}
	for i := range b.rows {
		if b.rows[i].Code == "" {
			b.rows[i].Code = code
			b.rows[i].Qty = "1"
			b.focus = Focus{Row: i, Field: FieldQty}
			return true
		}
	}
	maxID := 0
	for _, r := range b.rows {
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	b.rows = append(b.rows, domain.OrderRow{ID: maxID + 1, Code: code, Qty: "1"})
	b.focus = Focus{Row: len(b.rows) - 1, Field: FieldQty}
	return true
}

func (b *Builder) findRowByCode(code string) int {
	for i, r := range b.rows {
		if r.Code == code {
			return i
		}
	}
	return -1
}

// FindRowByCode returns the index of the first row holding code, or -1.
func (b *Builder) FindRowByCode(code string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.findRowByCode(code)
}

// Filled returns the rows that carry both a code and a positive quantity.
func (b *Builder) Filled() []domain.OrderRow {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.OrderRow, 0, len(b.rows))
	for _, r := range b.rows {
		if r.Code != "" && cast.ToInt(r.Qty) > 0 {
			out = append(out, r)
		}
	}
	return out
}

// Total recomputes the order total from current rows. Rows whose code
// matches no product contribute zero.
func (b *Builder) Total() float64 {
	rows := b.Rows()
	total := 0.0
	for _, r := range rows {
		p, ok := b.catalog.ByCode(r.Code)
		if !ok {
			continue
		}
		if q := cast.ToInt(r.Qty); q > 0 {
			total += p.Price * float64(q)
		}
	}
	return total
}

// ClearCode empties a row's code, used by validation remediation so the
// operator can retype the offending code.
func (b *Builder) ClearCode(i int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.rows) {
		return
	}
	b.rows[i].Code = ""
	b.focus = Focus{Row: i, Field: FieldCode}
}

// FocusQty moves the focus intent to a row's quantity field without a gate
// check; validation remediation uses it while the order is being corrected.
func (b *Builder) FocusQty(i int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i >= 0 && i < len(b.rows) {
		b.focus = Focus{Row: i, Field: FieldQty}
	}
}

// Reset replaces all rows with a single empty row (id 1). Focus intent
// returns to the first quantity field only while the shift gate is active.
func (b *Builder) Reset() {
	active := b.gate == nil || b.gate.Active()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows = []domain.OrderRow{{ID: 1}}
	if active {
		b.focus = Focus{Row: 0, Field: FieldQty}
	}
}
