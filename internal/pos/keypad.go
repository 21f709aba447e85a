package pos

import (
	"sync"
	"time"

	"github.com/spf13/cast"
)

// Key names accepted by the keypad. They match the browser's KeyboardEvent
// key values so the screen can forward events verbatim.
const (
	KeyControl = "Control"
	KeyPlus    = "+"
	KeyEquals  = "="
	KeyAlt     = "Alt"
	KeyMinus   = "-"
	KeyEnter   = "Enter"
	KeyF1      = "F1"
	KeyEscape  = "Escape"
)

// Keypad maps the fixed key set onto builder and submission actions. The
// Enter key is coalesced: repeated presses within the debounce window
// collapse into a single submission trigger fired after the window closes.
type Keypad struct {
	mu       sync.Mutex
	gate     *Gate
	builder  *Builder
	catalog  *Catalog
	debounce time.Duration
	submit   func()
	reset    func()
	timer    *time.Timer
	closed   bool
}

func NewKeypad(gate *Gate, builder *Builder, catalog *Catalog, debounce time.Duration, submit, reset func()) *Keypad {
	return &Keypad{
		gate:     gate,
		builder:  builder,
		catalog:  catalog,
		debounce: debounce,
		submit:   submit,
		reset:    reset,
	}
}

// HandleKey dispatches one key event. The gate is re-checked first; while
// inactive only the cancel-like keys (Escape, F1) pass through.
func (k *Keypad) HandleKey(key string) {
	if !k.gate.Active() {
		if key == KeyEscape || key == KeyF1 {
			k.reset()
		}
		return
	}

	switch key {
	case KeyControl:
		k.builder.SetFocus(k.builder.Focus().Row, FieldQty)

	case KeyPlus, KeyEquals:
		k.handlePlus()

	case KeyAlt:
		k.builder.RemoveRow(k.builder.Focus().Row)

	case KeyMinus:
		if k.builder.Focus().Field == FieldQty {
			k.builder.DecrementQty(k.builder.Focus().Row)
		}

	case KeyEnter:
		k.scheduleSubmit()

	case KeyF1, KeyEscape:
		k.reset()
	}
}

// handlePlus moves qty→code on the current row, or appends a new row when
// the current row is complete and the cursor sits in the code field.
func (k *Keypad) handlePlus() {
	f := k.builder.Focus()
	row, ok := k.builder.Row(f.Row)
	if !ok {
		return
	}
	switch f.Field {
	case FieldQty:
		if cast.ToInt(row.Qty) > 0 {
			k.builder.SetFocus(f.Row, FieldCode)
		}
	case FieldCode:
		if _, matched := k.catalog.ByCode(row.Code); matched && cast.ToInt(row.Qty) > 0 {
			k.builder.AddRow()
		}
	}
}

// scheduleSubmit restarts the coalescing window; only the last Enter within
// it triggers submission. Duplicate triggers during an open request are
// additionally absorbed by the coordinator's in-flight guard.
func (k *Keypad) scheduleSubmit() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return
	}
	if k.timer != nil {
		k.timer.Stop()
	}
	k.timer = time.AfterFunc(k.debounce, k.submit)
}

// Close stops any pending submission trigger; called on screen teardown.
func (k *Keypad) Close() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.closed = true
	if k.timer != nil {
		k.timer.Stop()
		k.timer = nil
	}
}
