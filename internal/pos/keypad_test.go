package pos_test

import (
	"sync/atomic"
	"testing"
	"time"

	"nabilpos/internal/pos"
)

func TestEnterDebounceCoalesces(t *testing.T) {
	catalog := pos.NewCatalog(pos.FallbackProducts(), nil)
	b := pos.NewBuilder(activeGate(t), catalog)
	var submits, resets int32
	k := pos.NewKeypad(activeGate(t), b, catalog, 20*time.Millisecond,
		func() { atomic.AddInt32(&submits, 1) },
		func() { atomic.AddInt32(&resets, 1) },
	)
	defer k.Close()

	for i := 0; i < 5; i++ {
		k.HandleKey(pos.KeyEnter)
	}
	time.Sleep(120 * time.Millisecond)
	if n := atomic.LoadInt32(&submits); n != 1 {
		t.Fatalf("5 rapid Enters should trigger 1 submission, got %d", n)
	}

	k.HandleKey(pos.KeyEnter)
	time.Sleep(120 * time.Millisecond)
	if n := atomic.LoadInt32(&submits); n != 2 {
		t.Fatalf("a later Enter should trigger again, got %d", n)
	}
}

func TestKeypadClosedDropsPendingSubmit(t *testing.T) {
	catalog := pos.NewCatalog(pos.FallbackProducts(), nil)
	b := pos.NewBuilder(activeGate(t), catalog)
	var submits int32
	k := pos.NewKeypad(activeGate(t), b, catalog, 20*time.Millisecond,
		func() { atomic.AddInt32(&submits, 1) }, func() {})

	k.HandleKey(pos.KeyEnter)
	k.Close()
	time.Sleep(100 * time.Millisecond)
	if n := atomic.LoadInt32(&submits); n != 0 {
		t.Fatalf("closed keypad must not fire, got %d", n)
	}
}

func TestMinusDecrementsQtyField(t *testing.T) {
	catalog := pos.NewCatalog(pos.FallbackProducts(), nil)
	b := pos.NewBuilder(activeGate(t), catalog)
	k := pos.NewKeypad(activeGate(t), b, catalog, time.Millisecond, func() {}, func() {})
	defer k.Close()

	b.SetQty(0, "3") // focus lands on qty
	k.HandleKey(pos.KeyMinus)
	k.HandleKey(pos.KeyMinus)
	if r, _ := b.Row(0); r.Qty != "1" {
		t.Fatalf("want 1, got %q", r.Qty)
	}
	k.HandleKey(pos.KeyMinus)
	if r, _ := b.Row(0); r.Qty != "1" {
		t.Fatalf("minus must floor at 1, got %q", r.Qty)
	}

	// minus does nothing from the code field
	b.SetCode(0, "01")
	b.SetQty(0, "2")
	b.SetFocus(0, pos.FieldCode)
	k.HandleKey(pos.KeyMinus)
	if r, _ := b.Row(0); r.Qty != "2" {
		t.Fatalf("minus in code field changed qty to %q", r.Qty)
	}
}

func TestPlusAdvancesFocusThenAddsRow(t *testing.T) {
	catalog := pos.NewCatalog(pos.FallbackProducts(), nil)
	b := pos.NewBuilder(activeGate(t), catalog)
	k := pos.NewKeypad(activeGate(t), b, catalog, time.Millisecond, func() {}, func() {})
	defer k.Close()

	// qty empty: plus is ignored
	k.HandleKey(pos.KeyPlus)
	if f := b.Focus(); f.Field != pos.FieldQty {
		t.Fatalf("plus with empty qty should not move focus, got %+v", f)
	}

	b.SetQty(0, "2")
	k.HandleKey(pos.KeyPlus)
	if f := b.Focus(); f.Field != pos.FieldCode {
		t.Fatalf("plus from filled qty should focus code, got %+v", f)
	}

	// unmatched code: no new row
	b.SetCode(0, "zz")
	k.HandleKey(pos.KeyPlus)
	if len(b.Rows()) != 1 {
		t.Fatal("plus with unmatched code must not add a row")
	}

	b.SetCode(0, "01")
	k.HandleKey(pos.KeyEquals) // = acts as +
	rows := b.Rows()
	if len(rows) != 2 {
		t.Fatalf("want a second row, got %+v", rows)
	}
	if f := b.Focus(); f.Row != 1 || f.Field != pos.FieldQty {
		t.Fatalf("new row should take qty focus, got %+v", f)
	}
}

func TestAltRemovesFocusedRow(t *testing.T) {
	catalog := pos.NewCatalog(pos.FallbackProducts(), nil)
	b := pos.NewBuilder(activeGate(t), catalog)
	k := pos.NewKeypad(activeGate(t), b, catalog, time.Millisecond, func() {}, func() {})
	defer k.Close()

	b.TapProduct("01")
	b.AddRow() // focus row 1
	k.HandleKey(pos.KeyAlt)
	rows := b.Rows()
	if len(rows) != 1 || rows[0].Code != "01" {
		t.Fatalf("alt should remove the focused row, got %+v", rows)
	}
}

func TestInactiveGateOnlyPassesCancelKeys(t *testing.T) {
	catalog := pos.NewCatalog(pos.FallbackProducts(), nil)
	gate := pos.NewGate(nil)
	b := pos.NewBuilder(gate, catalog)
	var submits, resets int32
	k := pos.NewKeypad(gate, b, catalog, time.Millisecond,
		func() { atomic.AddInt32(&submits, 1) },
		func() { atomic.AddInt32(&resets, 1) },
	)
	defer k.Close()

	k.HandleKey(pos.KeyEnter)
	k.HandleKey(pos.KeyPlus)
	k.HandleKey(pos.KeyAlt)
	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&submits) != 0 {
		t.Fatal("enter must not submit while inactive")
	}

	k.HandleKey(pos.KeyEscape)
	k.HandleKey(pos.KeyF1)
	if n := atomic.LoadInt32(&resets); n != 2 {
		t.Fatalf("escape/F1 should still reset, got %d", n)
	}
}
