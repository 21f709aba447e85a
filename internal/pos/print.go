package pos

import (
	"sync"
	"time"

	"nabilpos/internal/domain"
)

// Printer is the receipt printing collaborator: it issues the side effect
// and invokes done exactly once when printing finished, failed, or was
// cancelled. The handoff below does not trust that contract blindly; it
// guards completion itself.
type Printer interface {
	Print(sale *domain.Sale, autoPrint bool, done func(err error))
}

// PrintOutcome is how a handoff ended.
type PrintOutcome string

const (
	PrintDone    PrintOutcome = "printed"
	PrintFailed  PrintOutcome = "failed"
	PrintTimeout PrintOutcome = "timeout"
	PrintSkipped PrintOutcome = "skipped"
	PrintAborted PrintOutcome = "aborted"
)

type handoffState int

const (
	handoffIdle handoffState = iota
	handoffPrinting
	handoffDone
)

// Handoff is a single-use, timeout-guarded handshake with the printer. It
// guarantees onComplete fires exactly once, whichever comes first: the
// printer's callback, the outer failsafe timer, or screen teardown. A hung
// print channel must never block the cashier from starting the next order.
type Handoff struct {
	mu         sync.Mutex
	state      handoffState
	sale       *domain.Sale
	printer    Printer
	timeout    time.Duration
	timer      *time.Timer
	onComplete func(PrintOutcome)
}

func NewHandoff(sale *domain.Sale, printer Printer, timeout time.Duration, onComplete func(PrintOutcome)) *Handoff {
	return &Handoff{sale: sale, printer: printer, timeout: timeout, onComplete: onComplete}
}

// Start issues the print attempt. A malformed sale (no item list) completes
// immediately without printing so the order still resets.
func (h *Handoff) Start() {
	h.mu.Lock()
	if h.state != handoffIdle {
		h.mu.Unlock()
		return
	}
	if h.sale == nil || len(h.sale.Items) == 0 {
		h.state = handoffDone
		cb := h.onComplete
		h.mu.Unlock()
		if cb != nil {
			cb(PrintSkipped)
		}
		return
	}
	h.state = handoffPrinting
	h.timer = time.AfterFunc(h.timeout, func() { h.complete(PrintTimeout) })
	printer, sale := h.printer, h.sale
	h.mu.Unlock()

	printer.Print(sale, true, func(err error) {
		if err != nil {
			h.complete(PrintFailed)
			return
		}
		h.complete(PrintDone)
	})
}

// Abort completes the handoff from the teardown path while a print is in
// flight. A handoff that never started, or already finished, is unaffected.
func (h *Handoff) Abort() {
	h.mu.Lock()
	printing := h.state == handoffPrinting
	h.mu.Unlock()
	if printing {
		h.complete(PrintAborted)
	}
}

func (h *Handoff) complete(outcome PrintOutcome) {
	h.mu.Lock()
	if h.state == handoffDone {
		h.mu.Unlock()
		return
	}
	h.state = handoffDone
	if h.timer != nil {
		h.timer.Stop()
	}
	cb := h.onComplete
	h.sale = nil
	h.mu.Unlock()
	if cb != nil {
		cb(outcome)
	}
}
