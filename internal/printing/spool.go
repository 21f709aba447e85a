// Package printing holds the local print collaborators. The terminal does
// not drive the thermal printer itself; it drops rendered receipts into a
// spool directory watched by the print agent on the same machine.
package printing

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"nabilpos/internal/domain"
	applog "nabilpos/internal/log"
	"nabilpos/internal/receipt"
)

// Spooler writes receipts into Dir and reports completion once, success or
// not. Timeout is the collaborator's own internal failsafe; callers layer
// their outer handoff timeout on top of it.
type Spooler struct {
	Dir     string
	Timeout time.Duration
}

func NewSpooler(dir string, timeout time.Duration) *Spooler {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Spooler{Dir: dir, Timeout: timeout}
}

// Print renders the sale and spools it. done is invoked exactly once: on
// write completion, write failure, or the internal failsafe elapsing.
func (s *Spooler) Print(sale *domain.Sale, autoPrint bool, done func(err error)) {
	var once sync.Once
	finish := func(err error) {
		once.Do(func() {
			if err != nil {
				applog.Fail("print.spool", err, nil)
			}
			if done != nil {
				done(err)
			}
		})
	}

	failsafe := time.AfterFunc(s.Timeout, func() {
		finish(errors.New("print spool timed out"))
	})

	go func() {
		defer failsafe.Stop()
		body, err := receipt.Render(sale)
		if err != nil {
			finish(err)
			return
		}
		if err := os.MkdirAll(s.Dir, 0o755); err != nil {
			finish(err)
			return
		}
		name := fmt.Sprintf("receipt-%s-%d.txt", safeName(sale.OrderNumber), time.Now().UnixMilli())
		if !autoPrint {
			// Held jobs wait for the operator to release them from the agent.
			name = "hold-" + name
		}
		if err := os.WriteFile(filepath.Join(s.Dir, name), []byte(body), 0o644); err != nil {
			finish(err)
			return
		}
		applog.Event("print.spooled", map[string]any{"file": name, "order_number": sale.OrderNumber})
		finish(nil)
	}()
}

func safeName(s string) string {
	if s == "" {
		return "unnumbered"
	}
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
