package pos

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"nabilpos/internal/domain"
	applog "nabilpos/internal/log"
)

// GateState is the current permission to mutate the order, with a
// human-readable reason when mutation is blocked.
type GateState struct {
	Active bool   `json:"active"`
	Reason string `json:"reason,omitempty"`
}

// parseClock parses "HH:MM" or "HH:MM:SS" into seconds since midnight.
func parseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("bad clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad clock time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad clock time %q", s)
	}
	sec := 0
	if len(parts) == 3 {
		sec, err = strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("bad clock time %q", s)
		}
	}
	return h*3600 + m*60 + sec, nil
}

// WithinShift reports whether now falls inside [start, end). A window whose
// end precedes its start wraps midnight: active if now >= start OR now < end.
func WithinShift(w domain.ShiftWindow, now time.Time) (bool, error) {
	start, err := parseClock(w.StartTime)
	if err != nil {
		return false, err
	}
	end, err := parseClock(w.EndTime)
	if err != nil {
		return false, err
	}
	cur := now.Hour()*3600 + now.Minute()*60 + now.Second()
	if end < start {
		return cur >= start || cur < end, nil
	}
	return cur >= start && cur < end, nil
}

// EvaluateGate computes the gate for an operator at a point in time.
// Only the counter role is constrained by shift timing.
func EvaluateGate(op *domain.Operator, now time.Time) GateState {
	if op == nil {
		return GateState{Active: false, Reason: "Error fetching user data. POS is inactive."}
	}
	if op.Role != domain.RoleCounter {
		return GateState{Active: true}
	}
	if op.Shift == nil {
		return GateState{Active: false, Reason: "No shift assigned. POS is inactive."}
	}
	ok, err := WithinShift(*op.Shift, now)
	if err != nil {
		return GateState{Active: false, Reason: "Shift times are invalid. POS is inactive."}
	}
	if !ok {
		return GateState{Active: false, Reason: "Your shift is currently not active. POS is inactive."}
	}
	return GateState{Active: true}
}

// Gate holds the periodically re-evaluated gate for the logged-in operator.
// Mutating entry points call Recheck so a decision is never made from a
// stale poll snapshot.
type Gate struct {
	mu    sync.Mutex
	op    *domain.Operator
	now   func() time.Time
	state GateState
}

func NewGate(op *domain.Operator) *Gate {
	g := &Gate{op: op, now: time.Now}
	g.state = EvaluateGate(op, g.now())
	return g
}

// SetOperator swaps the operator the gate evaluates, for when user data
// arrives after the screen was constructed.
func (g *Gate) SetOperator(op *domain.Operator) GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.op = op
	g.state = EvaluateGate(op, g.now())
	return g.state
}

// Recheck re-evaluates the gate against the current clock and returns the
// fresh state.
func (g *Gate) Recheck() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = EvaluateGate(g.op, g.now())
	return g.state
}

// State returns the last evaluated state without touching the clock.
func (g *Gate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Active is a synchronous gate check for mutation handlers.
func (g *Gate) Active() bool {
	return g.Recheck().Active
}

// StartPolling schedules gate re-evaluation every interval and reports
// transitions to onChange (may be nil). The returned stop function halts the
// scheduler; it is safe to call once at screen teardown.
func (g *Gate) StartPolling(every time.Duration, onChange func(GateState)) (stop func()) {
	c := cron.New()
	prev := g.State()
	var mu sync.Mutex
	_, err := c.AddFunc(fmt.Sprintf("@every %s", every), func() {
		st := g.Recheck()
		mu.Lock()
		changed := st.Active != prev.Active
		prev = st
		mu.Unlock()
		if changed {
			applog.Event("shift.gate.change", map[string]any{"active": st.Active, "reason": st.Reason})
			if onChange != nil {
				onChange(st)
			}
		}
	})
	if err != nil {
		applog.Fail("shift.gate.schedule", err, nil)
		return func() {}
	}
	c.Start()
	return func() { c.Stop() }
}
