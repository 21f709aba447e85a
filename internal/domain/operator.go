package domain

// RoleCounter is the role constrained by shift timing. Every other role may
// use the terminal at any hour.
const RoleCounter = "billing_counter"

type Operator struct {
	ID    int64        `json:"id"`
	Name  string       `json:"name"`
	Email string       `json:"email"`
	Role  string       `json:"role"`
	Shift *ShiftWindow `json:"shift,omitempty"`
}

// ShiftWindow is a named time-of-day window assigned to a counter operator.
// Times are "HH:MM" or "HH:MM:SS", 24-hour. End before start means the
// window wraps midnight.
type ShiftWindow struct {
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}
