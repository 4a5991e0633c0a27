package workorder

// Status represents the lifecycle state of a work order
type Status string

const (
	StatusOpen             Status = "open"
	StatusAwaitingDispatch Status = "awaiting_dispatch"
	StatusInProgress       Status = "in_progress"
	StatusWaitingParts     Status = "waiting_parts"
	StatusWaitingApproval  Status = "waiting_approval"
	StatusCompleted        Status = "completed"
	StatusDelivered        Status = "delivered"
	StatusInvoiced         Status = "invoiced"
	StatusCancelled        Status = "cancelled"
)

// transitions is the single source of truth for status changes.
// cancelled → open is listed here but only reachable through Reopen.
var transitions = map[Status][]Status{
	StatusOpen:             {StatusAwaitingDispatch, StatusInProgress, StatusCancelled},
	StatusAwaitingDispatch: {StatusInProgress, StatusCancelled},
	StatusInProgress:       {StatusWaitingParts, StatusWaitingApproval, StatusCompleted, StatusCancelled},
	StatusWaitingParts:     {StatusInProgress, StatusCancelled},
	StatusWaitingApproval:  {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusCompleted:        {StatusDelivered, StatusInProgress, StatusCancelled},
	StatusDelivered:        {StatusInvoiced},
	StatusInvoiced:         {},
	StatusCancelled:        {StatusOpen},
}

// IsValid checks if the status is a known work order status
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// AllowedTransitions returns the statuses reachable from s
func (s Status) AllowedTransitions() []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CanTransitionTo reports whether target is reachable from s
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsLocked reports whether the order has reached a billable stage and can no longer be deleted
func (s Status) IsLocked() bool {
	return s == StatusCompleted || s == StatusDelivered || s == StatusInvoiced
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
