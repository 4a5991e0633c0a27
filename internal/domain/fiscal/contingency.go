package fiscal

import "github.com/google/uuid"

// RetransmitResult is the outcome for one queued note
type RetransmitResult struct {
	NoteID  uuid.UUID  `json:"note_id"`
	Success bool       `json:"success"`
	Status  NoteStatus `json:"status"`
	Error   string     `json:"error,omitempty"`
}

// RetransmitSummary aggregates a retransmission run
type RetransmitSummary struct {
	Total   int                `json:"total"`
	Success int                `json:"success"`
	Failed  int                `json:"failed"`
	Results []RetransmitResult `json:"results"`
	Message string             `json:"message,omitempty"`
}

// Add folds one note result into the summary
func (s *RetransmitSummary) Add(r RetransmitResult) {
	s.Results = append(s.Results, r)
	if r.Success {
		s.Success++
	} else {
		s.Failed++
	}
}

// ContingencyStatus is returned by the status endpoint
type ContingencyStatus struct {
	PendingCount     int64 `json:"pending_count"`
	ServiceAvailable bool  `json:"service_available"`
}
