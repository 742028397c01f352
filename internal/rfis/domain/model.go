package domain

import "time"

// RFI statuses.
const (
	StatusOpen     = "open"
	StatusAnswered = "answered"
	StatusClosed   = "closed"
	StatusVoid     = "void"
)

// RFI priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// RFI is a Request for Information on a project. Numbers are sequential per
// project ("RFI-001", "RFI-002", ...).
type RFI struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Number      string     `json:"number"`
	Subject     string     `json:"subject"`
	Question    string     `json:"question"`
	Answer      string     `json:"answer,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Discipline  string     `json:"discipline,omitempty"`
	SubmittedBy string     `json:"submitted_by"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	AnsweredAt  *time.Time `json:"answered_at,omitempty"`
}

// DaysOpen returns how many whole days the RFI has been (or was) open.
func (r *RFI) DaysOpen() int {
	end := time.Now()
	if r.AnsweredAt != nil {
		end = *r.AnsweredAt
	}
	d := end.Sub(r.SubmittedAt)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}

// IsOverdue reports whether the RFI is still open past its due date.
func (r *RFI) IsOverdue() bool {
	if r.Status != StatusOpen || r.DueDate == nil {
		return false
	}
	return time.Now().After(*r.DueDate)
}

func ValidStatus(s string) bool {
	return s == StatusOpen || s == StatusAnswered || s == StatusClosed || s == StatusVoid
}

func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh || p == PriorityUrgent
}
