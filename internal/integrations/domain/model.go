package domain

import (
	"encoding/json"
	"time"
)

// Sync run statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Record kinds recognized by the import normalizer.
const (
	KindRFI      = "rfi"
	KindTask     = "task"
	KindDocument = "document"
	KindBid      = "bid"
	KindUnknown  = "unknown"
)

// Record is one normalized item pulled from an external construction
// platform. Payload keeps the provider's raw JSON for later inspection.
type Record struct {
	ExternalID string          `json:"external_id"`
	Source     string          `json:"source"`
	Kind       string          `json:"kind"`
	ProjectRef string          `json:"project_ref,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	FetchedAt  time.Time       `json:"fetched_at"`
}

// SyncRun tracks one connector pull from trigger to completion.
type SyncRun struct {
	RunID       string     `json:"run_id"`
	UserID      string     `json:"user_id"`
	Connector   string     `json:"connector"`
	Status      string     `json:"status"`
	Fetched     int        `json:"fetched"`
	Imported    int        `json:"imported"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusRunning || s == StatusCompleted || s == StatusFailed
}
