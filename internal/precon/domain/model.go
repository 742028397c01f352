package domain

import (
	"errors"
	"time"
)

// Bid package statuses.
const (
	BidDraft   = "draft"
	BidBidding = "bidding"
	BidAwarded = "awarded"
)

var (
	ErrLineNotFound    = errors.New("budget line item not found")
	ErrPackageNotFound = errors.New("bid package not found")
	ErrInvalidAward    = errors.New("bid package cannot be awarded from its current status")
)

// BudgetLineItem is one row of the project budget, coded by CSI MasterFormat
// division (e.g. "03" Concrete) and full code (e.g. "03 30 00").
type BudgetLineItem struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	CSIDivision     string    `json:"csi_division"`
	CSICode         string    `json:"csi_code"`
	Description     string    `json:"description"`
	BudgetAmount    float64   `json:"budget_amount"`
	CommittedAmount float64   `json:"committed_amount"`
	ActualAmount    float64   `json:"actual_amount"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Variance is budget minus actual; negative means overrun.
func (b *BudgetLineItem) Variance() float64 {
	return b.BudgetAmount - b.ActualAmount
}

// PercentSpent is actual over budget as a percentage. Zero-budget lines
// report 0 rather than dividing by zero.
func (b *BudgetLineItem) PercentSpent() float64 {
	if b.BudgetAmount == 0 {
		return 0
	}
	return b.ActualAmount / b.BudgetAmount * 100
}

// DivisionSummary aggregates budget lines per CSI division.
type DivisionSummary struct {
	CSIDivision     string  `json:"csi_division"`
	Lines           int     `json:"lines"`
	BudgetAmount    float64 `json:"budget_amount"`
	CommittedAmount float64 `json:"committed_amount"`
	ActualAmount    float64 `json:"actual_amount"`
	Variance        float64 `json:"variance"`
}

// BidPackage is a scope of work put out to bid.
type BidPackage struct {
	ID            string     `json:"id"`
	ProjectID     string     `json:"project_id"`
	Name          string     `json:"name"`
	CSIDivision   string     `json:"csi_division"`
	Status        string     `json:"status"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	AwardedTo     string     `json:"awarded_to,omitempty"`
	AwardedAmount float64    `json:"awarded_amount,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
