package domain

import (
	"errors"
	"time"
)

// Element categories (building systems).
const (
	CategoryStructural    = "structural"
	CategoryArchitectural = "architectural"
	CategoryMechanical    = "mechanical"
	CategoryElectrical    = "electrical"
	CategoryPlumbing      = "plumbing"
)

// Clash kinds.
const (
	ClashHard      = "hard"      // bounding boxes overlap
	ClashClearance = "clearance" // gap below the category-pair tolerance
)

// Clash severities.
const (
	SeverityCritical = "critical"
	SeverityMajor    = "major"
	SeverityMinor    = "minor"
)

// Clash statuses.
const (
	StatusOpen     = "open"
	StatusReviewed = "reviewed"
	StatusResolved = "resolved"
)

var (
	ErrNotFound        = errors.New("bim element not found")
	ErrClashNotFound   = errors.New("clash not found")
	ErrInvalidCategory = errors.New("invalid element category")
	ErrInvalidStatus   = errors.New("invalid clash status")
	ErrInvalidBBox     = errors.New("element bounding box has min > max")
)

// BBox is an axis-aligned bounding box in model coordinates (meters).
type BBox struct {
	Min [3]float64 `json:"min"`
	Max [3]float64 `json:"max"`
}

// Valid reports whether Min <= Max on every axis.
func (b BBox) Valid() bool {
	for i := 0; i < 3; i++ {
		if b.Min[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Center returns the box midpoint.
func (b BBox) Center() [3]float64 {
	return [3]float64{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Element is one modeled building component.
type Element struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	ModelID   string    `json:"model_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Level     string    `json:"level,omitempty"`
	Material  string    `json:"material,omitempty"`
	BBox      BBox      `json:"bbox"`
	CreatedAt time.Time `json:"created_at"`
}

// Clash records an overlap or clearance violation between two elements.
// ElementA sorts before ElementB so each pair has one canonical row.
type Clash struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"project_id"`
	ElementA   string     `json:"element_a"`
	ElementB   string     `json:"element_b"`
	Kind       string     `json:"kind"`
	Distance   float64    `json:"distance"` // penetration depth for hard, gap for clearance
	Severity   string     `json:"severity"`
	Location   [3]float64 `json:"location"`
	Status     string     `json:"status"`
	RunID      string     `json:"run_id"`
	DetectedAt time.Time  `json:"detected_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

func ValidCategory(c string) bool {
	switch c {
	case CategoryStructural, CategoryArchitectural, CategoryMechanical, CategoryElectrical, CategoryPlumbing:
		return true
	}
	return false
}

func ValidClashStatus(s string) bool {
	return s == StatusOpen || s == StatusReviewed || s == StatusResolved
}
