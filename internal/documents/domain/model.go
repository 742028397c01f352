package domain

import (
	"errors"
	"time"
)

// Document categories.
const (
	CategoryDrawings       = "drawings"
	CategorySpecifications = "specifications"
	CategoryContracts      = "contracts"
	CategorySubmittals     = "submittals"
	CategoryPhotos         = "photos"
)

// Document statuses.
const (
	StatusCurrent    = "current"
	StatusSuperseded = "superseded"
	StatusArchived   = "archived"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrInvalidCategory = errors.New("invalid document category")
	ErrNotCurrent      = errors.New("document is not the current revision")
	// ErrStorageDisabled is returned for download requests when no blob
	// store is configured.
	ErrStorageDisabled = errors.New("blob storage is not configured")
)

// Document is the metadata record for a stored project file. The blob itself
// lives in object storage under StorageKey; revisions chain through
// SupersedesID.
type Document struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	Discipline   string    `json:"discipline,omitempty"`
	Revision     int       `json:"revision"`
	SupersedesID string    `json:"supersedes_id,omitempty"`
	StorageKey   string    `json:"storage_key"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	UploadedBy   string    `json:"uploaded_by"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func ValidCategory(c string) bool {
	switch c {
	case CategoryDrawings, CategorySpecifications, CategoryContracts, CategorySubmittals, CategoryPhotos:
		return true
	}
	return false
}
