package service

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gcpanel/gcpanel-backend/internal/documents/domain"
	"github.com/gcpanel/gcpanel-backend/internal/documents/repository"
	"github.com/gcpanel/gcpanel-backend/internal/documents/storage"
)

// DocumentService registers document metadata and hands out presigned URLs
// against the blob store.
type DocumentService struct {
	repo      *repository.DocumentRepository
	blobs     storage.BlobStore
	urlExpiry time.Duration
}

func NewDocumentService(repo *repository.DocumentRepository, blobs storage.BlobStore, urlExpiry time.Duration) *DocumentService {
	if urlExpiry <= 0 {
		urlExpiry = 15 * time.Minute
	}
	return &DocumentService{repo: repo, blobs: blobs, urlExpiry: urlExpiry}
}

// RegisterRequest describes a new document to be uploaded.
type RegisterRequest struct {
	ProjectID   string
	Title       string
	Category    string
	Discipline  string
	FileName    string
	ContentType string
	SizeBytes   int64
	UploadedBy  string
}

// Registered pairs the stored record with the URL the client uploads to.
type Registered struct {
	Document  *domain.Document `json:"document"`
	UploadURL string           `json:"upload_url"`
}

// Register stores the metadata record and returns a presigned upload URL.
func (s *DocumentService) Register(ctx context.Context, req RegisterRequest) (*Registered, error) {
	if !domain.ValidCategory(req.Category) {
		return nil, domain.ErrInvalidCategory
	}

	key := storageKey(req.ProjectID, req.Category, req.FileName)
	doc, err := s.repo.Insert(ctx, &domain.Document{
		ProjectID:   req.ProjectID,
		Title:       strings.TrimSpace(req.Title),
		Category:    req.Category,
		Discipline:  strings.TrimSpace(req.Discipline),
		StorageKey:  key,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		UploadedBy:  req.UploadedBy,
	})
	if err != nil {
		return nil, err
	}

	uploadURL, err := s.presignUpload(ctx, key, req.ContentType)
	if err != nil {
		return nil, fmt.Errorf("presign upload for %s: %w", doc.ID, err)
	}
	return &Registered{Document: doc, UploadURL: uploadURL}, nil
}

// ReviseRequest describes a new revision of an existing document.
type ReviseRequest struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	UploadedBy  string
}

// Revise supersedes the current revision with a new one.
func (s *DocumentService) Revise(ctx context.Context, priorID string, req ReviseRequest) (*Registered, error) {
	prior, err := s.repo.GetByID(ctx, priorID)
	if err != nil {
		return nil, err
	}

	key := storageKey(prior.ProjectID, prior.Category, req.FileName)
	doc, err := s.repo.Revise(ctx, priorID, &domain.Document{
		StorageKey:  key,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		UploadedBy:  req.UploadedBy,
	})
	if err != nil {
		return nil, err
	}

	uploadURL, err := s.presignUpload(ctx, key, req.ContentType)
	if err != nil {
		return nil, fmt.Errorf("presign upload for %s: %w", doc.ID, err)
	}
	return &Registered{Document: doc, UploadURL: uploadURL}, nil
}

// presignUpload tolerates a missing blob store (no S3 bucket configured):
// the metadata record is still created, just without an upload URL.
func (s *DocumentService) presignUpload(ctx context.Context, key, contentType string) (string, error) {
	if s.blobs == nil {
		return "", nil
	}
	return s.blobs.PresignUpload(ctx, key, contentType, s.urlExpiry)
}

// Get retrieves a document record.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns document records for a project.
func (s *DocumentService) List(ctx context.Context, projectID, category, status string, currentOnly bool) ([]domain.Document, error) {
	if category != "" && !domain.ValidCategory(category) {
		return nil, domain.ErrInvalidCategory
	}
	return s.repo.ListByProject(ctx, projectID, repository.ListFilter{
		Category:    category,
		Status:      status,
		CurrentOnly: currentOnly,
	})
}

// DownloadURL returns a presigned GET URL for the document blob.
func (s *DocumentService) DownloadURL(ctx context.Context, id string) (string, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if s.blobs == nil {
		return "", domain.ErrStorageDisabled
	}
	return s.blobs.PresignDownload(ctx, doc.StorageKey, s.urlExpiry)
}

// Archive marks a document archived and removes its blob. The metadata
// record stays for the audit trail; the file itself is no longer served.
func (s *DocumentService) Archive(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := s.repo.Archive(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.blobs != nil && doc.StorageKey != "" {
		if err := s.blobs.Delete(ctx, doc.StorageKey); err != nil {
			// The record is already archived; an orphaned blob is
			// recoverable, a failed archive is not.
			log.Printf("[documents] failed to delete blob %s: %v", doc.StorageKey, err)
		}
	}
	return doc, nil
}

// storageKey namespaces blobs by project and category; a random token keeps
// re-uploads of the same filename from colliding.
func storageKey(projectID, category, fileName string) string {
	base := path.Base(strings.TrimSpace(fileName))
	if base == "" || base == "." || base == "/" {
		base = "file"
	}
	return fmt.Sprintf("projects/%s/%s/%s-%s", projectID, category, uuid.New().String()[:8], base)
}
