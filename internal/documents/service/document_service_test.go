package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcpanel/gcpanel-backend/internal/documents/domain"
	"github.com/gcpanel/gcpanel-backend/internal/documents/repository"
	"github.com/gcpanel/gcpanel-backend/internal/documents/storage"
)

type fakeBlobStore struct {
	uploads   []string
	downloads []string
	deletes   []string
	deleteErr error
}

func (f *fakeBlobStore) PresignUpload(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	f.uploads = append(f.uploads, key)
	return "https://blobs.test/upload/" + key, nil
}

func (f *fakeBlobStore) PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error) {
	f.downloads = append(f.downloads, key)
	return "https://blobs.test/download/" + key, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	return f.deleteErr
}

var _ storage.BlobStore = (*fakeBlobStore)(nil)

func setupDocService(t *testing.T, blobs storage.BlobStore) (*DocumentService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDocumentService(repository.NewDocumentRepository(db), blobs, time.Minute), mock
}

func docRow(id string) *sqlmock.Rows {
	cols := []string{"id", "project_id", "title", "category", "discipline", "revision",
		"supersedes_id", "storage_key", "content_type", "size_bytes", "uploaded_by", "status", "created_at"}
	return sqlmock.NewRows(cols).AddRow(
		id, "proj-1", "Level 3 Plan", domain.CategoryDrawings, "", 1, "",
		"projects/proj-1/drawings/abc-plan.pdf", "application/pdf", 512, "user-1",
		domain.StatusCurrent, time.Now())
}

func TestDocumentService_Register(t *testing.T) {
	t.Run("returns presigned upload url", func(t *testing.T) {
		blobs := &fakeBlobStore{}
		svc, mock := setupDocService(t, blobs)

		mock.ExpectQuery(`INSERT INTO documents`).WillReturnRows(docRow("doc-1"))

		reg, err := svc.Register(context.Background(), RegisterRequest{
			ProjectID:   "proj-1",
			Title:       "Level 3 Plan",
			Category:    domain.CategoryDrawings,
			FileName:    "plan.pdf",
			ContentType: "application/pdf",
			SizeBytes:   512,
			UploadedBy:  "user-1",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, reg.UploadURL)
		require.Len(t, blobs.uploads, 1)
		assert.True(t, strings.HasPrefix(blobs.uploads[0], "projects/proj-1/drawings/"))
		assert.True(t, strings.HasSuffix(blobs.uploads[0], "-plan.pdf"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		svc, _ := setupDocService(t, &fakeBlobStore{})
		_, err := svc.Register(context.Background(), RegisterRequest{Category: "invoices"})
		require.ErrorIs(t, err, domain.ErrInvalidCategory)
	})

	t.Run("without blob store still records metadata", func(t *testing.T) {
		svc, mock := setupDocService(t, nil)
		mock.ExpectQuery(`INSERT INTO documents`).WillReturnRows(docRow("doc-1"))

		reg, err := svc.Register(context.Background(), RegisterRequest{
			ProjectID: "proj-1",
			Title:     "Level 3 Plan",
			Category:  domain.CategoryDrawings,
			FileName:  "plan.pdf",
		})
		require.NoError(t, err)
		assert.Empty(t, reg.UploadURL)
	})
}

func TestDocumentService_DownloadURL(t *testing.T) {
	t.Run("presigns the stored key", func(t *testing.T) {
		blobs := &fakeBlobStore{}
		svc, mock := setupDocService(t, blobs)

		mock.ExpectQuery(`SELECT`).WithArgs("doc-1").WillReturnRows(docRow("doc-1"))

		url, err := svc.DownloadURL(context.Background(), "doc-1")
		require.NoError(t, err)
		assert.Equal(t, "https://blobs.test/download/projects/proj-1/drawings/abc-plan.pdf", url)
	})

	t.Run("fails cleanly without blob store", func(t *testing.T) {
		svc, mock := setupDocService(t, nil)
		mock.ExpectQuery(`SELECT`).WithArgs("doc-1").WillReturnRows(docRow("doc-1"))

		_, err := svc.DownloadURL(context.Background(), "doc-1")
		require.ErrorIs(t, err, domain.ErrStorageDisabled)
	})
}

func TestDocumentService_Archive(t *testing.T) {
	t.Run("removes the blob after archiving", func(t *testing.T) {
		blobs := &fakeBlobStore{}
		svc, mock := setupDocService(t, blobs)
		mock.ExpectQuery(`UPDATE documents SET status = 'archived'`).
			WithArgs("doc-1").WillReturnRows(docRow("doc-1"))

		doc, err := svc.Archive(context.Background(), "doc-1")
		require.NoError(t, err)
		assert.Equal(t, "doc-1", doc.ID)
		require.Len(t, blobs.deletes, 1)
		assert.Equal(t, "projects/proj-1/drawings/abc-plan.pdf", blobs.deletes[0])
	})

	t.Run("archive survives a failed blob delete", func(t *testing.T) {
		blobs := &fakeBlobStore{deleteErr: errors.New("access denied")}
		svc, mock := setupDocService(t, blobs)
		mock.ExpectQuery(`UPDATE documents SET status = 'archived'`).
			WithArgs("doc-1").WillReturnRows(docRow("doc-1"))

		_, err := svc.Archive(context.Background(), "doc-1")
		require.NoError(t, err)
		assert.Len(t, blobs.deletes, 1)
	})

	t.Run("works without blob store", func(t *testing.T) {
		svc, mock := setupDocService(t, nil)
		mock.ExpectQuery(`UPDATE documents SET status = 'archived'`).
			WithArgs("doc-1").WillReturnRows(docRow("doc-1"))

		_, err := svc.Archive(context.Background(), "doc-1")
		require.NoError(t, err)
	})
}

func TestStorageKey(t *testing.T) {
	t.Run("strips directory components", func(t *testing.T) {
		key := storageKey("proj-1", domain.CategorySpecifications, "../secrets/spec.pdf")
		assert.True(t, strings.HasPrefix(key, "projects/proj-1/specifications/"))
		assert.True(t, strings.HasSuffix(key, "-spec.pdf"))
		assert.NotContains(t, key, "..")
	})

	t.Run("defaults empty filename", func(t *testing.T) {
		key := storageKey("proj-1", domain.CategoryPhotos, "")
		assert.True(t, strings.HasSuffix(key, "-file"))
	})
}
