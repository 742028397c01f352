package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcpanel/gcpanel-backend/internal/auth"
	"github.com/gcpanel/gcpanel-backend/internal/documents/domain"
	"github.com/gcpanel/gcpanel-backend/internal/documents/service"
)

// Handler bundles the dependencies for document HTTP endpoints.
type Handler struct {
	svc *service.DocumentService
}

func New(svc *service.DocumentService) *Handler {
	return &Handler{svc: svc}
}

// Register attaches document routes under the project group and the flat
// /documents/:id routes.
func (h *Handler) Register(projects *gin.RouterGroup, api *gin.RouterGroup, resolve func(c *gin.Context) (string, bool)) {
	projects.POST("/:public_id/documents", func(c *gin.Context) {
		projectID, ok := resolve(c)
		if !ok {
			return
		}
		h.register(c, projectID)
	})
	projects.GET("/:public_id/documents", func(c *gin.Context) {
		projectID, ok := resolve(c)
		if !ok {
			return
		}
		h.list(c, projectID)
	})

	docs := api.Group("/documents")
	docs.GET("/:id", h.get)
	docs.POST("/:id/revise", h.revise)
	docs.GET("/:id/download", h.download)
	docs.POST("/:id/archive", h.archive)
}

type registerReq struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Discipline  string `json:"discipline"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

func (h *Handler) register(c *gin.Context, projectID string) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil ||
		strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.FileName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "title and file_name are required"})
		return
	}

	reg, err := h.svc.Register(c.Request.Context(), service.RegisterRequest{
		ProjectID:   projectID,
		Title:       req.Title,
		Category:    req.Category,
		Discipline:  req.Discipline,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		UploadedBy:  auth.UserDBID(c),
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "document": reg.Document, "upload_url": reg.UploadURL})
}

func (h *Handler) list(c *gin.Context, projectID string) {
	items, err := h.svc.List(c.Request.Context(), projectID,
		c.Query("category"), c.Query("status"), c.Query("current") == "true")
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "documents": items})
}

func (h *Handler) get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "document": doc})
}

type reviseReq struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

func (h *Handler) revise(c *gin.Context) {
	var req reviseReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.FileName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "file_name is required"})
		return
	}

	reg, err := h.svc.Revise(c.Request.Context(), c.Param("id"), service.ReviseRequest{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		UploadedBy:  auth.UserDBID(c),
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "document": reg.Document, "upload_url": reg.UploadURL})
}

func (h *Handler) download(c *gin.Context) {
	url, err := h.svc.DownloadURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "download_url": url})
}

func (h *Handler) archive(c *gin.Context) {
	doc, err := h.svc.Archive(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "document": doc})
}

func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "document not found"})
	case errors.Is(err, domain.ErrNotCurrent):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCategory):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrStorageDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
