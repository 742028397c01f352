package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcpanel/gcpanel-backend/internal/auth"
	"github.com/gcpanel/gcpanel-backend/internal/rfis/domain"
	"github.com/gcpanel/gcpanel-backend/internal/rfis/service"
)

// Handler bundles the dependencies for RFI HTTP endpoints.
type Handler struct {
	svc *service.RFIService
}

func New(svc *service.RFIService) *Handler {
	return &Handler{svc: svc}
}

// Register attaches RFI routes under a project group
// (/projects/:public_id/rfis) and the flat /rfis/:id routes.
func (h *Handler) Register(projects *gin.RouterGroup, api *gin.RouterGroup, resolve func(c *gin.Context) (string, bool)) {
	projects.POST("/:public_id/rfis", func(c *gin.Context) {
		projectID, ok := resolve(c)
		if !ok {
			return
		}
		h.create(c, projectID)
	})
	projects.GET("/:public_id/rfis", func(c *gin.Context) {
		projectID, ok := resolve(c)
		if !ok {
			return
		}
		h.list(c, projectID)
	})

	rfis := api.Group("/rfis")
	rfis.GET("/:id", h.get)
	rfis.POST("/:id/answer", h.answer)
	rfis.POST("/:id/close", h.close)
	rfis.POST("/:id/reopen", h.reopen)
	rfis.POST("/:id/void", h.void)
	rfis.POST("/:id/assign", h.assign)
}

type createReq struct {
	Subject    string     `json:"subject"`
	Question   string     `json:"question"`
	Priority   string     `json:"priority"`
	Discipline string     `json:"discipline"`
	AssignedTo string     `json:"assigned_to"`
	DueDate    *time.Time `json:"due_date"`
}

func (h *Handler) create(c *gin.Context, projectID string) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil ||
		strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "subject and question are required"})
		return
	}

	rfi, err := h.svc.Create(c.Request.Context(), service.CreateRFIRequest{
		ProjectID:   projectID,
		Subject:     req.Subject,
		Question:    req.Question,
		Priority:    req.Priority,
		Discipline:  req.Discipline,
		SubmittedBy: auth.UserDBID(c),
		AssignedTo:  req.AssignedTo,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "rfi": rfi})
}

func (h *Handler) list(c *gin.Context, projectID string) {
	items, err := h.svc.List(c.Request.Context(), projectID, c.Query("status"), c.Query("priority"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rfis": items})
}

func (h *Handler) get(c *gin.Context) {
	rfi, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"rfi":        rfi,
		"days_open":  rfi.DaysOpen(),
		"is_overdue": rfi.IsOverdue(),
	})
}

type answerReq struct {
	Answer string `json:"answer"`
}

func (h *Handler) answer(c *gin.Context) {
	var req answerReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Answer) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "answer is required"})
		return
	}

	rfi, err := h.svc.Answer(c.Request.Context(), c.Param("id"), req.Answer)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rfi": rfi})
}

func (h *Handler) close(c *gin.Context) {
	rfi, err := h.svc.Close(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rfi": rfi})
}

func (h *Handler) reopen(c *gin.Context) {
	rfi, err := h.svc.Reopen(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rfi": rfi})
}

func (h *Handler) void(c *gin.Context) {
	rfi, err := h.svc.Void(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rfi": rfi})
}

type assignReq struct {
	AssignedTo string `json:"assigned_to"`
}

func (h *Handler) assign(c *gin.Context) {
	var req assignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	rfi, err := h.svc.Assign(c.Request.Context(), c.Param("id"), req.AssignedTo)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rfi": rfi})
}

func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "rfi not found"})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrInvalidStatus), errors.Is(err, domain.ErrInvalidPriority):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
