package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcpanel/gcpanel-backend/internal/bim/domain"
	"github.com/gcpanel/gcpanel-backend/internal/bim/service"
)

// Handler bundles the dependencies for BIM HTTP endpoints.
type Handler struct {
	svc *service.ClashService
}

func New(svc *service.ClashService) *Handler {
	return &Handler{svc: svc}
}

// Register attaches BIM routes under the project group and the flat
// /clashes/:id route.
func (h *Handler) Register(projects *gin.RouterGroup, api *gin.RouterGroup, resolve func(c *gin.Context) (string, bool)) {
	sub := func(fn func(c *gin.Context, projectID string)) gin.HandlerFunc {
		return func(c *gin.Context) {
			projectID, ok := resolve(c)
			if !ok {
				return
			}
			fn(c, projectID)
		}
	}

	projects.POST("/:public_id/bim/elements", sub(h.importElements))
	projects.GET("/:public_id/bim/elements", sub(h.listElements))
	projects.POST("/:public_id/bim/clash-detection", sub(h.runDetection))
	projects.GET("/:public_id/bim/clashes", sub(h.listClashes))

	api.PATCH("/clashes/:id", h.updateClash)
}

type importReq struct {
	Elements []elementReq `json:"elements"`
}

type elementReq struct {
	ModelID  string      `json:"model_id"`
	Name     string      `json:"name"`
	Category string      `json:"category"`
	Level    string      `json:"level"`
	Material string      `json:"material"`
	BBox     domain.BBox `json:"bbox"`
}

func (h *Handler) importElements(c *gin.Context, projectID string) {
	var req importReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Elements) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "elements are required"})
		return
	}

	elements := make([]domain.Element, 0, len(req.Elements))
	for _, e := range req.Elements {
		elements = append(elements, domain.Element{
			ModelID:  e.ModelID,
			Name:     e.Name,
			Category: e.Category,
			Level:    e.Level,
			Material: e.Material,
			BBox:     e.BBox,
		})
	}

	n, err := h.svc.ImportElements(c.Request.Context(), projectID, elements)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "imported": n})
}

func (h *Handler) listElements(c *gin.Context, projectID string) {
	items, err := h.svc.ListElements(c.Request.Context(), projectID, c.Query("category"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "elements": items})
}

func (h *Handler) runDetection(c *gin.Context, projectID string) {
	summary, err := h.svc.RunClashDetection(c.Request.Context(), projectID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "summary": summary})
}

func (h *Handler) listClashes(c *gin.Context, projectID string) {
	items, err := h.svc.ListClashes(c.Request.Context(), projectID, c.Query("status"), c.Query("kind"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "clashes": items})
}

type updateClashReq struct {
	Status string `json:"status"`
}

func (h *Handler) updateClash(c *gin.Context) {
	var req updateClashReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "status is required"})
		return
	}

	clash, err := h.svc.UpdateClashStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "clash": clash})
}

func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrClashNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCategory), errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidBBox):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
