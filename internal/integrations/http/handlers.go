package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gcpanel/gcpanel-backend/internal/auth"
	"github.com/gcpanel/gcpanel-backend/internal/integrations/domain"
	"github.com/gcpanel/gcpanel-backend/internal/integrations/repository"
	"github.com/gcpanel/gcpanel-backend/internal/integrations/service"
)

// Handler bundles the dependencies for integration HTTP endpoints.
type Handler struct {
	sync     *service.SyncService
	importer *service.ImportService
}

func New(sync *service.SyncService, importer *service.ImportService) *Handler {
	return &Handler{sync: sync, importer: importer}
}

// Register attaches integration routes under /integrations.
func (h *Handler) Register(api *gin.RouterGroup) {
	g := api.Group("/integrations")
	g.GET("/connectors", h.connectors)
	g.POST("/sync", h.syncAll)
	g.POST("/sync/:connector", h.syncOne)
	g.GET("/runs", h.listRuns)
	g.GET("/runs/:run_id", h.getRun)
	g.GET("/records", h.listRecords)
}

func (h *Handler) connectors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "connectors": h.sync.Connectors(c.Request.Context())})
}

func (h *Handler) syncAll(c *gin.Context) {
	userID := auth.UserDBID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not resolved"})
		return
	}

	runs, err := h.sync.SyncAll(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "sync failed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"ok": true, "runs": runs})
}

func (h *Handler) syncOne(c *gin.Context) {
	userID := auth.UserDBID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not resolved"})
		return
	}

	run, err := h.sync.StartSync(c.Request.Context(), userID, c.Param("connector"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"ok": true, "run": run})
}

func (h *Handler) getRun(c *gin.Context) {
	run, err := h.sync.GetRun(c.Request.Context(), c.Param("run_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "run": run})
}

func (h *Handler) listRuns(c *gin.Context) {
	userID := auth.UserDBID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not resolved"})
		return
	}

	runs, err := h.sync.ListRuns(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "runs": runs})
}

func (h *Handler) listRecords(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	records, err := h.importer.List(c.Request.Context(), repository.ListFilter{
		Source: c.Query("source"),
		Kind:   c.Query("kind"),
		Limit:  limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to list records"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "records": records, "count": len(records)})
}

func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrRunNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrUnknownConnector):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrConnectorDisabled):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}
