package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcpanel/gcpanel-backend/internal/analytics/repository"
	"github.com/gcpanel/gcpanel-backend/internal/analytics/service"
)

// Handler bundles the dependencies for analytics HTTP endpoints.
type Handler struct {
	metrics   *repository.MetricsRepository
	dashboard *service.DashboardService
}

func New(metrics *repository.MetricsRepository, dashboard *service.DashboardService) *Handler {
	return &Handler{metrics: metrics, dashboard: dashboard}
}

// Register attaches analytics routes under the project group.
func (h *Handler) Register(projects *gin.RouterGroup, resolve func(c *gin.Context) (string, bool)) {
	sub := func(fn func(c *gin.Context, projectID string)) gin.HandlerFunc {
		return func(c *gin.Context) {
			projectID, ok := resolve(c)
			if !ok {
				return
			}
			fn(c, projectID)
		}
	}

	projects.GET("/:public_id/dashboard", sub(h.snapshot))
	projects.GET("/:public_id/metrics", sub(h.queryMetrics))
	projects.POST("/:public_id/metrics", sub(h.insertMetrics))
}

func (h *Handler) snapshot(c *gin.Context, projectID string) {
	snap, err := h.dashboard.Snapshot(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "dashboard": snap})
}

func (h *Handler) queryMetrics(c *gin.Context, projectID string) {
	var from, to time.Time
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid from timestamp"})
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid to timestamp"})
			return
		}
		to = t
	}

	points, err := h.metrics.Query(c.Request.Context(), projectID, c.Query("metric"), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "points": points})
}

type insertMetricsReq struct {
	Points []struct {
		Time   *time.Time        `json:"time"`
		Metric string            `json:"metric"`
		Value  float64           `json:"value"`
		Tags   map[string]string `json:"tags"`
	} `json:"points"`
}

func (h *Handler) insertMetrics(c *gin.Context, projectID string) {
	var req insertMetricsReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Points) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "points are required"})
		return
	}

	points := make([]repository.MetricPoint, 0, len(req.Points))
	for _, p := range req.Points {
		if p.Metric == "" {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "metric name is required on every point"})
			return
		}
		pt := repository.MetricPoint{
			ProjectID: projectID,
			Metric:    p.Metric,
			Value:     p.Value,
			Tags:      p.Tags,
		}
		if p.Time != nil {
			pt.Time = *p.Time
		}
		points = append(points, pt)
	}

	if err := h.metrics.InsertBatch(c.Request.Context(), points); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "inserted": len(points)})
}
