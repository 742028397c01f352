package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcpanel/gcpanel-backend/internal/precon/domain"
	"github.com/gcpanel/gcpanel-backend/internal/precon/repository"
)

// Handler bundles the dependencies for preconstruction HTTP endpoints.
type Handler struct {
	budget *repository.BudgetRepository
	bids   *repository.BidRepository
}

func New(budget *repository.BudgetRepository, bids *repository.BidRepository) *Handler {
	return &Handler{budget: budget, bids: bids}
}

// Register attaches preconstruction routes under the project group and the
// flat /budget-lines and /bid-packages routes.
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

	projects.POST("/:public_id/budget", sub(h.createLine))
	projects.GET("/:public_id/budget", sub(h.listLines))
	projects.GET("/:public_id/budget/summary", sub(h.divisionSummary))
	projects.POST("/:public_id/bid-packages", sub(h.createPackage))
	projects.GET("/:public_id/bid-packages", sub(h.listPackages))

	api.PATCH("/budget-lines/:id", h.updateLine)
	api.DELETE("/budget-lines/:id", h.deleteLine)
	api.POST("/bid-packages/:id/open", h.openPackage)
	api.POST("/bid-packages/:id/award", h.awardPackage)
}

type createLineReq struct {
	CSIDivision     string  `json:"csi_division"`
	CSICode         string  `json:"csi_code"`
	Description     string  `json:"description"`
	BudgetAmount    float64 `json:"budget_amount"`
	CommittedAmount float64 `json:"committed_amount"`
	ActualAmount    float64 `json:"actual_amount"`
}

func (h *Handler) createLine(c *gin.Context, projectID string) {
	var req createLineReq
	if err := c.ShouldBindJSON(&req); err != nil ||
		strings.TrimSpace(req.CSIDivision) == "" || strings.TrimSpace(req.Description) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "csi_division and description are required"})
		return
	}

	line, err := h.budget.Insert(c.Request.Context(), &domain.BudgetLineItem{
		ProjectID:       projectID,
		CSIDivision:     strings.TrimSpace(req.CSIDivision),
		CSICode:         strings.TrimSpace(req.CSICode),
		Description:     strings.TrimSpace(req.Description),
		BudgetAmount:    req.BudgetAmount,
		CommittedAmount: req.CommittedAmount,
		ActualAmount:    req.ActualAmount,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "line": line})
}

func (h *Handler) listLines(c *gin.Context, projectID string) {
	items, err := h.budget.ListByProject(c.Request.Context(), projectID, c.Query("division"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "lines": items})
}

func (h *Handler) divisionSummary(c *gin.Context, projectID string) {
	summary, err := h.budget.DivisionSummary(c.Request.Context(), projectID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "divisions": summary})
}

type updateLineReq struct {
	BudgetAmount    *float64 `json:"budget_amount"`
	CommittedAmount *float64 `json:"committed_amount"`
	ActualAmount    *float64 `json:"actual_amount"`
}

func (h *Handler) updateLine(c *gin.Context) {
	var req updateLineReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	line, err := h.budget.UpdateAmounts(c.Request.Context(), c.Param("id"),
		req.BudgetAmount, req.CommittedAmount, req.ActualAmount)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "line": line})
}

func (h *Handler) deleteLine(c *gin.Context) {
	ok, err := h.budget.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "budget line item not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type createPackageReq struct {
	Name        string     `json:"name"`
	CSIDivision string     `json:"csi_division"`
	DueDate     *time.Time `json:"due_date"`
}

func (h *Handler) createPackage(c *gin.Context, projectID string) {
	var req createPackageReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "name is required"})
		return
	}

	pkg, err := h.bids.Insert(c.Request.Context(), &domain.BidPackage{
		ProjectID:   projectID,
		Name:        strings.TrimSpace(req.Name),
		CSIDivision: strings.TrimSpace(req.CSIDivision),
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "bid_package": pkg})
}

func (h *Handler) listPackages(c *gin.Context, projectID string) {
	items, err := h.bids.ListByProject(c.Request.Context(), projectID, c.Query("status"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "bid_packages": items})
}

func (h *Handler) openPackage(c *gin.Context) {
	pkg, err := h.bids.OpenForBidding(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "bid_package": pkg})
}

type awardReq struct {
	AwardedTo     string  `json:"awarded_to"`
	AwardedAmount float64 `json:"awarded_amount"`
}

func (h *Handler) awardPackage(c *gin.Context) {
	var req awardReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.AwardedTo) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "awarded_to is required"})
		return
	}

	pkg, err := h.bids.Award(c.Request.Context(), c.Param("id"), strings.TrimSpace(req.AwardedTo), req.AwardedAmount)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "bid_package": pkg})
}

func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrLineNotFound), errors.Is(err, domain.ErrPackageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrInvalidAward):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
