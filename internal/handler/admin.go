package handler

import (
	"net/http"
	"strconv"

	"github.com/TrustArcade/trustgate/internal/middleware"
	"github.com/TrustArcade/trustgate/internal/pkg/apperrors"
	"github.com/TrustArcade/trustgate/internal/service"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// AdminHandler is the operator surface: sanction overrides, false-positive
// intake, global stats and the detection trail.
type AdminHandler struct {
	engine *service.TrustEngine
}

func NewAdminHandler(engine *service.TrustEngine) *AdminHandler {
	return &AdminHandler{engine: engine}
}

type liftSanctionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *AdminHandler) LiftSanction(c *gin.Context) {
	wallet := c.Param("wallet")
	if !common.IsHexAddress(wallet) {
		c.Error(apperrors.NewInvalidWallet(wallet))
		return
	}
	sanctionID := c.Param("id")
	if sanctionID == "" {
		c.Error(apperrors.NewInvalidRequest("sanction id is required"))
		return
	}

	var req liftSanctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	if err := h.engine.LiftSanction(c.Request.Context(), wallet, sanctionID, req.Reason); err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}

	middleware.AddAuditContext(c, "action", "lift_sanction")
	middleware.AddAuditContext(c, "sanction_id", sanctionID)

	c.JSON(http.StatusOK, gin.H{"lifted": true})
}

type falsePositiveRequest struct {
	Details string `json:"details" binding:"required"`
}

func (h *AdminHandler) ReportFalsePositive(c *gin.Context) {
	wallet := c.Param("wallet")
	if !common.IsHexAddress(wallet) {
		c.Error(apperrors.NewInvalidWallet(wallet))
		return
	}

	var req falsePositiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	if err := h.engine.ReportFalsePositive(c.Request.Context(), wallet, req.Details); err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}

	middleware.AddAuditContext(c, "action", "report_false_positive")

	c.JSON(http.StatusAccepted, gin.H{"recorded": true})
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.engine.GetStats(c.Request.Context())
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) RecentDetections(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.Error(apperrors.NewInvalidRequest("invalid limit"))
			return
		}
		limit = parsed
	}

	entries, err := h.engine.GetRecentDetections(c.Request.Context(), limit)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, entries)
}
