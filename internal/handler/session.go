package handler

import (
	"net/http"

	"github.com/TrustArcade/trustgate/internal/middleware"
	"github.com/TrustArcade/trustgate/internal/model"
	"github.com/TrustArcade/trustgate/internal/pkg/apperrors"
	"github.com/TrustArcade/trustgate/internal/service"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	engine *service.TrustEngine
}

func NewSessionHandler(engine *service.TrustEngine) *SessionHandler {
	return &SessionHandler{engine: engine}
}

// Analyze scores one game session. The wallet must be validated here: the
// engine treats an invalid wallet as the caller's bug, not telemetry.
func (h *SessionHandler) Analyze(c *gin.Context) {
	var req model.SessionContext
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	if !common.IsHexAddress(req.Wallet) {
		c.Error(apperrors.NewInvalidWallet(req.Wallet))
		return
	}

	result, err := h.engine.AnalyzeSession(c.Request.Context(), &req)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}

	middleware.AddAuditContext(c, "trust_score", result.TrustScore)
	middleware.AddAuditContext(c, "status", string(result.Status))
	if len(result.Sanctions) > 0 {
		middleware.AddAuditContext(c, "sanctions", len(result.Sanctions))
	}

	c.JSON(http.StatusOK, result)
}
