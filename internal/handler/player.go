package handler

import (
	"net/http"

	"github.com/TrustArcade/trustgate/internal/pkg/apperrors"
	"github.com/TrustArcade/trustgate/internal/service"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

type PlayerHandler struct {
	engine *service.TrustEngine
}

func NewPlayerHandler(engine *service.TrustEngine) *PlayerHandler {
	return &PlayerHandler{engine: engine}
}

// CheckBan answers the pre-submission ban gate for a wallet.
func (h *PlayerHandler) CheckBan(c *gin.Context) {
	wallet := c.Param("wallet")
	if !common.IsHexAddress(wallet) {
		c.Error(apperrors.NewInvalidWallet(wallet))
		return
	}

	status, err := h.engine.CheckBan(c.Request.Context(), wallet)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetProfile serves the read-only player status view.
func (h *PlayerHandler) GetProfile(c *gin.Context) {
	wallet := c.Param("wallet")
	if !common.IsHexAddress(wallet) {
		c.Error(apperrors.NewInvalidWallet(wallet))
		return
	}

	summary, err := h.engine.GetProfile(c.Request.Context(), wallet)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	if !summary.Found {
		c.JSON(http.StatusNotFound, summary)
		return
	}
	c.JSON(http.StatusOK, summary)
}
