package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/festival-live-api/internal/dto"
	"github.com/noah-isme/festival-live-api/internal/models"
	appErrors "github.com/noah-isme/festival-live-api/pkg/errors"
	"github.com/noah-isme/festival-live-api/pkg/response"
)

type finalizeService interface {
	Get() models.FinalizeState
	Apply(ctx context.Context, action string) (models.FinalizeState, error)
}

// FinalizeHandler toggles the festival concluded mode.
type FinalizeHandler struct {
	service finalizeService
}

// NewFinalizeHandler builds a new handler.
func NewFinalizeHandler(service finalizeService) *FinalizeHandler {
	return &FinalizeHandler{service: service}
}

// Get godoc
// @Summary Finalize flag
// @Tags Finalize
// @Produce json
// @Success 200 {object} models.FinalizeState
// @Router /finalize [get]
func (h *FinalizeHandler) Get(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, h.service.Get())
}

// Apply godoc
// @Summary Finalize or reopen the festival
// @Tags Finalize
// @Accept json
// @Produce json
// @Param payload body dto.FinalizeRequest true "finalize or undo"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Router /finalize [post]
func (h *FinalizeHandler) Apply(c *gin.Context) {
	var req dto.FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid action"))
		return
	}
	state, err := h.service.Apply(c.Request.Context(), req.Action)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"finalized": state.Finalized})
}
