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

type resultService interface {
	Submit(ctx context.Context, req dto.SubmitResultRequest) (*models.Result, error)
	Delete(ctx context.Context, id string) (*models.ResultDeleted, error)
	List(ctx context.Context, level string) ([]models.EnrichedResult, error)
}

// ResultHandler exposes podium submission endpoints.
type ResultHandler struct {
	service resultService
}

// NewResultHandler builds a new handler.
func NewResultHandler(service resultService) *ResultHandler {
	return &ResultHandler{service: service}
}

// Submit godoc
// @Summary Submit an event result
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body dto.SubmitResultRequest true "Podium placements"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /results [post]
func (h *ResultHandler) Submit(c *gin.Context) {
	var req dto.SubmitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid result payload"))
		return
	}
	result, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, gin.H{"id": result.ID})
}

// Delete godoc
// @Summary Delete a result
// @Tags Results
// @Produce json
// @Param id query string true "Result ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /results [delete]
func (h *ResultHandler) Delete(c *gin.Context) {
	deleted, err := h.service.Delete(c.Request.Context(), c.Query("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"deleted": deleted.ID})
}

// List godoc
// @Summary Recent results
// @Tags Results
// @Produce json
// @Param level query string false "high_school or higher_secondary"
// @Success 200 {object} response.Envelope
// @Router /results [get]
func (h *ResultHandler) List(c *gin.Context) {
	var query dto.ResultQuery
	_ = c.ShouldBindQuery(&query)
	items, err := h.service.List(c.Request.Context(), query.Level)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}
