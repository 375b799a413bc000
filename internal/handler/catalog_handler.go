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

type eventService interface {
	ListActive(ctx context.Context, level string) ([]models.Event, error)
	Create(ctx context.Context, req dto.CreateEventRequest) (*models.Event, error)
}

type institutionService interface {
	ListActive(ctx context.Context) ([]models.Institution, error)
}

// CatalogHandler serves events and houses.
type CatalogHandler struct {
	events       eventService
	institutions institutionService
}

// NewCatalogHandler builds a new handler.
func NewCatalogHandler(events eventService, institutions institutionService) *CatalogHandler {
	return &CatalogHandler{events: events, institutions: institutions}
}

// ListEvents godoc
// @Summary Active events
// @Tags Catalog
// @Produce json
// @Param level query string false "high_school or higher_secondary"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *CatalogHandler) ListEvents(c *gin.Context) {
	items, err := h.events.ListActive(c.Request.Context(), c.Query("level"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// CreateEvent godoc
// @Summary Register an event
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateEventRequest true "Event"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Router /events [post]
func (h *CatalogHandler) CreateEvent(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	event, err := h.events.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, gin.H{"id": event.ID})
}

// ListInstitutions godoc
// @Summary Active houses
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /institutions [get]
func (h *CatalogHandler) ListInstitutions(c *gin.Context) {
	items, err := h.institutions.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// CreateInstitution godoc
// @Summary Houses are fixed
// @Tags Catalog
// @Produce json
// @Failure 405 {object} response.ErrorBody
// @Router /institutions [post]
func (h *CatalogHandler) CreateInstitution(c *gin.Context) {
	response.Error(c, appErrors.Clone(appErrors.ErrMethodNotAllowed, "Houses are fixed (Red, Blue, Green). Run: festival seed"))
}
