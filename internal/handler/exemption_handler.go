package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type exemptionService interface {
	ListActive(ctx context.Context) ([]models.ConflictExemption, error)
	Create(ctx context.Context, req service.CreateExemptionRequest) (*models.ConflictExemption, bool, error)
}

// ExemptionHandler exposes conflict exemption endpoints.
type ExemptionHandler struct {
	service exemptionService
}

// NewExemptionHandler constructs the handler.
func NewExemptionHandler(svc *service.ExemptionService) *ExemptionHandler {
	return &ExemptionHandler{service: svc}
}

// List godoc
// @Summary List active exemptions
// @Tags Exemptions
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exemptions [get]
func (h *ExemptionHandler) List(c *gin.Context) {
	exemptions, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exemptions, nil)
}

// Create godoc
// @Summary Grant exemption
// @Description Replaces an expired exemption on the same entity and conflict type and answers 200; a new one answers 201.
// @Tags Exemptions
// @Accept json
// @Produce json
// @Param payload body service.CreateExemptionRequest true "Exemption payload"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /exemptions [post]
func (h *ExemptionHandler) Create(c *gin.Context) {
	var req service.CreateExemptionRequest
	if !bindJSON(c, &req) {
		return
	}
	exemption, created, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if created {
		response.Created(c, exemption)
		return
	}
	response.JSON(c, http.StatusOK, exemption, nil)
}
