package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type curriculumService interface {
	List(ctx context.Context, term string) ([]models.Curriculum, error)
	Get(ctx context.Context, id string) (*models.Curriculum, error)
	Create(ctx context.Context, req service.CreateCurriculumRequest) (*models.Curriculum, error)
}

// CurriculumHandler exposes curriculum endpoints.
type CurriculumHandler struct {
	service curriculumService
}

// NewCurriculumHandler constructs the handler.
func NewCurriculumHandler(svc *service.CurriculumService) *CurriculumHandler {
	return &CurriculumHandler{service: svc}
}

// List godoc
// @Summary List curricula
// @Tags Curricula
// @Produce json
// @Param term query string false "Term"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /curricula [get]
func (h *CurriculumHandler) List(c *gin.Context) {
	curricula, err := h.service.List(c.Request.Context(), c.Query("term"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, curricula, nil)
}

// Get godoc
// @Summary Get curriculum
// @Tags Curricula
// @Produce json
// @Param id path string true "Curriculum ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /curricula/{id} [get]
func (h *CurriculumHandler) Get(c *gin.Context) {
	curriculum, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, curriculum, nil)
}

// Create godoc
// @Summary Create curriculum
// @Tags Curricula
// @Accept json
// @Produce json
// @Param payload body service.CreateCurriculumRequest true "Curriculum payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /curricula [post]
func (h *CurriculumHandler) Create(c *gin.Context) {
	var req service.CreateCurriculumRequest
	if !bindJSON(c, &req) {
		return
	}
	curriculum, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, curriculum)
}
